package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Klingon-tech/kaschess/config"
)

// formatAmount renders sompi as a KAS decimal string.
func formatAmount(sompi uint64) string {
	return fmt.Sprintf("%d.%0*d", sompi/config.Coin, config.Decimals, sompi%config.Coin)
}

// parseAmount converts a KAS decimal string to sompi.
func parseAmount(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative amount")
	}

	whole, fracStr, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid whole part: %w", err)
	}

	var frac uint64
	if hasFrac {
		if fracStr == "" || len(fracStr) > config.Decimals {
			return 0, fmt.Errorf("fraction must have 1 to %d digits", config.Decimals)
		}
		fracStr += strings.Repeat("0", config.Decimals-len(fracStr))
		frac, err = strconv.ParseUint(fracStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid fractional part: %w", err)
		}
	}

	if w > math.MaxUint64/config.Coin {
		return 0, fmt.Errorf("amount too large")
	}
	result := w * config.Coin
	if result > math.MaxUint64-frac {
		return 0, fmt.Errorf("amount too large")
	}
	return result + frac, nil
}
