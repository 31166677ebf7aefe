package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Klingon-tech/kaschess/pkg/types"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	prefix, err := cfg.Prefix()
	if err != nil {
		return fmt.Errorf("%w: network must be %s, %s, %s or %s", ErrInvalidConfig, Mainnet, Testnet, Simnet, Devnet)
	}

	if err := validateURL(cfg.API.REST, "api.rest", "http", "https"); err != nil {
		return err
	}
	if err := validateURL(cfg.API.RPC, "api.rpc", "ws", "wss"); err != nil {
		return err
	}
	switch cfg.API.Transport {
	case TransportREST, TransportRPC:
	default:
		return fmt.Errorf("%w: api.transport must be %q or %q", ErrInvalidConfig, TransportREST, TransportRPC)
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("%w: api.timeout must be positive", ErrInvalidConfig)
	}

	p := cfg.Publish
	if p.Fee == 0 && p.FeeRate == 0 {
		return fmt.Errorf("%w: publish.fee or publish.feerate must be set", ErrInvalidConfig)
	}
	if p.Amount == 0 {
		return fmt.Errorf("%w: publish.amount must be positive", ErrInvalidConfig)
	}
	if p.Amount < p.Dust {
		return fmt.Errorf("%w: publish.amount %d is below publish.dust %d", ErrInvalidConfig, p.Amount, p.Dust)
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: publish.maxattempts must be at least 1", ErrInvalidConfig)
	}
	if p.RetryDelay < 0 {
		return fmt.Errorf("%w: publish.retrydelay must not be negative", ErrInvalidConfig)
	}
	if p.Destination != "" {
		if _, err := parseAddress(p.Destination, prefix); err != nil {
			return fmt.Errorf("%w: publish.destination: %v", ErrInvalidConfig, err)
		}
	}

	for i, f := range cfg.DevNode.Fund {
		if _, _, err := ParseFund(f, prefix); err != nil {
			return fmt.Errorf("%w: devnode.fund[%d]: %v", ErrInvalidConfig, i, err)
		}
	}
	if cfg.DevNode.ConfirmInterval < 0 {
		return fmt.Errorf("%w: devnode.confirm must not be negative", ErrInvalidConfig)
	}
	return nil
}

// DestinationAddress returns the decoded publish destination, or the zero
// Address when none is set.
func (c *Config) DestinationAddress() (types.Address, error) {
	if c.Publish.Destination == "" {
		return types.Address{}, nil
	}
	prefix, err := c.Prefix()
	if err != nil {
		return types.Address{}, err
	}
	return parseAddress(c.Publish.Destination, prefix)
}

// ParseFund parses an "address=amount" funding entry.
func ParseFund(s string, prefix types.Prefix) (types.Address, uint64, error) {
	addrStr, amountStr, ok := strings.Cut(s, "=")
	if !ok {
		return types.Address{}, 0, fmt.Errorf("%q: expected address=amount", s)
	}
	addr, err := parseAddress(strings.TrimSpace(addrStr), prefix)
	if err != nil {
		return types.Address{}, 0, err
	}
	amount, err := strconv.ParseUint(strings.TrimSpace(amountStr), 10, 64)
	if err != nil || amount == 0 {
		return types.Address{}, 0, fmt.Errorf("%q: amount must be a positive integer", s)
	}
	return addr, amount, nil
}

func parseAddress(s string, prefix types.Prefix) (types.Address, error) {
	addr, err := types.DecodeAddress(s)
	if err != nil {
		return types.Address{}, err
	}
	if addr.Prefix != prefix {
		return types.Address{}, fmt.Errorf("address %s is not a %s address", s, prefix)
	}
	return addr, nil
}

func validateURL(raw, field string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: %s %q is not a URL", ErrInvalidConfig, field, raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s scheme must be one of %s", ErrInvalidConfig, field, strings.Join(schemes, ", "))
}
