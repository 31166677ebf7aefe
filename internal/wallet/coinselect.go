package wallet

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Klingon-tech/kaschess/pkg/tx"
)

// Coin selection errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrZeroTarget        = errors.New("spend plus fee must be positive")
	ErrAmountOverflow    = errors.New("spend, fee and dust overflow")
)

// InsufficientFundsError reports the exact shortfall of a selection.
type InsufficientFundsError struct {
	Available uint64
	Required  uint64 // spend + fee + dust
	Shortfall uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: have %d, need %d (short %d)", e.Available, e.Required, e.Shortfall)
}

// Unwrap lets errors.Is match ErrInsufficientFunds.
func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// Selection holds the result of coin selection.
// Total == spend + Change + Fee always holds.
type Selection struct {
	Inputs   []*tx.UtxoEntry // Selected UTXOs, in the order they were given.
	Total    uint64          // Sum of selected amounts.
	Change   uint64          // Change output amount, 0 if absorbed.
	Absorbed uint64          // Sub-dust change added to the fee.
	Fee      uint64          // Effective fee: requested fee + Absorbed.
}

type candidate struct {
	entry *tx.UtxoEntry
	pos   int
}

// SelectUTXOs chooses UTXOs to pay spend plus fee. The available total must
// also cover dust so a sub-dust remainder can never be forced.
// It tries two strategies:
//  1. Single UTXO: finds the smallest single UTXO that covers the target (minimizes inputs).
//  2. Largest-first accumulation: greedily adds the largest UTXOs until the target is met.
//
// Returns the strategy that produces the least change. Change below dust is
// absorbed into the fee.
func SelectUTXOs(utxos []*tx.UtxoEntry, spend, fee, dust uint64) (*Selection, error) {
	if spend > math.MaxUint64-fee || spend+fee > math.MaxUint64-dust {
		return nil, ErrAmountOverflow
	}
	target := spend + fee
	if target == 0 {
		return nil, ErrZeroTarget
	}
	required := target + dust

	candidates := make([]candidate, 0, len(utxos))
	var available uint64
	for i, u := range utxos {
		if u == nil || u.Amount == 0 {
			continue
		}
		if available > math.MaxUint64-u.Amount {
			return nil, ErrAmountOverflow
		}
		available += u.Amount
		candidates = append(candidates, candidate{entry: u, pos: i})
	}
	if available < required {
		return nil, &InsufficientFundsError{
			Available: available,
			Required:  required,
			Shortfall: required - available,
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].entry.Amount < candidates[j].entry.Amount
	})

	// Strategy 1: Single UTXO, smallest one that covers the target.
	var single []candidate
	for _, c := range candidates {
		if c.entry.Amount >= target {
			single = []candidate{c}
			break // Already sorted ascending, first match is smallest.
		}
	}

	// Strategy 2: Largest-first accumulation. Always succeeds here.
	var accum []candidate
	var total uint64
	for i := len(candidates) - 1; i >= 0; i-- {
		accum = append(accum, candidates[i])
		total += candidates[i].entry.Amount
		if total >= target {
			break
		}
	}

	chosen := accum
	if single != nil && single[0].entry.Amount <= total {
		chosen = single
	}
	return finishSelection(chosen, spend, fee, dust), nil
}

func finishSelection(chosen []candidate, spend, fee, dust uint64) *Selection {
	sort.Slice(chosen, func(i, j int) bool { return chosen[i].pos < chosen[j].pos })

	sel := &Selection{Inputs: make([]*tx.UtxoEntry, len(chosen)), Fee: fee}
	for i, c := range chosen {
		sel.Inputs[i] = c.entry
		sel.Total += c.entry.Amount
	}
	change := sel.Total - spend - fee
	if change < dust {
		sel.Absorbed = change
		sel.Fee += change
	} else {
		sel.Change = change
	}
	return sel
}

// FilterMature drops coinbase outputs that are not yet spendable at
// virtualDAAScore. A maturity of 0 disables the check.
func FilterMature(utxos []*tx.UtxoEntry, virtualDAAScore, maturity uint64) []*tx.UtxoEntry {
	if maturity == 0 {
		return utxos
	}
	out := make([]*tx.UtxoEntry, 0, len(utxos))
	for _, u := range utxos {
		if u.IsCoinbase && u.BlockDAAScore+maturity > virtualDAAScore {
			continue
		}
		out = append(out, u)
	}
	return out
}
