package tx

import (
	"errors"
	"fmt"
	"math"

	"github.com/Klingon-tech/kaschess/pkg/types"
)

// UTXO-aware validation errors.
var (
	ErrInputNotFound   = errors.New("input UTXO not found")
	ErrInsufficientFee = errors.New("insufficient fee")
)

// UTXOProvider provides read-only access to a UTXO view for validation.
type UTXOProvider interface {
	GetUTXO(outpoint types.Outpoint) (*UtxoEntry, bool)
}

// ValidateWithUTXOs performs full validation of a signed transaction
// against a UTXO view: structure, input existence, signatures, and
// inputs >= outputs + minFee. Returns the fee (inputs - outputs).
func (tx *Transaction) ValidateWithUTXOs(provider UTXOProvider, minFee uint64) (uint64, error) {
	if err := tx.ValidateSigned(); err != nil {
		return 0, err
	}

	reused := &SigHashReusedValues{}
	var totalInput uint64
	for i, in := range tx.Inputs {
		entry, ok := provider.GetUTXO(in.PreviousOutpoint)
		if !ok {
			return 0, fmt.Errorf("input %d (%s): %w", i, in.PreviousOutpoint, ErrInputNotFound)
		}
		if err := VerifyInput(tx, i, entry, reused); err != nil {
			return 0, err
		}
		if totalInput > math.MaxUint64-entry.Amount {
			return 0, fmt.Errorf("input %d: %w", i, ErrInputOverflow)
		}
		totalInput += entry.Amount
	}

	totalOutput, err := tx.TotalOutputValue()
	if err != nil {
		return 0, err
	}
	if totalInput < totalOutput {
		return 0, fmt.Errorf("%w: inputs=%d outputs=%d", ErrInsufficientFee, totalInput, totalOutput)
	}
	fee := totalInput - totalOutput
	if fee < minFee {
		return 0, fmt.Errorf("%w: fee %d below minimum %d", ErrInsufficientFee, fee, minFee)
	}
	return fee, nil
}
