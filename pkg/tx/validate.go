package tx

import (
	"errors"
	"fmt"
	"math"

	"github.com/Klingon-tech/kaschess/pkg/types"
)

// Structural limits.
const (
	MaxTxInputs    = 1000
	MaxTxOutputs   = 1000
	MaxPayloadSize = 1024
)

// Validation errors.
var (
	ErrNoInputs           = errors.New("transaction has no inputs")
	ErrNoOutputs          = errors.New("transaction has no outputs")
	ErrDuplicateInput     = errors.New("duplicate input")
	ErrOutputOverflow     = errors.New("output values overflow")
	ErrInputOverflow      = errors.New("input values overflow")
	ErrZeroOutput         = errors.New("output amount is zero")
	ErrMissingSig         = errors.New("input missing signature script")
	ErrInvalidSig         = errors.New("invalid signature")
	ErrTooManyInputs      = errors.New("too many inputs")
	ErrTooManyOutputs     = errors.New("too many outputs")
	ErrScriptDataTooLarge = errors.New("script data too large")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrNilInput           = errors.New("nil input or output")
	ErrNativeGas          = errors.New("native transaction with gas")
)

// Validate checks the context-free rules: counts, sizes, duplicate
// outpoints and output sums. UTXO existence and signatures are checked by
// ValidateWithUTXOs.
func (tx *Transaction) Validate() error {
	switch {
	case len(tx.Inputs) == 0:
		return ErrNoInputs
	case len(tx.Outputs) == 0:
		return ErrNoOutputs
	case len(tx.Inputs) > MaxTxInputs:
		return fmt.Errorf("%w: %d inputs, max %d", ErrTooManyInputs, len(tx.Inputs), MaxTxInputs)
	case len(tx.Outputs) > MaxTxOutputs:
		return fmt.Errorf("%w: %d outputs, max %d", ErrTooManyOutputs, len(tx.Outputs), MaxTxOutputs)
	case len(tx.Payload) > MaxPayloadSize:
		return fmt.Errorf("%w: %d bytes, max %d", ErrPayloadTooLarge, len(tx.Payload), MaxPayloadSize)
	case tx.SubnetworkID.IsNative() && tx.Gas != 0:
		return fmt.Errorf("%w: %d", ErrNativeGas, tx.Gas)
	}
	if err := tx.validateInputs(); err != nil {
		return err
	}
	return tx.validateOutputs()
}

func (tx *Transaction) validateInputs() error {
	seen := make(map[types.Outpoint]int, len(tx.Inputs))
	for i, in := range tx.Inputs {
		if in == nil {
			return fmt.Errorf("input %d: %w", i, ErrNilInput)
		}
		if j, dup := seen[in.PreviousOutpoint]; dup {
			return fmt.Errorf("input %d: %w: %s already spent by input %d", i, ErrDuplicateInput, in.PreviousOutpoint, j)
		}
		seen[in.PreviousOutpoint] = i
	}
	return nil
}

func (tx *Transaction) validateOutputs() error {
	var sum uint64
	for i, out := range tx.Outputs {
		switch {
		case out == nil:
			return fmt.Errorf("output %d: %w", i, ErrNilInput)
		case out.Amount == 0:
			return fmt.Errorf("output %d: %w", i, ErrZeroOutput)
		case len(out.ScriptPublicKey.Script) > types.MaxScriptPubKey:
			return fmt.Errorf("output %d: %w: %d bytes, max %d", i, ErrScriptDataTooLarge,
				len(out.ScriptPublicKey.Script), types.MaxScriptPubKey)
		case sum > math.MaxUint64-out.Amount:
			return fmt.Errorf("output %d: %w", i, ErrOutputOverflow)
		}
		sum += out.Amount
	}
	return nil
}

// ValidateSigned is Validate plus a non-empty signature script on every
// input.
func (tx *Transaction) ValidateSigned() error {
	if err := tx.Validate(); err != nil {
		return err
	}
	for i, in := range tx.Inputs {
		if len(in.SignatureScript) == 0 {
			return fmt.Errorf("input %d: %w", i, ErrMissingSig)
		}
	}
	return nil
}
