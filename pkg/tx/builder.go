package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/kaschess/pkg/types"
)

// Fixed fields of every transaction this engine builds.
const (
	TxVersion         = 0
	DefaultSequence   = 0
	DefaultSigOpCount = 1
)

// ErrNilEntry is returned when a selected entry or output is nil.
var ErrNilEntry = errors.New("nil utxo entry or output")

// Build assembles an unsigned transaction. Inputs follow the order of
// selected; outputs follow the caller's order. The payload is copied
// verbatim.
func Build(selected []*UtxoEntry, outputs []*Output, payload []byte) (*Transaction, error) {
	b := NewBuilder()
	for i, e := range selected {
		if e == nil {
			return nil, fmt.Errorf("input %d: %w", i, ErrNilEntry)
		}
		b.AddInput(e.Outpoint)
	}
	for i, out := range outputs {
		if out == nil {
			return nil, fmt.Errorf("output %d: %w", i, ErrNilEntry)
		}
		b.AddOutput(out.Amount, out.ScriptPublicKey)
	}
	b.SetPayload(payload)
	return b.Build(), nil
}

// Builder constructs transactions incrementally.
type Builder struct {
	tx *Transaction
}

// NewBuilder creates a new transaction builder for the native subnetwork.
func NewBuilder() *Builder {
	return &Builder{
		tx: &Transaction{Version: TxVersion, SubnetworkID: types.SubnetworkIDNative},
	}
}

// AddInput adds an input referencing a previous output.
func (b *Builder) AddInput(prevOut types.Outpoint) *Builder {
	b.tx.Inputs = append(b.tx.Inputs, &Input{
		PreviousOutpoint: prevOut,
		Sequence:         DefaultSequence,
		SigOpCount:       DefaultSigOpCount,
	})
	return b
}

// AddOutput adds an output with an amount and locking script.
func (b *Builder) AddOutput(amount uint64, spk types.ScriptPublicKey) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, &Output{
		Amount: amount,
		ScriptPublicKey: types.ScriptPublicKey{
			Version: spk.Version,
			Script:  append([]byte(nil), spk.Script...),
		},
	})
	return b
}

// SetPayload sets the transaction payload. The bytes are copied.
func (b *Builder) SetPayload(payload []byte) *Builder {
	if len(payload) == 0 {
		b.tx.Payload = nil
		return b
	}
	b.tx.Payload = append([]byte(nil), payload...)
	return b
}

// Build returns the constructed transaction.
// Does NOT validate; call tx.Validate() separately.
func (b *Builder) Build() *Transaction {
	return b.tx
}
