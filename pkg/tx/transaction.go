// Package tx defines transaction types, construction, signature hashing,
// signing and validation.
package tx

import (
	"fmt"
	"math"

	"github.com/Klingon-tech/kaschess/pkg/crypto"
	"github.com/Klingon-tech/kaschess/pkg/types"
)

// Transaction represents an unsigned or signed transaction.
type Transaction struct {
	Version      uint16
	Inputs       []*Input
	Outputs      []*Output
	LockTime     uint64
	SubnetworkID types.SubnetworkID
	Gas          uint64
	Payload      []byte
}

// Input references a UTXO being spent.
type Input struct {
	PreviousOutpoint types.Outpoint
	SignatureScript  []byte
	Sequence         uint64
	SigOpCount       uint8
}

// Output defines a new UTXO.
type Output struct {
	Amount          uint64
	ScriptPublicKey types.ScriptPublicKey
}

// UtxoEntry is a spendable output as reported by a UTXO source.
type UtxoEntry struct {
	Outpoint        types.Outpoint
	Amount          uint64
	ScriptPublicKey types.ScriptPublicKey
	BlockDAAScore   uint64
	IsCoinbase      bool
}

// ID computes the transaction id: a keyed hash over the transaction with
// signature scripts excluded, so it is stable across signing.
func (tx *Transaction) ID() types.Hash {
	w := crypto.NewHashWriter(crypto.DomainTransactionID)
	w.WriteUint16(tx.Version)
	w.WriteUint64(uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		w.WriteHash(in.PreviousOutpoint.TxID)
		w.WriteUint32(in.PreviousOutpoint.Index)
		w.WriteVarBytes(nil)
		w.WriteUint64(in.Sequence)
	}
	w.WriteUint64(uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		w.WriteUint64(out.Amount)
		w.WriteUint16(out.ScriptPublicKey.Version)
		w.WriteVarBytes(out.ScriptPublicKey.Script)
	}
	w.WriteUint64(tx.LockTime)
	w.WriteBytes(tx.SubnetworkID[:])
	w.WriteUint64(tx.Gas)
	w.WriteVarBytes(tx.Payload)
	return w.Finalize()
}

// Clone returns a deep copy of the transaction.
func (tx *Transaction) Clone() *Transaction {
	c := &Transaction{
		Version:      tx.Version,
		Inputs:       make([]*Input, len(tx.Inputs)),
		Outputs:      make([]*Output, len(tx.Outputs)),
		LockTime:     tx.LockTime,
		SubnetworkID: tx.SubnetworkID,
		Gas:          tx.Gas,
		Payload:      append([]byte(nil), tx.Payload...),
	}
	for i, in := range tx.Inputs {
		cp := *in
		cp.SignatureScript = append([]byte(nil), in.SignatureScript...)
		c.Inputs[i] = &cp
	}
	for i, out := range tx.Outputs {
		cp := *out
		cp.ScriptPublicKey.Script = append([]byte(nil), out.ScriptPublicKey.Script...)
		c.Outputs[i] = &cp
	}
	return c
}

// TotalOutputValue returns the sum of all output amounts.
// Returns an error if the sum overflows uint64.
func (tx *Transaction) TotalOutputValue() (uint64, error) {
	var total uint64
	for _, out := range tx.Outputs {
		if total > math.MaxUint64-out.Amount {
			return 0, ErrOutputOverflow
		}
		total += out.Amount
	}
	return total, nil
}

// SumEntries returns the total amount of the entries.
func SumEntries(entries []*UtxoEntry) (uint64, error) {
	var total uint64
	for _, e := range entries {
		if total > math.MaxUint64-e.Amount {
			return 0, fmt.Errorf("%w: utxo amounts", ErrInputOverflow)
		}
		total += e.Amount
	}
	return total, nil
}
