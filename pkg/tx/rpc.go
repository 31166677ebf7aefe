package tx

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/Klingon-tech/kaschess/pkg/types"
)

// ErrMalformedRPC is returned when a wire form cannot be converted.
var ErrMalformedRPC = errors.New("malformed rpc transaction")

// RPCTransaction is the JSON wire form submitted to a node. Integers that
// may exceed 53 bits are strings.
type RPCTransaction struct {
	Version      uint16                  `json:"version"`
	Inputs       []*RPCTransactionInput  `json:"inputs"`
	Outputs      []*RPCTransactionOutput `json:"outputs"`
	LockTime     string                  `json:"lockTime"`
	SubnetworkID string                  `json:"subnetworkId"`
	Gas          string                  `json:"gas"`
	Payload      string                  `json:"payload"`
}

// RPCTransactionInput is the wire form of an Input.
type RPCTransactionInput struct {
	PreviousOutpoint types.Outpoint `json:"previousOutpoint"`
	SignatureScript  string         `json:"signatureScript"`
	Sequence         string         `json:"sequence"`
	SigOpCount       uint8          `json:"sigOpCount"`
}

// RPCTransactionOutput is the wire form of an Output.
type RPCTransactionOutput struct {
	Amount          string                `json:"amount"`
	ScriptPublicKey types.ScriptPublicKey `json:"scriptPublicKey"`
}

// RPCUtxoEntry is the wire form of a UTXO as listed by address.
type RPCUtxoEntry struct {
	Address   string           `json:"address,omitempty"`
	Outpoint  types.Outpoint   `json:"outpoint"`
	UtxoEntry RPCUtxoEntryBody `json:"utxoEntry"`
}

// RPCUtxoEntryBody carries the amount and script of an RPCUtxoEntry.
type RPCUtxoEntryBody struct {
	Amount          string                `json:"amount"`
	ScriptPublicKey types.ScriptPublicKey `json:"scriptPublicKey"`
	BlockDAAScore   string                `json:"blockDaaScore"`
	IsCoinbase      bool                  `json:"isCoinbase"`
}

// ToRPC converts a transaction to its wire form.
func ToRPC(tx *Transaction) *RPCTransaction {
	r := &RPCTransaction{
		Version:      tx.Version,
		Inputs:       make([]*RPCTransactionInput, len(tx.Inputs)),
		Outputs:      make([]*RPCTransactionOutput, len(tx.Outputs)),
		LockTime:     strconv.FormatUint(tx.LockTime, 10),
		SubnetworkID: tx.SubnetworkID.String(),
		Gas:          strconv.FormatUint(tx.Gas, 10),
		Payload:      hex.EncodeToString(tx.Payload),
	}
	for i, in := range tx.Inputs {
		r.Inputs[i] = &RPCTransactionInput{
			PreviousOutpoint: in.PreviousOutpoint,
			SignatureScript:  hex.EncodeToString(in.SignatureScript),
			Sequence:         strconv.FormatUint(in.Sequence, 10),
			SigOpCount:       in.SigOpCount,
		}
	}
	for i, out := range tx.Outputs {
		r.Outputs[i] = &RPCTransactionOutput{
			Amount:          strconv.FormatUint(out.Amount, 10),
			ScriptPublicKey: out.ScriptPublicKey,
		}
	}
	return r
}

// FromRPC converts a wire-form transaction back to a Transaction.
func FromRPC(r *RPCTransaction) (*Transaction, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil", ErrMalformedRPC)
	}
	lockTime, err := parseUint(r.LockTime, "lockTime")
	if err != nil {
		return nil, err
	}
	gas, err := parseUint(r.Gas, "gas")
	if err != nil {
		return nil, err
	}
	subnet, err := types.HexToSubnetworkID(r.SubnetworkID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRPC, err)
	}
	payload, err := hex.DecodeString(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrMalformedRPC, err)
	}
	if len(payload) == 0 {
		payload = nil
	}

	tx := &Transaction{
		Version:      r.Version,
		Inputs:       make([]*Input, len(r.Inputs)),
		Outputs:      make([]*Output, len(r.Outputs)),
		LockTime:     lockTime,
		SubnetworkID: subnet,
		Gas:          gas,
		Payload:      payload,
	}
	for i, in := range r.Inputs {
		if in == nil {
			return nil, fmt.Errorf("%w: input %d is null", ErrMalformedRPC, i)
		}
		sigScript, err := hex.DecodeString(in.SignatureScript)
		if err != nil {
			return nil, fmt.Errorf("%w: input %d signature script: %v", ErrMalformedRPC, i, err)
		}
		if len(sigScript) == 0 {
			sigScript = nil
		}
		seq, err := parseUint(in.Sequence, "sequence")
		if err != nil {
			return nil, err
		}
		tx.Inputs[i] = &Input{
			PreviousOutpoint: in.PreviousOutpoint,
			SignatureScript:  sigScript,
			Sequence:         seq,
			SigOpCount:       in.SigOpCount,
		}
	}
	for i, out := range r.Outputs {
		if out == nil {
			return nil, fmt.Errorf("%w: output %d is null", ErrMalformedRPC, i)
		}
		amount, err := parseUint(out.Amount, "amount")
		if err != nil {
			return nil, err
		}
		tx.Outputs[i] = &Output{Amount: amount, ScriptPublicKey: out.ScriptPublicKey}
	}
	return tx, nil
}

// ToRPC converts a UTXO entry to its wire form.
func (e *UtxoEntry) ToRPC(address string) *RPCUtxoEntry {
	return &RPCUtxoEntry{
		Address:  address,
		Outpoint: e.Outpoint,
		UtxoEntry: RPCUtxoEntryBody{
			Amount:          strconv.FormatUint(e.Amount, 10),
			ScriptPublicKey: e.ScriptPublicKey,
			BlockDAAScore:   strconv.FormatUint(e.BlockDAAScore, 10),
			IsCoinbase:      e.IsCoinbase,
		},
	}
}

// UtxoEntryFromRPC converts and checks a wire-form UTXO entry.
func UtxoEntryFromRPC(r *RPCUtxoEntry) (*UtxoEntry, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil utxo entry", ErrMalformedRPC)
	}
	amount, err := parseUint(r.UtxoEntry.Amount, "amount")
	if err != nil {
		return nil, err
	}
	var daa uint64
	if r.UtxoEntry.BlockDAAScore != "" {
		daa, err = parseUint(r.UtxoEntry.BlockDAAScore, "blockDaaScore")
		if err != nil {
			return nil, err
		}
	}
	if len(r.UtxoEntry.ScriptPublicKey.Script) == 0 {
		return nil, fmt.Errorf("%w: utxo %s has empty script", ErrMalformedRPC, r.Outpoint)
	}
	return &UtxoEntry{
		Outpoint:        r.Outpoint,
		Amount:          amount,
		ScriptPublicKey: r.UtxoEntry.ScriptPublicKey,
		BlockDAAScore:   daa,
		IsCoinbase:      r.UtxoEntry.IsCoinbase,
	}, nil
}

func parseUint(s, field string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrMalformedRPC, field, s)
	}
	return v, nil
}
