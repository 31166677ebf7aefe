package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/kaschess/pkg/crypto"
	"github.com/Klingon-tech/kaschess/pkg/types"
)

// SigHashType selects which parts of the transaction a signature commits to.
type SigHashType uint8

// SigHashAll commits to every input and output. It is the only type
// supported.
const SigHashAll SigHashType = 0x01

// Signature hash errors.
var (
	ErrUnsupportedSigHashType = errors.New("unsupported sighash type")
	ErrInputIndex             = errors.New("input index out of range")
)

// SigHashReusedValues caches the transaction-wide sub-hashes while the
// inputs of a single transaction are hashed. Do not share between
// transactions.
type SigHashReusedValues struct {
	previousOutpointsHash *types.Hash
	sequencesHash         *types.Hash
	sigOpCountsHash       *types.Hash
	outputsHash           *types.Hash
}

// CalculateSignatureHash returns the digest signed by input inputIndex
// spending the output described by spent. reused may be nil.
func CalculateSignatureHash(tx *Transaction, inputIndex int, spent *UtxoEntry,
	hashType SigHashType, reused *SigHashReusedValues) (types.Hash, error) {

	if hashType != SigHashAll {
		return types.Hash{}, fmt.Errorf("%w: 0x%02x", ErrUnsupportedSigHashType, uint8(hashType))
	}
	if inputIndex < 0 || inputIndex >= len(tx.Inputs) {
		return types.Hash{}, fmt.Errorf("%w: %d of %d", ErrInputIndex, inputIndex, len(tx.Inputs))
	}
	if spent == nil {
		return types.Hash{}, fmt.Errorf("input %d: %w", inputIndex, ErrNilEntry)
	}
	if reused == nil {
		reused = &SigHashReusedValues{}
	}
	in := tx.Inputs[inputIndex]

	w := crypto.NewHashWriter(crypto.DomainTransactionSigningHash)
	w.WriteUint16(tx.Version)
	w.WriteHash(previousOutpointsHash(tx, reused))
	w.WriteHash(sequencesHash(tx, reused))
	w.WriteHash(sigOpCountsHash(tx, reused))
	w.WriteHash(in.PreviousOutpoint.TxID)
	w.WriteUint32(in.PreviousOutpoint.Index)
	w.WriteUint16(spent.ScriptPublicKey.Version)
	w.WriteVarBytes(spent.ScriptPublicKey.Script)
	w.WriteUint64(spent.Amount)
	w.WriteUint64(in.Sequence)
	w.WriteUint8(in.SigOpCount)
	w.WriteHash(outputsHash(tx, reused))
	w.WriteUint64(tx.LockTime)
	w.WriteBytes(tx.SubnetworkID[:])
	w.WriteUint64(tx.Gas)
	w.WriteHash(payloadHash(tx))
	w.WriteUint8(uint8(hashType))
	return w.Finalize(), nil
}

func previousOutpointsHash(tx *Transaction, reused *SigHashReusedValues) types.Hash {
	if reused.previousOutpointsHash == nil {
		w := crypto.NewHashWriter(crypto.DomainTransactionSigningHash)
		for _, in := range tx.Inputs {
			w.WriteHash(in.PreviousOutpoint.TxID)
			w.WriteUint32(in.PreviousOutpoint.Index)
		}
		h := w.Finalize()
		reused.previousOutpointsHash = &h
	}
	return *reused.previousOutpointsHash
}

func sequencesHash(tx *Transaction, reused *SigHashReusedValues) types.Hash {
	if reused.sequencesHash == nil {
		w := crypto.NewHashWriter(crypto.DomainTransactionSigningHash)
		for _, in := range tx.Inputs {
			w.WriteUint64(in.Sequence)
		}
		h := w.Finalize()
		reused.sequencesHash = &h
	}
	return *reused.sequencesHash
}

func sigOpCountsHash(tx *Transaction, reused *SigHashReusedValues) types.Hash {
	if reused.sigOpCountsHash == nil {
		w := crypto.NewHashWriter(crypto.DomainTransactionSigningHash)
		for _, in := range tx.Inputs {
			w.WriteUint8(in.SigOpCount)
		}
		h := w.Finalize()
		reused.sigOpCountsHash = &h
	}
	return *reused.sigOpCountsHash
}

func outputsHash(tx *Transaction, reused *SigHashReusedValues) types.Hash {
	if reused.outputsHash == nil {
		w := crypto.NewHashWriter(crypto.DomainTransactionSigningHash)
		for _, out := range tx.Outputs {
			w.WriteUint64(out.Amount)
			w.WriteUint16(out.ScriptPublicKey.Version)
			w.WriteVarBytes(out.ScriptPublicKey.Script)
		}
		h := w.Finalize()
		reused.outputsHash = &h
	}
	return *reused.outputsHash
}

// payloadHash is all zeros for a native transaction without payload,
// never the hash of an empty payload.
func payloadHash(tx *Transaction) types.Hash {
	if tx.SubnetworkID.IsNative() && len(tx.Payload) == 0 {
		return types.ZeroHash
	}
	w := crypto.NewHashWriter(crypto.DomainTransactionSigningHash)
	w.WriteVarBytes(tx.Payload)
	return w.Finalize()
}
