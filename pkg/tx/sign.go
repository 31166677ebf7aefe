package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/kaschess/pkg/crypto"
	"github.com/Klingon-tech/kaschess/pkg/types"
)

// SignatureScriptSize is the length of a standard Schnorr signature script:
// OP_DATA_65 <sig64 || hashType>.
const SignatureScriptSize = 1 + crypto.SignatureSize + 1

// Signing errors.
var (
	ErrUtxoMismatch       = errors.New("utxo does not belong to signing key")
	ErrSelfVerifyFailed   = errors.New("signature failed local verification")
	ErrEntryCount         = errors.New("utxo entry count does not match inputs")
	ErrBadSignatureScript = errors.New("malformed signature script")
)

// SignInput signs input i with key. spent must be the entry the input
// spends and must be locked to key.
func SignInput(tx *Transaction, i int, key *crypto.PrivateKey, spent *UtxoEntry, reused *SigHashReusedValues) error {
	if i < 0 || i >= len(tx.Inputs) {
		return fmt.Errorf("%w: %d of %d", ErrInputIndex, i, len(tx.Inputs))
	}
	if spent == nil {
		return fmt.Errorf("input %d: %w", i, ErrNilEntry)
	}
	if spent.Outpoint != tx.Inputs[i].PreviousOutpoint {
		return fmt.Errorf("input %d: %w: entry %s, input spends %s",
			i, ErrUtxoMismatch, spent.Outpoint, tx.Inputs[i].PreviousOutpoint)
	}
	xonly := key.XOnlyPublicKey()
	expected, err := types.PayToPubKey(xonly)
	if err != nil {
		return fmt.Errorf("input %d: %w", i, err)
	}
	if !spent.ScriptPublicKey.Equal(expected) {
		return fmt.Errorf("input %d (%s): %w", i, spent.Outpoint, ErrUtxoMismatch)
	}

	digest, err := CalculateSignatureHash(tx, i, spent, SigHashAll, reused)
	if err != nil {
		return fmt.Errorf("input %d: sighash: %w", i, err)
	}
	sig, err := key.Sign(digest[:])
	if err != nil {
		return fmt.Errorf("input %d: %w", i, err)
	}
	if !crypto.VerifySignature(digest[:], sig, xonly) {
		return fmt.Errorf("input %d: %w", i, ErrSelfVerifyFailed)
	}
	tx.Inputs[i].SignatureScript = SignatureScript(sig, SigHashAll)
	return nil
}

// SignAll signs every input of tx in order. entries[i] is the UTXO spent
// by input i.
func SignAll(tx *Transaction, entries []*UtxoEntry, key *crypto.PrivateKey) error {
	if len(entries) != len(tx.Inputs) {
		return fmt.Errorf("%w: %d entries, %d inputs", ErrEntryCount, len(entries), len(tx.Inputs))
	}
	reused := &SigHashReusedValues{}
	for i := range tx.Inputs {
		if err := SignInput(tx, i, key, entries[i], reused); err != nil {
			return err
		}
	}
	return nil
}

// SignatureScript returns OP_DATA_65 <sig || hashType>.
func SignatureScript(sig []byte, hashType SigHashType) []byte {
	script := make([]byte, 0, SignatureScriptSize)
	script = append(script, types.OpData65)
	script = append(script, sig...)
	return append(script, byte(hashType))
}

// ParseSignatureScript splits a standard signature script into the 64-byte
// signature and its hash type.
func ParseSignatureScript(script []byte) ([]byte, SigHashType, error) {
	if len(script) != SignatureScriptSize || script[0] != types.OpData65 {
		return nil, 0, fmt.Errorf("%w: %d bytes", ErrBadSignatureScript, len(script))
	}
	return script[1 : 1+crypto.SignatureSize], SigHashType(script[SignatureScriptSize-1]), nil
}

// VerifyInput checks the signature script of input i against the entry it
// spends. Only Schnorr pay-to-pubkey entries are verifiable.
func VerifyInput(tx *Transaction, i int, spent *UtxoEntry, reused *SigHashReusedValues) error {
	if i < 0 || i >= len(tx.Inputs) {
		return fmt.Errorf("%w: %d of %d", ErrInputIndex, i, len(tx.Inputs))
	}
	if spent == nil {
		return fmt.Errorf("input %d: %w", i, ErrNilEntry)
	}
	sig, hashType, err := ParseSignatureScript(tx.Inputs[i].SignatureScript)
	if err != nil {
		return fmt.Errorf("input %d: %w", i, err)
	}
	addr, err := types.ExtractAddress(spent.ScriptPublicKey, types.PrefixMainnet)
	if err != nil || addr.Version != types.AddressVersionPubKey {
		return fmt.Errorf("input %d: %w", i, types.ErrNonStandardScript)
	}
	digest, err := CalculateSignatureHash(tx, i, spent, hashType, reused)
	if err != nil {
		return fmt.Errorf("input %d: %w", i, err)
	}
	if !crypto.VerifySignature(digest[:], sig, addr.Payload) {
		return fmt.Errorf("input %d: %w", i, ErrInvalidSig)
	}
	return nil
}
