package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// Opcodes used by the standard locking scripts.
const (
	OpData32         = 0x20
	OpData33         = 0x21
	OpData65         = 0x41
	OpEqual          = 0x87
	OpBlake2b        = 0xaa
	OpCheckSigECDSA  = 0xab
	OpCheckSig       = 0xac
	ScriptVersion    = 0 // Only script version understood by this engine.
	MaxScriptPubKey  = 10_000
	schnorrP2PKLen   = 1 + 32 + 1
	ecdsaP2PKLen     = 1 + 33 + 1
	scriptHashP2SHLn = 1 + 1 + 32 + 1
)

// ErrNonStandardScript is returned when a locking script does not match a
// standard template.
var ErrNonStandardScript = errors.New("non-standard script public key")

// ScriptPublicKey is the versioned locking script of an output.
type ScriptPublicKey struct {
	Version uint16 `json:"version"`
	Script  []byte `json:"scriptPublicKey"`
}

// scriptPublicKeyJSON is the wire form with hex-encoded script bytes.
type scriptPublicKeyJSON struct {
	Version uint16 `json:"version"`
	Script  string `json:"scriptPublicKey"`
}

// MarshalJSON encodes the script with hex-encoded bytes.
func (s ScriptPublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(scriptPublicKeyJSON{
		Version: s.Version,
		Script:  hex.EncodeToString(s.Script),
	})
}

// UnmarshalJSON decodes a script with hex-encoded bytes.
func (s *ScriptPublicKey) UnmarshalJSON(data []byte) error {
	var j scriptPublicKeyJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	b, err := hex.DecodeString(j.Script)
	if err != nil {
		return fmt.Errorf("script public key: %w", err)
	}
	s.Version = j.Version
	s.Script = b
	return nil
}

// Equal reports whether two scripts have the same version and bytes.
func (s ScriptPublicKey) Equal(other ScriptPublicKey) bool {
	return s.Version == other.Version && bytes.Equal(s.Script, other.Script)
}

// String returns "version:hex".
func (s ScriptPublicKey) String() string {
	return fmt.Sprintf("%d:%s", s.Version, hex.EncodeToString(s.Script))
}

// PayToPubKey returns the Schnorr pay-to-pubkey script for a 32-byte
// x-only public key: OP_DATA_32 <key> OP_CHECKSIG.
func PayToPubKey(xonly []byte) (ScriptPublicKey, error) {
	if len(xonly) != 32 {
		return ScriptPublicKey{}, fmt.Errorf("x-only public key must be 32 bytes, got %d", len(xonly))
	}
	script := make([]byte, 0, schnorrP2PKLen)
	script = append(script, OpData32)
	script = append(script, xonly...)
	script = append(script, OpCheckSig)
	return ScriptPublicKey{Version: ScriptVersion, Script: script}, nil
}

// PayToPubKeyECDSA returns OP_DATA_33 <compressed key> OP_CHECKSIGECDSA.
func PayToPubKeyECDSA(compressed []byte) (ScriptPublicKey, error) {
	if len(compressed) != 33 {
		return ScriptPublicKey{}, fmt.Errorf("compressed public key must be 33 bytes, got %d", len(compressed))
	}
	script := make([]byte, 0, ecdsaP2PKLen)
	script = append(script, OpData33)
	script = append(script, compressed...)
	script = append(script, OpCheckSigECDSA)
	return ScriptPublicKey{Version: ScriptVersion, Script: script}, nil
}

// PayToScriptHash returns OP_BLAKE2B OP_DATA_32 <hash> OP_EQUAL.
func PayToScriptHash(scriptHash []byte) (ScriptPublicKey, error) {
	if len(scriptHash) != 32 {
		return ScriptPublicKey{}, fmt.Errorf("script hash must be 32 bytes, got %d", len(scriptHash))
	}
	script := make([]byte, 0, scriptHashP2SHLn)
	script = append(script, OpBlake2b, OpData32)
	script = append(script, scriptHash...)
	script = append(script, OpEqual)
	return ScriptPublicKey{Version: ScriptVersion, Script: script}, nil
}

// ExtractAddress maps a standard locking script back to the address that
// owns it.
func ExtractAddress(spk ScriptPublicKey, prefix Prefix) (Address, error) {
	if spk.Version != ScriptVersion {
		return Address{}, fmt.Errorf("%w: script version %d", ErrNonStandardScript, spk.Version)
	}
	s := spk.Script
	switch {
	case len(s) == schnorrP2PKLen && s[0] == OpData32 && s[33] == OpCheckSig:
		return NewAddress(prefix, AddressVersionPubKey, s[1:33])
	case len(s) == ecdsaP2PKLen && s[0] == OpData33 && s[34] == OpCheckSigECDSA:
		return NewAddress(prefix, AddressVersionPubKeyECDSA, s[1:34])
	case len(s) == scriptHashP2SHLn && s[0] == OpBlake2b && s[1] == OpData32 && s[34] == OpEqual:
		return NewAddress(prefix, AddressVersionScriptHash, s[2:34])
	default:
		return Address{}, ErrNonStandardScript
	}
}
