package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Prefix is the network-specific human-readable part of an address.
type Prefix string

// Known address prefixes.
const (
	PrefixMainnet Prefix = "kaspa"
	PrefixTestnet Prefix = "kaspatest"
	PrefixSimnet  Prefix = "kaspasim"
	PrefixDevnet  Prefix = "kaspadev"
)

// Valid reports whether p is one of the known prefixes.
func (p Prefix) Valid() bool {
	switch p {
	case PrefixMainnet, PrefixTestnet, PrefixSimnet, PrefixDevnet:
		return true
	}
	return false
}

// PrefixForNetwork maps a network name ("mainnet", "testnet", "simnet",
// "devnet") to its address prefix.
func PrefixForNetwork(network string) (Prefix, error) {
	switch network {
	case "mainnet":
		return PrefixMainnet, nil
	case "testnet":
		return PrefixTestnet, nil
	case "simnet":
		return PrefixSimnet, nil
	case "devnet":
		return PrefixDevnet, nil
	}
	return "", fmt.Errorf("%w: network %q", ErrUnknownPrefix, network)
}

// AddressVersion is the leading byte that tags the payload kind.
type AddressVersion byte

// Address versions.
const (
	AddressVersionPubKey      AddressVersion = 0x00
	AddressVersionPubKeyECDSA AddressVersion = 0x01
	AddressVersionScriptHash  AddressVersion = 0x08
)

// PayloadLen returns the payload length required by the version, or 0 for
// an unknown version.
func (v AddressVersion) PayloadLen() int {
	switch v {
	case AddressVersionPubKey, AddressVersionScriptHash:
		return 32
	case AddressVersionPubKeyECDSA:
		return 33
	}
	return 0
}

// Address decoding errors. All of them wrap ErrInvalidAddress.
var (
	ErrInvalidAddress        = errors.New("invalid address")
	ErrUnknownPrefix         = fmt.Errorf("%w: unknown prefix", ErrInvalidAddress)
	ErrInvalidCharacter      = fmt.Errorf("%w: invalid character", ErrInvalidAddress)
	ErrChecksumMismatch      = fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	ErrMissingSeparator      = fmt.Errorf("%w: missing separator", ErrInvalidAddress)
	ErrUnknownAddressVersion = fmt.Errorf("%w: unknown version", ErrInvalidAddress)
	ErrInvalidPayloadLength  = fmt.Errorf("%w: invalid payload length", ErrInvalidAddress)
)

// Address is a decoded address: network prefix, version and payload.
type Address struct {
	Prefix  Prefix
	Version AddressVersion
	Payload []byte
}

// NewAddress validates and copies the parts of an address.
func NewAddress(prefix Prefix, version AddressVersion, payload []byte) (Address, error) {
	if !prefix.Valid() {
		return Address{}, fmt.Errorf("%w: %q", ErrUnknownPrefix, prefix)
	}
	want := version.PayloadLen()
	if want == 0 {
		return Address{}, fmt.Errorf("%w: 0x%02x", ErrUnknownAddressVersion, byte(version))
	}
	if len(payload) != want {
		return Address{}, fmt.Errorf("%w: version 0x%02x needs %d bytes, got %d",
			ErrInvalidPayloadLength, byte(version), want, len(payload))
	}
	p := make([]byte, len(payload))
	copy(p, payload)
	return Address{Prefix: prefix, Version: version, Payload: p}, nil
}

// AddressFromPubKey returns the pay-to-pubkey address of a 32-byte x-only
// Schnorr public key.
func AddressFromPubKey(prefix Prefix, xonly []byte) (Address, error) {
	return NewAddress(prefix, AddressVersionPubKey, xonly)
}

// EncodeAddress encodes the parts of an address to its string form.
func EncodeAddress(prefix Prefix, version AddressVersion, payload []byte) (string, error) {
	a, err := NewAddress(prefix, version, payload)
	if err != nil {
		return "", err
	}
	return a.String(), nil
}

// DecodeAddress parses the string form of an address.
func DecodeAddress(s string) (Address, error) {
	prefix, data, err := cashDecode(s)
	if err != nil {
		return Address{}, err
	}
	if len(data) == 0 {
		return Address{}, fmt.Errorf("%w: empty payload", ErrInvalidPayloadLength)
	}
	return NewAddress(Prefix(prefix), AddressVersion(data[0]), data[1:])
}

// IsZero returns true for the zero Address value.
func (a Address) IsZero() bool {
	return a.Prefix == "" && len(a.Payload) == 0
}

// Equal reports whether two addresses are identical.
func (a Address) Equal(other Address) bool {
	return a.Prefix == other.Prefix && a.Version == other.Version && bytes.Equal(a.Payload, other.Payload)
}

// String returns the encoded address ("kaspa:q...").
func (a Address) String() string {
	if a.IsZero() {
		return ""
	}
	data := make([]byte, 0, 1+len(a.Payload))
	data = append(data, byte(a.Version))
	data = append(data, a.Payload...)
	return cashEncode(string(a.Prefix), data)
}

// ScriptPublicKey returns the standard locking script for the address.
func (a Address) ScriptPublicKey() (ScriptPublicKey, error) {
	switch a.Version {
	case AddressVersionPubKey:
		return PayToPubKey(a.Payload)
	case AddressVersionPubKeyECDSA:
		return PayToPubKeyECDSA(a.Payload)
	case AddressVersionScriptHash:
		return PayToScriptHash(a.Payload)
	}
	return ScriptPublicKey{}, fmt.Errorf("%w: 0x%02x", ErrUnknownAddressVersion, byte(a.Version))
}

// MarshalJSON encodes the address as its string form.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes an address string.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = Address{}
		return nil
	}
	parsed, err := DecodeAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
