// Package types defines the primitive value types shared by the transaction
// engine: hashes, outpoints, locking scripts, subnetwork ids and addresses.
package types

import (
	"encoding/hex"
	"fmt"
)

// HashSize is the length of a hash in bytes.
const HashSize = 32

// Hash is a 256-bit digest: a transaction id or a signature hash. It
// travels as 64 lowercase hex characters.
type Hash [HashSize]byte

// ZeroHash is the all-zero hash.
var ZeroHash Hash

// IsZero reports whether h is all zeros.
func (h Hash) IsZero() bool { return h == ZeroHash }

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	out := make([]byte, 2*HashSize)
	hex.Encode(out, h[:])
	return out, nil
}

// UnmarshalText accepts 64 hex characters. Empty text yields the zero hash.
func (h *Hash) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*h = ZeroHash
		return nil
	}
	parsed, err := HexToHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HexToHash parses 64 hex characters.
func HexToHash(s string) (Hash, error) {
	var h Hash
	if len(s) != 2*HashSize {
		return h, fmt.Errorf("hash must be %d hex characters, got %d", 2*HashSize, len(s))
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return ZeroHash, fmt.Errorf("invalid hash hex: %w", err)
	}
	return h, nil
}
