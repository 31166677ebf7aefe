// Package crypto provides the hashing and signing primitives of the
// transaction engine.
package crypto

import (
	"github.com/Klingon-tech/kaschess/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data. It is used for local
// identifiers such as game ids and history keys, never for consensus data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// HashConcat hashes the concatenation of two byte strings.
func HashConcat(a, b []byte) types.Hash {
	h := blake3.New()
	h.Write(a)
	h.Write(b)
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}
