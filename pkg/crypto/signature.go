package crypto

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Signature and key sizes.
const (
	PrivateKeySize    = 32
	XOnlyPubKeySize   = 32
	CompressedKeySize = 33
	SignatureSize     = 64
)

// ErrInvalidPrivateKey is returned for scalars that are zero or not below
// the curve order.
var ErrInvalidPrivateKey = errors.New("invalid private key")

// Signer signs 32-byte hashes with BIP-340 Schnorr.
type Signer interface {
	// Sign produces a 64-byte Schnorr signature over a 32-byte hash.
	Sign(hash []byte) ([]byte, error)
	// XOnlyPublicKey returns the 32-byte x-only public key.
	XOnlyPublicKey() []byte
}

// PrivateKey wraps a secp256k1 scalar for BIP-340 signing.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a new random secp256k1 private key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte big-endian scalar.
// The scalar must be in [1, n-1].
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeySize {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidPrivateKey, PrivateKeySize, len(b))
	}
	var s secp256k1.ModNScalar
	overflow := s.SetByteSlice(b)
	if overflow {
		s.Zero()
		return nil, fmt.Errorf("%w: scalar not below curve order", ErrInvalidPrivateKey)
	}
	if s.IsZero() {
		return nil, fmt.Errorf("%w: zero scalar", ErrInvalidPrivateKey)
	}
	key := secp256k1.NewPrivateKey(&s)
	s.Zero()
	return &PrivateKey{key: key}, nil
}

// Sign produces a BIP-340 Schnorr signature over a 32-byte hash.
func (pk *PrivateKey) Sign(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}
	sig, err := schnorr.Sign((*btcec.PrivateKey)(pk.key), hash)
	if err != nil {
		return nil, fmt.Errorf("schnorr sign: %w", err)
	}
	return sig.Serialize(), nil
}

// PublicKey returns the compressed 33-byte public key.
func (pk *PrivateKey) PublicKey() []byte {
	return pk.key.PubKey().SerializeCompressed()
}

// XOnlyPublicKey returns the 32-byte x-only public key.
func (pk *PrivateKey) XOnlyPublicKey() []byte {
	return schnorr.SerializePubKey(pk.key.PubKey())
}

// Serialize returns the 32-byte private key scalar.
func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// Zero securely zeroes the private key memory.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}

// String never reveals key material.
func (pk *PrivateKey) String() string {
	return "PrivateKey(redacted)"
}

// VerifySignature checks a BIP-340 signature against a 32-byte hash and an
// x-only public key. Returns false on any error.
func VerifySignature(hash, signature, xonlyPub []byte) bool {
	if len(hash) != 32 {
		return false
	}
	pubKey, err := schnorr.ParsePubKey(xonlyPub)
	if err != nil {
		return false
	}
	sig, err := schnorr.ParseSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(hash, pubKey)
}
