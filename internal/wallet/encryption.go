package wallet

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// SaltSize is the Argon2id salt length.
const SaltSize = 32

// Sealed layout:
//
//	version(1) | salt(32) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | ciphertext
//
// Integers are little-endian. The header is authenticated with the caller's
// associated data.
const (
	encryptionVersion = 1
	headerSize        = 1 + SaltSize + 4 + 4 + 1
)

// ErrDecrypt is returned when the password is wrong or the data was
// tampered with.
var ErrDecrypt = errors.New("wrong password or corrupted data")

// EncryptionParams holds Argon2id parameters.
type EncryptionParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns the parameters new wallets are sealed with.
func DefaultParams() EncryptionParams {
	return EncryptionParams{Memory: 64 * 1024, Iterations: 3, Parallelism: 4}
}

func (p EncryptionParams) valid() error {
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return fmt.Errorf("invalid argon2 parameters %+v", p)
	}
	return nil
}

type sealHeader struct {
	salt   [SaltSize]byte
	params EncryptionParams
}

func (h *sealHeader) appendTo(b []byte) []byte {
	b = append(b, encryptionVersion)
	b = append(b, h.salt[:]...)
	b = binary.LittleEndian.AppendUint32(b, h.params.Memory)
	b = binary.LittleEndian.AppendUint32(b, h.params.Iterations)
	return append(b, h.params.Parallelism)
}

func parseSealHeader(b []byte) (*sealHeader, error) {
	if b[0] != encryptionVersion {
		return nil, fmt.Errorf("unsupported encryption version %d", b[0])
	}
	h := &sealHeader{}
	rest := b[1:]
	copy(h.salt[:], rest[:SaltSize])
	rest = rest[SaltSize:]
	h.params.Memory = binary.LittleEndian.Uint32(rest)
	h.params.Iterations = binary.LittleEndian.Uint32(rest[4:])
	h.params.Parallelism = rest[8]
	if err := h.params.valid(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *sealHeader) cipher(password []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(password, h.salt[:], h.params.Iterations, h.params.Memory, h.params.Parallelism, chacha20poly1305.KeySize)
	defer zeroBytes(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return aead, nil
}

// Encrypt seals data under password with Argon2id and XChaCha20-Poly1305.
// aad is authenticated but not stored; Decrypt must be given the same aad.
func Encrypt(data, password, aad []byte, params EncryptionParams) ([]byte, error) {
	if err := params.valid(); err != nil {
		return nil, err
	}
	h := &sealHeader{params: params}
	if _, err := rand.Read(h.salt[:]); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	aead, err := h.cipher(password)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := h.appendTo(make([]byte, 0, headerSize+len(nonce)+len(data)+chacha20poly1305.Overhead))
	ad := append(out[:headerSize:headerSize], aad...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, data, ad), nil
}

// Decrypt opens data sealed by Encrypt.
func Decrypt(sealed, password, aad []byte) ([]byte, error) {
	minSize := headerSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
	if len(sealed) < minSize {
		return nil, fmt.Errorf("encrypted data too short: %d bytes, need at least %d", len(sealed), minSize)
	}
	h, err := parseSealHeader(sealed[:headerSize])
	if err != nil {
		return nil, err
	}
	aead, err := h.cipher(password)
	if err != nil {
		return nil, err
	}
	nonce := sealed[headerSize : headerSize+chacha20poly1305.NonceSizeX]
	ad := append(append([]byte(nil), sealed[:headerSize]...), aad...)
	plaintext, err := aead.Open(nil, nonce, sealed[headerSize+chacha20poly1305.NonceSizeX:], ad)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
