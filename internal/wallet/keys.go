package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/Klingon-tech/kaschess/pkg/crypto"
	"github.com/Klingon-tech/kaschess/pkg/types"
)

// Key errors. All of them wrap ErrInvalidKey.
var (
	ErrInvalidKey          = errors.New("invalid key")
	ErrMnemonicWordCount   = fmt.Errorf("%w: mnemonic must have 12, 15, 18, 21 or 24 words", ErrInvalidKey)
	ErrMnemonicUnknownWord = fmt.Errorf("%w: mnemonic word not in wordlist", ErrInvalidKey)
	ErrMnemonicChecksum    = fmt.Errorf("%w: mnemonic checksum mismatch", ErrInvalidKey)
	ErrKeyLength           = fmt.Errorf("%w: private key must be 64 hex characters", ErrInvalidKey)
	ErrKeyEncoding         = fmt.Errorf("%w: private key is not hex", ErrInvalidKey)
	ErrKeyRange            = fmt.Errorf("%w: private key out of range", ErrInvalidKey)
)

// KeyPair is a signing key with its address on one network.
type KeyPair struct {
	key     *crypto.PrivateKey
	address types.Address
	spk     types.ScriptPublicKey
}

// FromMnemonic derives the key at m/44'/111111'/0'/0/0 from a BIP-39
// phrase and optional passphrase.
func FromMnemonic(phrase, passphrase string, prefix types.Prefix) (*KeyPair, error) {
	seed, err := SeedFromMnemonic(phrase, passphrase)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(seed)

	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	leaf, err := master.Derive(DefaultPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	key, err := leaf.PrivateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyRange, err)
	}
	return newKeyPair(key, prefix)
}

// FromRawKey parses a 32-byte hex private key. Surrounding whitespace and
// a 0x prefix are accepted.
func FromRawKey(s string, prefix types.Prefix) (*KeyPair, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*crypto.PrivateKeySize {
		return nil, fmt.Errorf("%w: got %d", ErrKeyLength, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, ErrKeyEncoding
	}
	defer zeroBytes(raw)

	key, err := crypto.PrivateKeyFromBytes(raw)
	if err != nil {
		return nil, ErrKeyRange
	}
	return newKeyPair(key, prefix)
}

func newKeyPair(key *crypto.PrivateKey, prefix types.Prefix) (*KeyPair, error) {
	xonly := key.XOnlyPublicKey()
	addr, err := types.AddressFromPubKey(prefix, xonly)
	if err != nil {
		key.Zero()
		return nil, err
	}
	spk, err := types.PayToPubKey(xonly)
	if err != nil {
		key.Zero()
		return nil, err
	}
	return &KeyPair{key: key, address: addr, spk: spk}, nil
}

// Address returns the pay-to-pubkey address.
func (kp *KeyPair) Address() types.Address { return kp.address }

// XOnlyPublicKey returns the 32-byte x-only public key.
func (kp *KeyPair) XOnlyPublicKey() []byte { return kp.key.XOnlyPublicKey() }

// ScriptPublicKey returns the locking script of the address.
func (kp *KeyPair) ScriptPublicKey() types.ScriptPublicKey { return kp.spk }

// Signer returns the signing key.
func (kp *KeyPair) Signer() *crypto.PrivateKey { return kp.key }

// PrivateKeyHex returns the hex private key for backup export only.
func (kp *KeyPair) PrivateKeyHex() string { return hex.EncodeToString(kp.key.Serialize()) }

// Zero clears the private scalar. The KeyPair must not sign afterwards.
func (kp *KeyPair) Zero() { kp.key.Zero() }

// String prints the address only.
func (kp *KeyPair) String() string {
	return fmt.Sprintf("KeyPair(%s)", kp.address)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
