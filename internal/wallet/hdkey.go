package wallet

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/kaschess/pkg/crypto"
	"github.com/Klingon-tech/kaschess/pkg/types"
	"github.com/tyler-smith/go-bip32"
)

const (
	purposeBIP44  = bip32.FirstHardenedChild + 44
	coinTypeKaspa = bip32.FirstHardenedChild + 111111 // SLIP-44
)

// Change branches of a BIP-44 path.
const (
	ChangeExternal = 0
	ChangeInternal = 1
)

// ErrPublicOnly is returned when a private key is needed from a neutered key.
var ErrPublicOnly = errors.New("hd key has no private part")

// Path is a BIP-44 location under the Kaspa coin type:
// m/44'/111111'/account'/change/index.
type Path struct {
	Account uint32
	Change  uint32
	Index   uint32
}

// DefaultPath is the key a mnemonic wallet signs with.
var DefaultPath = Path{Account: 0, Change: ChangeExternal, Index: 0}

func (p Path) String() string {
	return fmt.Sprintf("m/44'/111111'/%d'/%d/%d", p.Account, p.Change, p.Index)
}

// HDKey is a BIP-32 extended key.
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey creates a master key from a 64-byte seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// Child derives one level down. Add bip32.FirstHardenedChild for a
// hardened child.
func (k *HDKey) Child(index uint32) (*HDKey, error) {
	child, err := k.key.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("derive child %d: %w", index, err)
	}
	return &HDKey{key: child}, nil
}

// Derive walks p from a master key.
func (k *HDKey) Derive(p Path) (*HDKey, error) {
	cur := k
	for _, idx := range []uint32{purposeBIP44, coinTypeKaspa, bip32.FirstHardenedChild + p.Account, p.Change, p.Index} {
		next, err := cur.Child(idx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		cur = next
	}
	return cur, nil
}

// PrivateKey returns the BIP-340 signing key.
func (k *HDKey) PrivateKey() (*crypto.PrivateKey, error) {
	if !k.key.IsPrivate {
		return nil, ErrPublicOnly
	}
	raw := k.key.Key
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}
	return crypto.PrivateKeyFromBytes(raw)
}

// XOnlyPublicKey returns the 32-byte x coordinate of the public key.
func (k *HDKey) XOnlyPublicKey() []byte {
	return k.key.PublicKey().Key[1:]
}

// Address returns the pay-to-pubkey address of the key.
func (k *HDKey) Address(prefix types.Prefix) (types.Address, error) {
	return types.AddressFromPubKey(prefix, k.XOnlyPublicKey())
}

// Depth is 0 for a master key.
func (k *HDKey) Depth() uint8 { return k.key.Depth }

// Public returns a copy without the private part.
func (k *HDKey) Public() *HDKey {
	return &HDKey{key: k.key.PublicKey()}
}
