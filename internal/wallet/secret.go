package wallet

import (
	"fmt"
	"io"

	"github.com/Klingon-tech/kaschess/pkg/types"
)

// SecretKind tags what a stored secret holds.
type SecretKind string

// Secret kinds.
const (
	SecretMnemonic SecretKind = "mnemonic"
	SecretRawKey   SecretKind = "raw-key"
)

// Secret is decrypted key material. Callers must Zero it after use.
type Secret struct {
	Kind SecretKind
	Data []byte
}

// KeyPair derives the signing key held by the secret.
func (s *Secret) KeyPair(prefix types.Prefix) (*KeyPair, error) {
	switch s.Kind {
	case SecretMnemonic:
		return FromMnemonic(string(s.Data), "", prefix)
	case SecretRawKey:
		return FromRawKey(string(s.Data), prefix)
	}
	return nil, fmt.Errorf("%w: unknown secret kind %q", ErrInvalidKey, s.Kind)
}

// Zero clears the secret bytes.
func (s *Secret) Zero() {
	zeroBytes(s.Data)
}

// Backup is the user-facing recovery material of a wallet. It is shown
// once and never written to disk in clear form.
type Backup struct {
	Mnemonic      string
	PrivateKeyHex string
	Address       string
}

// ExportBackup renders the recovery material held by s.
func ExportBackup(s *Secret, prefix types.Prefix) (*Backup, error) {
	kp, err := s.KeyPair(prefix)
	if err != nil {
		return nil, err
	}
	defer kp.Zero()

	b := &Backup{PrivateKeyHex: kp.PrivateKeyHex(), Address: kp.Address().String()}
	if s.Kind == SecretMnemonic {
		b.Mnemonic = string(s.Data)
	}
	return b, nil
}

// WriteTo prints the backup for the user.
func (b *Backup) WriteTo(w io.Writer) (int64, error) {
	var n int
	var err error
	write := func(format string, args ...any) {
		if err != nil {
			return
		}
		var m int
		m, err = fmt.Fprintf(w, format, args...)
		n += m
	}
	write("Address:     %s\n", b.Address)
	if b.Mnemonic != "" {
		write("Mnemonic:    %s\n", b.Mnemonic)
	}
	write("Private key: %s\n", b.PrivateKeyHex)
	write("Write these down and store them offline. They will not be shown again.\n")
	return int64(n), err
}
