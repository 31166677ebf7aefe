package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Keystore errors.
var (
	ErrWalletExists   = errors.New("wallet already exists")
	ErrWalletNotFound = errors.New("wallet not found")
	ErrWalletName     = errors.New("invalid wallet name")
)

const (
	keystoreVersion = 2
	walletExt       = ".wallet"
)

var walletNameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// keystoreFile is the on-disk JSON format for an encrypted wallet.
type keystoreFile struct {
	Version         int        `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	Kind            SecretKind `json:"kind"`
	Address         string     `json:"address"`
	EncryptedSecret []byte     `json:"encrypted_secret"`
}

// WalletInfo is the public metadata of a stored wallet.
type WalletInfo struct {
	Name      string
	Kind      SecretKind
	Address   string
	CreatedAt time.Time
}

// Keystore manages encrypted key storage on disk.
type Keystore struct {
	path string
}

// NewKeystore creates a keystore that reads/writes to the given directory.
// The directory is created if it doesn't exist.
func NewKeystore(path string) (*Keystore, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{path: path}, nil
}

func (ks *Keystore) walletPath(name string) (string, error) {
	if !walletNameRe.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrWalletName, name)
	}
	return filepath.Join(ks.path, name+walletExt), nil
}

// Create encrypts secret under password and writes a new wallet file.
// address is stored in clear so the wallet can be listed without a password.
func (ks *Keystore) Create(name string, secret *Secret, address string, password []byte, params EncryptionParams) error {
	path, err := ks.walletPath(name)
	if err != nil {
		return err
	}
	sealed, err := Encrypt(secret.Data, password, []byte(secret.Kind), params)
	if err != nil {
		return fmt.Errorf("encrypt secret: %w", err)
	}
	data, err := json.MarshalIndent(&keystoreFile{
		Version:         keystoreVersion,
		CreatedAt:       time.Now().UTC(),
		Kind:            secret.Kind,
		Address:         address,
		EncryptedSecret: sealed,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}

	// O_EXCL so two creates of one name cannot both succeed.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %q", ErrWalletExists, name)
	}
	if err != nil {
		return fmt.Errorf("create wallet: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write wallet: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("write wallet: %w", err)
	}
	return nil
}

// Load decrypts a wallet and returns its secret.
func (ks *Keystore) Load(name string, password []byte) (*Secret, error) {
	kf, err := ks.open(name)
	if err != nil {
		return nil, err
	}
	data, err := Decrypt(kf.EncryptedSecret, password, []byte(kf.Kind))
	if err != nil {
		return nil, fmt.Errorf("decrypt wallet %q: %w", name, err)
	}
	return &Secret{Kind: kf.Kind, Data: data}, nil
}

// Info returns the public metadata of a wallet.
func (ks *Keystore) Info(name string) (*WalletInfo, error) {
	kf, err := ks.open(name)
	if err != nil {
		return nil, err
	}
	return &WalletInfo{Name: name, Kind: kf.Kind, Address: kf.Address, CreatedAt: kf.CreatedAt}, nil
}

// List returns the wallet names in the keystore, sorted.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.path)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), walletExt); ok && !e.IsDir() && walletNameRe.MatchString(name) {
			names = append(names, name)
		}
	}
	return names, nil
}

// Delete removes a wallet file.
func (ks *Keystore) Delete(name string) error {
	path, err := ks.walletPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	} else if err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	return nil
}

func (ks *Keystore) open(name string) (*keystoreFile, error) {
	path, err := ks.walletPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	var kf keystoreFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse wallet %q: %w", name, err)
	}
	if kf.Version != keystoreVersion {
		return nil, fmt.Errorf("wallet %q: unsupported version %d", name, kf.Version)
	}
	return &kf, nil
}
