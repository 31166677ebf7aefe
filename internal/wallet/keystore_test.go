package wallet

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testKeystore(t *testing.T) *Keystore {
	t.Helper()
	dir := t.TempDir()
	ks, err := NewKeystore(dir)
	if err != nil {
		t.Fatalf("NewKeystore() error: %v", err)
	}
	return ks
}

func mnemonicSecret() *Secret {
	return &Secret{Kind: SecretMnemonic, Data: []byte(testMnemonic)}
}

func TestKeystore_CreateLoad(t *testing.T) {
	ks := testKeystore(t)
	pw := []byte("hunter2")

	if err := ks.Create("main", mnemonicSecret(), "kaspatest:qexample", pw, fastParams()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	secret, err := ks.Load("main", pw)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if secret.Kind != SecretMnemonic {
		t.Errorf("kind = %q, want %q", secret.Kind, SecretMnemonic)
	}
	if string(secret.Data) != testMnemonic {
		t.Errorf("data = %q", secret.Data)
	}
}

func TestKeystore_WrongPassword(t *testing.T) {
	ks := testKeystore(t)
	if err := ks.Create("main", mnemonicSecret(), "addr", []byte("right"), fastParams()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := ks.Load("main", []byte("wrong")); !errors.Is(err, ErrDecrypt) {
		t.Errorf("error = %v, want ErrDecrypt", err)
	}
}

func TestKeystore_Exists(t *testing.T) {
	ks := testKeystore(t)
	if err := ks.Create("main", mnemonicSecret(), "addr", []byte("pw"), fastParams()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := ks.Create("main", mnemonicSecret(), "addr", []byte("pw"), fastParams())
	if !errors.Is(err, ErrWalletExists) {
		t.Errorf("error = %v, want ErrWalletExists", err)
	}
}

func TestKeystore_NotFound(t *testing.T) {
	ks := testKeystore(t)
	if _, err := ks.Load("missing", []byte("pw")); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("Load error = %v, want ErrWalletNotFound", err)
	}
	if _, err := ks.Info("missing"); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("Info error = %v, want ErrWalletNotFound", err)
	}
	if err := ks.Delete("missing"); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("Delete error = %v, want ErrWalletNotFound", err)
	}
}

func TestKeystore_BadName(t *testing.T) {
	ks := testKeystore(t)
	for _, name := range []string{"", "../escape", "a/b", "with space"} {
		err := ks.Create(name, mnemonicSecret(), "addr", []byte("pw"), fastParams())
		if !errors.Is(err, ErrWalletName) {
			t.Errorf("Create(%q) error = %v, want ErrWalletName", name, err)
		}
	}
}

func TestKeystore_Info(t *testing.T) {
	ks := testKeystore(t)
	secret := &Secret{Kind: SecretRawKey, Data: []byte("0000000000000000000000000000000000000000000000000000000000000001")}
	if err := ks.Create("raw", secret, "kaspatest:qraw", []byte("pw"), fastParams()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	info, err := ks.Info("raw")
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Name != "raw" || info.Kind != SecretRawKey || info.Address != "kaspatest:qraw" {
		t.Errorf("info = %+v", info)
	}
	if info.CreatedAt.IsZero() {
		t.Error("created_at should be set")
	}
}

func TestKeystore_ListDelete(t *testing.T) {
	ks := testKeystore(t)
	for _, name := range []string{"b", "a"} {
		if err := ks.Create(name, mnemonicSecret(), "addr", []byte("pw"), fastParams()); err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
	}
	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(ks.path, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	names, err := ks.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("names = %v, want [a b]", names)
	}

	if err := ks.Delete("a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	names, _ = ks.List()
	if len(names) != 1 || names[0] != "b" {
		t.Errorf("names after delete = %v, want [b]", names)
	}
}

func TestKeystore_BadVersion(t *testing.T) {
	ks := testKeystore(t)
	os.WriteFile(filepath.Join(ks.path, "old.wallet"), []byte(`{"version":1}`), 0600)
	if _, err := ks.Info("old"); err == nil || !strings.Contains(err.Error(), "version 1") {
		t.Errorf("err = %v, want unsupported version", err)
	}
}

func TestKeystore_FilePermissions(t *testing.T) {
	ks := testKeystore(t)
	if err := ks.Create("main", mnemonicSecret(), "addr", []byte("pw"), fastParams()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	fi, err := os.Stat(filepath.Join(ks.path, "main.wallet"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := fi.Mode().Perm(); perm != 0600 {
		t.Errorf("perm = %o, want 600", perm)
	}
}

func TestKeystore_KindIsAuthenticated(t *testing.T) {
	ks := testKeystore(t)
	if err := ks.Create("main", mnemonicSecret(), "addr", []byte("pw"), fastParams()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	path := filepath.Join(ks.path, "main.wallet")
	kf, err := ks.open("main")
	if err != nil {
		t.Fatal(err)
	}
	kf.Kind = SecretRawKey
	data, _ := json.Marshal(kf)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := ks.Load("main", []byte("pw")); !errors.Is(err, ErrDecrypt) {
		t.Errorf("error = %v, want ErrDecrypt after kind swap", err)
	}
}
