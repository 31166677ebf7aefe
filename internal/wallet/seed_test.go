package wallet

import (
	"bytes"
	"encoding/hex"
	"testing"
)

const abandonAbout = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestSeedFromMnemonic_Vectors(t *testing.T) {
	// BIP-39 reference vectors, passphrase "TREZOR".
	tests := []struct {
		mnemonic string
		seed     string
	}{
		{
			abandonAbout,
			"c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04",
		},
		{
			"legal winner thank year wave sausage worth useful legal winner thank yellow",
			"2e8905819b8723fe2c1d161860e5ee1830318dbf49a83bd451cfb8440c28bd6fa457fe1296106559a3c80937a1c1069be3a3a5bd381ee6260e8d9739fce1f607",
		},
	}
	for _, tt := range tests {
		seed, err := SeedFromMnemonic(tt.mnemonic, "TREZOR")
		if err != nil {
			t.Fatalf("SeedFromMnemonic(%q): %v", tt.mnemonic, err)
		}
		if got := hex.EncodeToString(seed); got != tt.seed {
			t.Errorf("seed(%q) = %s, want %s", tt.mnemonic, got, tt.seed)
		}
	}
}

func TestSeedFromMnemonic_Whitespace(t *testing.T) {
	want, _ := SeedFromMnemonic(abandonAbout, "")
	messy := "  abandon abandon\tabandon abandon abandon abandon\nabandon abandon abandon abandon abandon   about \n"
	got, err := SeedFromMnemonic(messy, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Error("extra whitespace should not change the seed")
	}
}

func TestSeedFromMnemonic_Passphrase(t *testing.T) {
	plain, _ := SeedFromMnemonic(abandonAbout, "")
	salted, _ := SeedFromMnemonic(abandonAbout, "kaschess")
	if len(plain) != SeedSize || len(salted) != SeedSize {
		t.Fatalf("seed sizes = %d, %d, want %d", len(plain), len(salted), SeedSize)
	}
	if bytes.Equal(plain, salted) {
		t.Error("passphrase should change the seed")
	}
}

func TestSeedFromMnemonic_Invalid(t *testing.T) {
	for _, m := range []string{
		"",
		"abandon abandon abandon",
		"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon", // bad checksum
		"notaword abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
	} {
		if _, err := SeedFromMnemonic(m, ""); err == nil {
			t.Errorf("SeedFromMnemonic(%q) should fail", m)
		}
	}
}
