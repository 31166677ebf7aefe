package types

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestPayToPubKey(t *testing.T) {
	key := testPayload(32, 1)
	spk, err := PayToPubKey(key)
	if err != nil {
		t.Fatalf("PayToPubKey: %v", err)
	}
	if spk.Version != 0 {
		t.Errorf("version = %d, want 0", spk.Version)
	}
	if len(spk.Script) != 34 || spk.Script[0] != OpData32 || spk.Script[33] != OpCheckSig {
		t.Errorf("unexpected script %x", spk.Script)
	}
	if _, err := PayToPubKey(key[:31]); err == nil {
		t.Error("31-byte key should fail")
	}
}

func TestExtractAddress_Standard(t *testing.T) {
	ecdsa, _ := PayToPubKeyECDSA(testPayload(33, 2))
	p2sh, _ := PayToScriptHash(testPayload(32, 4))
	p2pk, _ := PayToPubKey(testPayload(32, 6))

	tests := []struct {
		spk  ScriptPublicKey
		want AddressVersion
	}{
		{p2pk, AddressVersionPubKey},
		{ecdsa, AddressVersionPubKeyECDSA},
		{p2sh, AddressVersionScriptHash},
	}
	for _, tt := range tests {
		a, err := ExtractAddress(tt.spk, PrefixTestnet)
		if err != nil {
			t.Fatalf("ExtractAddress(%s): %v", tt.spk, err)
		}
		if a.Version != tt.want {
			t.Errorf("version = %d, want %d", a.Version, tt.want)
		}
		back, err := a.ScriptPublicKey()
		if err != nil {
			t.Fatal(err)
		}
		if !back.Equal(tt.spk) {
			t.Errorf("script roundtrip = %s, want %s", back, tt.spk)
		}
	}
}

func TestExtractAddress_NonStandard(t *testing.T) {
	cases := []ScriptPublicKey{
		{Version: 0, Script: []byte{0x51}},
		{Version: 1, Script: append(append([]byte{OpData32}, testPayload(32, 0)...), OpCheckSig)},
		{Version: 0, Script: append(append([]byte{OpData32}, testPayload(32, 0)...), OpEqual)},
	}
	for _, spk := range cases {
		if _, err := ExtractAddress(spk, PrefixMainnet); !errors.Is(err, ErrNonStandardScript) {
			t.Errorf("ExtractAddress(%s) error = %v, want ErrNonStandardScript", spk, err)
		}
	}
}

func TestScriptPublicKey_Equal(t *testing.T) {
	a, _ := PayToPubKey(testPayload(32, 1))
	b, _ := PayToPubKey(testPayload(32, 1))
	c, _ := PayToPubKey(testPayload(32, 2))
	if !a.Equal(b) {
		t.Error("identical scripts should be equal")
	}
	if a.Equal(c) {
		t.Error("different scripts should not be equal")
	}
	b.Version = 1
	if a.Equal(b) {
		t.Error("different versions should not be equal")
	}
}

func TestScriptPublicKey_JSON(t *testing.T) {
	spk := ScriptPublicKey{Version: 0, Script: []byte{0x20, 0xab, 0xac}}
	data, err := json.Marshal(spk)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"version":0,"scriptPublicKey":"20abac"}` {
		t.Errorf("Marshal = %s", data)
	}
	var got ScriptPublicKey
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Equal(spk) {
		t.Errorf("got %s, want %s", got, spk)
	}
}

func TestSubnetworkID(t *testing.T) {
	if !SubnetworkIDNative.IsNative() {
		t.Error("native id should be native")
	}
	var s SubnetworkID
	s[19] = 1
	if s.IsNative() {
		t.Error("non-zero id should not be native")
	}
	data, _ := json.Marshal(s)
	var got SubnetworkID
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Errorf("got %s, want %s", got, s)
	}
	if _, err := HexToSubnetworkID("00"); err == nil {
		t.Error("short id should fail")
	}
}
