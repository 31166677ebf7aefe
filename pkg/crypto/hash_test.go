package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/Klingon-tech/kaschess/pkg/types"
	"golang.org/x/crypto/blake2b"
)

func hexToHash(t *testing.T, s string) types.Hash {
	t.Helper()
	h, err := types.HexToHash(s)
	if err != nil {
		t.Fatalf("bad hex: %v", err)
	}
	return h
}

func TestHash(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "empty input",
			input: []byte{},
			want:  "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262",
		},
		{
			name:  "hello",
			input: []byte("hello"),
			want:  "ea8f163db38682925e4491c5e58d4bb3506ef8c14eb78a86e908c5624a67200f",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Hash(tt.input)
			want := hexToHash(t, tt.want)
			if got != want {
				t.Errorf("Hash(%q) = %x, want %x", tt.input, got, want)
			}
		})
	}
}

func TestHashConcat_EqualsManualConcat(t *testing.T) {
	a, b := []byte("left"), []byte("right")
	if HashConcat(a, b) != Hash([]byte("leftright")) {
		t.Error("HashConcat should equal Hash of the concatenation")
	}
}

func keyed(t *testing.T, domain string, data []byte) types.Hash {
	t.Helper()
	h, err := blake2b.New256([]byte(domain))
	if err != nil {
		t.Fatal(err)
	}
	h.Write(data)
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

func TestHashWriter_Fields(t *testing.T) {
	w := NewHashWriter(DomainTransactionSigningHash)
	w.WriteUint8(0x01)
	w.WriteUint16(0x0203)
	w.WriteUint32(0x04050607)
	w.WriteUint64(0x08090a0b0c0d0e0f)
	w.WriteBytes([]byte{0xaa})
	w.WriteVarBytes([]byte{0xbb, 0xcc})
	var h types.Hash
	h[0] = 0xdd
	w.WriteHash(h)

	want := []byte{
		0x01,
		0x03, 0x02,
		0x07, 0x06, 0x05, 0x04,
		0x0f, 0x0e, 0x0d, 0x0c, 0x0b, 0x0a, 0x09, 0x08,
		0xaa,
		0x02, 0xbb, 0xcc,
	}
	want = append(want, h[:]...)

	if got := w.Finalize(); got != keyed(t, DomainTransactionSigningHash, want) {
		t.Errorf("digest = %s, want keyed hash of %x", got, want)
	}
}

func TestHashWriter_DomainSeparation(t *testing.T) {
	a := NewHashWriter(DomainTransactionSigningHash)
	b := NewHashWriter(DomainTransactionID)
	a.WriteUint32(1)
	b.WriteUint32(1)
	if a.Finalize() == b.Finalize() {
		t.Error("different domains should produce different digests")
	}
}

func TestHashWriter_KeyNotData(t *testing.T) {
	// The domain is a key, so it must not equal hashing the domain as data.
	w := NewHashWriter(DomainTransactionID)
	unkeyed := blake2b.Sum256([]byte(DomainTransactionID))
	if w.Finalize() == types.Hash(unkeyed) {
		t.Error("domain was hashed as data")
	}
}

func TestAppendVarInt(t *testing.T) {
	tests := []struct {
		v    uint64
		want string
	}{
		{0, "00"},
		{0xfc, "fc"},
		{0xfd, "fdfd00"},
		{0xffff, "fdffff"},
		{0x10000, "fe00000100"},
		{0xffffffff, "feffffffff"},
		{0x100000000, "ff0000000001000000"},
	}
	for _, tt := range tests {
		got := hex.EncodeToString(AppendVarInt(nil, tt.v))
		if got != tt.want {
			t.Errorf("AppendVarInt(%d) = %s, want %s", tt.v, got, tt.want)
		}
	}
	if !bytes.Equal(AppendVarInt([]byte{0x09}, 1), []byte{0x09, 0x01}) {
		t.Error("AppendVarInt should append to dst")
	}
}
