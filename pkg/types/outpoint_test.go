package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestOutpoint_IsZero(t *testing.T) {
	tests := []struct {
		op   Outpoint
		want bool
	}{
		{Outpoint{}, true},
		{Outpoint{TxID: Hash{0x01}}, false},
		{Outpoint{Index: 1}, false},
	}
	for _, tt := range tests {
		if got := tt.op.IsZero(); got != tt.want {
			t.Errorf("%s IsZero = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestOutpoint_StringParse(t *testing.T) {
	txid, _ := HexToHash(txIDHex)
	op := Outpoint{TxID: txid, Index: 3}
	if got, want := op.String(), txIDHex+":3"; got != want {
		t.Fatalf("String() = %s, want %s", got, want)
	}
	parsed, err := ParseOutpoint(op.String())
	if err != nil {
		t.Fatalf("ParseOutpoint: %v", err)
	}
	if parsed != op {
		t.Errorf("parsed = %v, want %v", parsed, op)
	}
}

func TestOutpoint_JSONShape(t *testing.T) {
	txid, _ := HexToHash(txIDHex)
	data, err := json.Marshal(Outpoint{TxID: txid, Index: 1})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"transactionId":"` + txIDHex + `","index":1}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestParseOutpoint_Invalid(t *testing.T) {
	zeros := strings.Repeat("0", 64)
	for _, s := range []string{
		"",
		"abcd",
		zeros,         // no index
		zeros + ":x",  // non-numeric index
		zeros + ":-1", // negative
		zeros + ":4294967296",
		"zz:1",
	} {
		if _, err := ParseOutpoint(s); err == nil {
			t.Errorf("ParseOutpoint(%q) should fail", s)
		}
	}
}
