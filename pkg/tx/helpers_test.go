package tx

import (
	"testing"

	"github.com/Klingon-tech/kaschess/pkg/crypto"
	"github.com/Klingon-tech/kaschess/pkg/types"
)

// testKey returns the key with scalar b.
func testKey(t *testing.T, b byte) *crypto.PrivateKey {
	t.Helper()
	raw := make([]byte, 32)
	raw[31] = b
	key, err := crypto.PrivateKeyFromBytes(raw)
	if err != nil {
		t.Fatalf("PrivateKeyFromBytes: %v", err)
	}
	return key
}

func p2pk(t *testing.T, key *crypto.PrivateKey) types.ScriptPublicKey {
	t.Helper()
	spk, err := types.PayToPubKey(key.XOnlyPublicKey())
	if err != nil {
		t.Fatal(err)
	}
	return spk
}

func entry(txid byte, index uint32, amount uint64, spk types.ScriptPublicKey) *UtxoEntry {
	return &UtxoEntry{
		Outpoint:        types.Outpoint{TxID: types.Hash{txid}, Index: index},
		Amount:          amount,
		ScriptPublicKey: spk,
	}
}

// signedTx builds and signs a one-input, one-output transaction.
func signedTx(t *testing.T) (*Transaction, []*UtxoEntry, *crypto.PrivateKey) {
	t.Helper()
	key := testKey(t, 1)
	spk := p2pk(t, key)
	entries := []*UtxoEntry{entry(0x01, 0, 10_000, spk)}
	tx, err := Build(entries, []*Output{{Amount: 8_000, ScriptPublicKey: spk}}, []byte("CHS1|r|0011223344556677"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := SignAll(tx, entries, key); err != nil {
		t.Fatalf("SignAll: %v", err)
	}
	return tx, entries, key
}
