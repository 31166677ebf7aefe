package tx

import (
	"bytes"
	"errors"
	"testing"
)

func TestBuild_Fields(t *testing.T) {
	key := testKey(t, 1)
	spk := p2pk(t, key)
	entries := []*UtxoEntry{entry(3, 0, 100, spk), entry(1, 2, 200, spk)}
	payload := []byte("CHS1|d|0011223344556677|o")
	outs := []*Output{{Amount: 150, ScriptPublicKey: spk}, {Amount: 50, ScriptPublicKey: spk}}

	tx, err := Build(entries, outs, payload)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tx.Version != 0 || tx.LockTime != 0 || tx.Gas != 0 || !tx.SubnetworkID.IsNative() {
		t.Errorf("fixed fields = v%d lock %d gas %d subnet %s", tx.Version, tx.LockTime, tx.Gas, tx.SubnetworkID)
	}
	for i, in := range tx.Inputs {
		if in.PreviousOutpoint != entries[i].Outpoint {
			t.Errorf("input %d = %s, want %s", i, in.PreviousOutpoint, entries[i].Outpoint)
		}
		if in.Sequence != 0 || in.SigOpCount != 1 || len(in.SignatureScript) != 0 {
			t.Errorf("input %d = seq %d sigops %d script %x", i, in.Sequence, in.SigOpCount, in.SignatureScript)
		}
	}
	if tx.Outputs[0].Amount != 150 || tx.Outputs[1].Amount != 50 {
		t.Errorf("output order not preserved")
	}
	if !bytes.Equal(tx.Payload, payload) {
		t.Errorf("payload = %q, want %q", tx.Payload, payload)
	}

	payload[0] = 'X'
	if tx.Payload[0] == 'X' {
		t.Error("payload should be copied")
	}
}

func TestBuild_NilEntry(t *testing.T) {
	if _, err := Build([]*UtxoEntry{nil}, nil, nil); !errors.Is(err, ErrNilEntry) {
		t.Errorf("nil entry error = %v", err)
	}
	if _, err := Build(nil, []*Output{nil}, nil); !errors.Is(err, ErrNilEntry) {
		t.Errorf("nil output error = %v", err)
	}
}

func TestID_ExcludesSignatures(t *testing.T) {
	key := testKey(t, 1)
	spk := p2pk(t, key)
	entries := []*UtxoEntry{entry(1, 0, 1000, spk)}
	tx, _ := Build(entries, []*Output{{Amount: 500, ScriptPublicKey: spk}}, nil)
	before := tx.ID()
	if err := SignAll(tx, entries, key); err != nil {
		t.Fatal(err)
	}
	if tx.ID() != before {
		t.Error("signing should not change the transaction id")
	}
	tx.Outputs[0].Amount++
	if tx.ID() == before {
		t.Error("changing an output should change the id")
	}
}

func TestClone_Independent(t *testing.T) {
	tx, _, _ := signedTx(t)
	c := tx.Clone()
	c.Inputs[0].SignatureScript[1] ^= 0xff
	c.Outputs[0].ScriptPublicKey.Script[1] ^= 0xff
	c.Payload[0] ^= 0xff
	if tx.Inputs[0].SignatureScript[1] == c.Inputs[0].SignatureScript[1] ||
		tx.Outputs[0].ScriptPublicKey.Script[1] == c.Outputs[0].ScriptPublicKey.Script[1] ||
		tx.Payload[0] == c.Payload[0] {
		t.Error("clone shares memory with the original")
	}
}
