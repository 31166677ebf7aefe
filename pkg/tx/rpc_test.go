package tx

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestRPC_Roundtrip(t *testing.T) {
	tx, _, _ := signedTx(t)
	data, err := json.Marshal(ToRPC(tx))
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"lockTime":"0"`, `"gas":"0"`, `"sequence":"0"`, `"amount":"8000"`, `"sigOpCount":1`, `"subnetworkId":"0000000000000000000000000000000000000000"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("wire form missing %s: %s", field, data)
		}
	}

	var r RPCTransaction
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatal(err)
	}
	back, err := FromRPC(&r)
	if err != nil {
		t.Fatalf("FromRPC: %v", err)
	}
	if back.ID() != tx.ID() {
		t.Error("roundtrip changed the transaction id")
	}
	if string(back.Inputs[0].SignatureScript) != string(tx.Inputs[0].SignatureScript) {
		t.Error("roundtrip lost the signature script")
	}
}

func TestFromRPC_Malformed(t *testing.T) {
	tx, _, _ := signedTx(t)
	cases := map[string]func(*RPCTransaction){
		"lock time":   func(r *RPCTransaction) { r.LockTime = "-1" },
		"gas":         func(r *RPCTransaction) { r.Gas = "" },
		"subnetwork":  func(r *RPCTransaction) { r.SubnetworkID = "00" },
		"payload":     func(r *RPCTransaction) { r.Payload = "zz" },
		"amount":      func(r *RPCTransaction) { r.Outputs[0].Amount = "1.5" },
		"sequence":    func(r *RPCTransaction) { r.Inputs[0].Sequence = "x" },
		"signature":   func(r *RPCTransaction) { r.Inputs[0].SignatureScript = "0" },
		"null input":  func(r *RPCTransaction) { r.Inputs[0] = nil },
		"null output": func(r *RPCTransaction) { r.Outputs[0] = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := ToRPC(tx)
			mutate(r)
			if _, err := FromRPC(r); !errors.Is(err, ErrMalformedRPC) {
				t.Errorf("error = %v, want ErrMalformedRPC", err)
			}
		})
	}
}

func TestUtxoEntryRPC(t *testing.T) {
	e := entry(7, 2, 123456789, p2pk(t, testKey(t, 1)))
	e.BlockDAAScore = 42
	e.IsCoinbase = true
	r := e.ToRPC("kaspa:qtest")
	if r.UtxoEntry.Amount != "123456789" || r.UtxoEntry.BlockDAAScore != "42" {
		t.Errorf("wire entry = %+v", r.UtxoEntry)
	}
	back, err := UtxoEntryFromRPC(r)
	if err != nil {
		t.Fatal(err)
	}
	if back.Outpoint != e.Outpoint || back.Amount != e.Amount || back.BlockDAAScore != 42 || !back.IsCoinbase {
		t.Errorf("back = %+v", back)
	}

	r.UtxoEntry.ScriptPublicKey.Script = nil
	if _, err := UtxoEntryFromRPC(r); !errors.Is(err, ErrMalformedRPC) {
		t.Errorf("empty script error = %v", err)
	}
}
