package tx

import (
	"errors"
	"math"
	"testing"

	"github.com/Klingon-tech/kaschess/pkg/types"
)

func TestValidate_Valid(t *testing.T) {
	tx, _, _ := signedTx(t)
	if err := tx.Validate(); err != nil {
		t.Errorf("valid tx should pass: %v", err)
	}
	if err := tx.ValidateSigned(); err != nil {
		t.Errorf("signed tx should pass: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	spk := types.ScriptPublicKey{Script: []byte{0x51}}
	in := func(b byte) *Input { return &Input{PreviousOutpoint: types.Outpoint{TxID: types.Hash{b}}} }
	out := func(v uint64) *Output { return &Output{Amount: v, ScriptPublicKey: spk} }

	tests := []struct {
		name string
		tx   *Transaction
		want error
	}{
		{"no inputs", &Transaction{Outputs: []*Output{out(1)}}, ErrNoInputs},
		{"no outputs", &Transaction{Inputs: []*Input{in(1)}}, ErrNoOutputs},
		{"duplicate input", &Transaction{Inputs: []*Input{in(1), in(1)}, Outputs: []*Output{out(1)}}, ErrDuplicateInput},
		{"zero output", &Transaction{Inputs: []*Input{in(1)}, Outputs: []*Output{out(0)}}, ErrZeroOutput},
		{"overflow", &Transaction{Inputs: []*Input{in(1)}, Outputs: []*Output{out(math.MaxUint64), out(1)}}, ErrOutputOverflow},
		{"payload too large", &Transaction{Inputs: []*Input{in(1)}, Outputs: []*Output{out(1)}, Payload: make([]byte, MaxPayloadSize+1)}, ErrPayloadTooLarge},
		{"script too large", &Transaction{Inputs: []*Input{in(1)}, Outputs: []*Output{{Amount: 1, ScriptPublicKey: types.ScriptPublicKey{Script: make([]byte, types.MaxScriptPubKey+1)}}}}, ErrScriptDataTooLarge},
		{"nil input", &Transaction{Inputs: []*Input{nil}, Outputs: []*Output{out(1)}}, ErrNilInput},
		{"nil output", &Transaction{Inputs: []*Input{in(1)}, Outputs: []*Output{nil}}, ErrNilInput},
		{"native gas", &Transaction{Inputs: []*Input{in(1)}, Outputs: []*Output{out(1)}, Gas: 5}, ErrNativeGas},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.tx.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidate_TooManyInputs(t *testing.T) {
	tx := &Transaction{Outputs: []*Output{{Amount: 1}}}
	for i := 0; i <= MaxTxInputs; i++ {
		tx.Inputs = append(tx.Inputs, &Input{PreviousOutpoint: types.Outpoint{Index: uint32(i)}})
	}
	if err := tx.Validate(); !errors.Is(err, ErrTooManyInputs) {
		t.Errorf("expected ErrTooManyInputs, got: %v", err)
	}
	tx.Inputs = tx.Inputs[:MaxTxInputs]
	if err := tx.Validate(); err != nil {
		t.Errorf("at limit should pass: %v", err)
	}
}

func TestValidateSigned_MissingSig(t *testing.T) {
	key := testKey(t, 1)
	spk := p2pk(t, key)
	tx, _ := Build([]*UtxoEntry{entry(1, 0, 100, spk)}, []*Output{{Amount: 50, ScriptPublicKey: spk}}, nil)
	if err := tx.Validate(); err != nil {
		t.Fatalf("unsigned tx is structurally valid: %v", err)
	}
	if err := tx.ValidateSigned(); !errors.Is(err, ErrMissingSig) {
		t.Errorf("ValidateSigned() = %v, want ErrMissingSig", err)
	}
}

type mapProvider map[types.Outpoint]*UtxoEntry

func (m mapProvider) GetUTXO(op types.Outpoint) (*UtxoEntry, bool) {
	e, ok := m[op]
	return e, ok
}

func TestValidateWithUTXOs(t *testing.T) {
	tx, entries, _ := signedTx(t)
	view := mapProvider{entries[0].Outpoint: entries[0]}

	fee, err := tx.ValidateWithUTXOs(view, 1000)
	if err != nil {
		t.Fatalf("ValidateWithUTXOs: %v", err)
	}
	if fee != 2000 {
		t.Errorf("fee = %d, want 2000", fee)
	}

	if _, err := tx.ValidateWithUTXOs(view, 2001); !errors.Is(err, ErrInsufficientFee) {
		t.Errorf("min fee error = %v, want ErrInsufficientFee", err)
	}
	if _, err := tx.ValidateWithUTXOs(mapProvider{}, 0); !errors.Is(err, ErrInputNotFound) {
		t.Errorf("missing input error = %v, want ErrInputNotFound", err)
	}

	overspend := tx.Clone()
	overspend.Outputs[0].Amount = 20_000
	if _, err := overspend.ValidateWithUTXOs(view, 0); !errors.Is(err, ErrInvalidSig) {
		t.Errorf("re-priced output error = %v, want ErrInvalidSig", err)
	}
}
