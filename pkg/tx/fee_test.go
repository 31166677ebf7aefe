package tx

import "testing"

func TestEstimateMass(t *testing.T) {
	// 1 input, 2 outputs, no payload.
	size := txOverheadSize + inputSize + 2*outputSize
	want := uint64(size + 2*36*MassPerScriptPubKeyByte + MassPerSigOp)
	if got := EstimateMass(1, 2, 0); got != want {
		t.Errorf("EstimateMass(1, 2, 0) = %d, want %d", got, want)
	}
	if EstimateMass(1, 2, 100)-EstimateMass(1, 2, 0) != 100 {
		t.Error("each payload byte should add one unit of mass")
	}
	if EstimateMass(2, 2, 0)-EstimateMass(1, 2, 0) != uint64(inputSize+MassPerSigOp) {
		t.Error("unexpected per-input mass")
	}
}

func TestEstimateMass_MatchesBuiltTx(t *testing.T) {
	tx, _, _ := signedTx(t)
	got := tx.Mass()
	want := EstimateMass(len(tx.Inputs), len(tx.Outputs), len(tx.Payload))
	if got != want {
		t.Errorf("Mass() = %d, EstimateMass = %d", got, want)
	}
}

func TestFee(t *testing.T) {
	tests := []struct {
		name                  string
		mass, rate, min, want uint64
	}{
		{"zero rate uses minimum", 3000, 0, 1000, 1000},
		{"below minimum", 500, 1, 1000, 1000},
		{"above minimum", 3000, 2, 1000, 6000},
		{"no minimum", 10, 1, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fee(tt.mass, tt.rate, tt.min); got != tt.want {
				t.Errorf("Fee(%d, %d, %d) = %d, want %d", tt.mass, tt.rate, tt.min, got, tt.want)
			}
		})
	}
}
