package tx

// Mass weights. Mass approximates the resource cost a node charges for.
const (
	MassPerTxByte           = 1
	MassPerScriptPubKeyByte = 10
	MassPerSigOp            = 1000

	// DefaultMinFee is the smallest fee the engine will attach.
	DefaultMinFee = 1000
)

// Serialized size components of a signed transaction.
const (
	txOverheadSize = 2 + 8 + 8 + 8 + 20 + 8 + 32 + 8 // version, counts, locktime, subnetwork, gas, payload hash, payload len
	inputSize      = 32 + 4 + 8 + SignatureScriptSize + 8 + 1
	p2pkScriptSize = 34
	outputSize     = 8 + 2 + 8 + p2pkScriptSize
)

// EstimateMass returns the mass of a signed transaction with numInputs
// Schnorr inputs, numOutputs pay-to-pubkey outputs and a payload of
// payloadLen bytes.
func EstimateMass(numInputs, numOutputs, payloadLen int) uint64 {
	size := txOverheadSize + inputSize*numInputs + outputSize*numOutputs + payloadLen
	spkMass := (2 + p2pkScriptSize) * MassPerScriptPubKeyByte * numOutputs
	sigOpMass := MassPerSigOp * DefaultSigOpCount * numInputs
	return uint64(size*MassPerTxByte + spkMass + sigOpMass)
}

// Fee returns max(minFee, mass*feeRate).
func Fee(mass, feeRate, minFee uint64) uint64 {
	f := mass * feeRate
	if f < minFee {
		return minFee
	}
	return f
}

// Mass returns the mass of a fully built transaction.
func (tx *Transaction) Mass() uint64 {
	size := txOverheadSize + len(tx.Payload)
	var spkMass, sigOps int
	for _, in := range tx.Inputs {
		sigLen := len(in.SignatureScript)
		if sigLen == 0 {
			sigLen = SignatureScriptSize
		}
		size += 32 + 4 + 8 + sigLen + 8 + 1
		sigOps += int(in.SigOpCount)
	}
	for _, out := range tx.Outputs {
		size += 8 + 2 + 8 + len(out.ScriptPublicKey.Script)
		spkMass += (2 + len(out.ScriptPublicKey.Script)) * MassPerScriptPubKeyByte
	}
	return uint64(size*MassPerTxByte + spkMass + sigOps*MassPerSigOp)
}
