package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Outpoint references a specific output of a previous transaction.
type Outpoint struct {
	TxID  Hash   `json:"transactionId"`
	Index uint32 `json:"index"`
}

// IsZero returns true if the outpoint has a zero TxID and zero index.
func (o Outpoint) IsZero() bool {
	return o.TxID.IsZero() && o.Index == 0
}

// String returns "txid:index" in hex.
func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID.String(), o.Index)
}

// ParseOutpoint parses the "txid:index" form produced by String.
func ParseOutpoint(s string) (Outpoint, error) {
	txHex, idxStr, ok := strings.Cut(s, ":")
	if !ok {
		return Outpoint{}, fmt.Errorf("outpoint %q: missing ':' separator", s)
	}
	txID, err := HexToHash(txHex)
	if err != nil {
		return Outpoint{}, fmt.Errorf("outpoint %q: %w", s, err)
	}
	idx, err := strconv.ParseUint(idxStr, 10, 32)
	if err != nil {
		return Outpoint{}, fmt.Errorf("outpoint %q: invalid index: %w", s, err)
	}
	return Outpoint{TxID: txID, Index: uint32(idx)}, nil
}
