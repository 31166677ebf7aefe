// Package signer is the single signing surface of the engine. A Backend is
// either a local key or an external wallet extension that has declared it
// can sign transactions.
package signer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Klingon-tech/kaschess/internal/wallet"
	"github.com/Klingon-tech/kaschess/pkg/tx"
	"github.com/Klingon-tech/kaschess/pkg/types"
)

// Signer errors.
var (
	ErrUnsupported       = errors.New("signer does not support this operation")
	ErrClosed            = errors.New("signer closed")
	ErrExternalSignature = errors.New("external signer returned an invalid transaction")
)

// Backend signs every input of a transaction it owns.
type Backend interface {
	Address() types.Address
	// SignTransaction fills the signature script of every input. entries[i]
	// is the UTXO spent by input i.
	SignTransaction(ctx context.Context, t *tx.Transaction, entries []*tx.UtxoEntry) error
	// Close releases key material. The backend must not sign afterwards.
	Close() error
}

// Local signs with an in-process key.
type Local struct {
	mu     sync.Mutex
	kp     *wallet.KeyPair
	closed bool
}

// NewLocal wraps a key pair. The Local takes ownership and zeroes it on Close.
func NewLocal(kp *wallet.KeyPair) *Local {
	return &Local{kp: kp}
}

// Address implements Backend.
func (l *Local) Address() types.Address { return l.kp.Address() }

// SignTransaction implements Backend.
func (l *Local) SignTransaction(ctx context.Context, t *tx.Transaction, entries []*tx.UtxoEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	return tx.SignAll(t, entries, l.kp.Signer())
}

// Close zeroes the key.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.kp.Zero()
		l.closed = true
	}
	return nil
}

// Capabilities is the set of operations an extension declares.
type Capabilities uint32

// Capability bits.
const (
	CapSignTransaction Capabilities = 1 << iota
	CapSignMessage
)

// Has reports whether every bit of want is set.
func (c Capabilities) Has(want Capabilities) bool { return c&want == want }

// Extension is a third-party wallet that holds the key.
type Extension interface {
	Capabilities() Capabilities
	Address(ctx context.Context) (string, error)
	SignTransaction(ctx context.Context, t *tx.RPCTransaction, entries []*tx.RPCUtxoEntry) (*tx.RPCTransaction, error)
}

// External signs through an Extension. Its output is trusted only after
// every signature verifies locally.
type External struct {
	ext  Extension
	addr types.Address
	spk  types.ScriptPublicKey

	mu     sync.Mutex
	closed bool
}

// NewExternal checks the extension can sign transactions and resolves its
// address.
func NewExternal(ctx context.Context, ext Extension) (*External, error) {
	if !ext.Capabilities().Has(CapSignTransaction) {
		return nil, fmt.Errorf("%w: extension cannot sign transactions", ErrUnsupported)
	}
	s, err := ext.Address(ctx)
	if err != nil {
		return nil, fmt.Errorf("extension address: %w", err)
	}
	addr, err := types.DecodeAddress(s)
	if err != nil {
		return nil, fmt.Errorf("extension address: %w", err)
	}
	if addr.Version != types.AddressVersionPubKey {
		return nil, fmt.Errorf("%w: extension address %s is not pay-to-pubkey", ErrUnsupported, s)
	}
	spk, err := addr.ScriptPublicKey()
	if err != nil {
		return nil, fmt.Errorf("extension address: %w", err)
	}
	return &External{ext: ext, addr: addr, spk: spk}, nil
}

// Address implements Backend.
func (e *External) Address() types.Address { return e.addr }

// SignTransaction implements Backend. Only the signature scripts of the
// extension's answer are used; every other field is ours.
func (e *External) SignTransaction(ctx context.Context, t *tx.Transaction, entries []*tx.UtxoEntry) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if len(entries) != len(t.Inputs) {
		return fmt.Errorf("%w: %d entries, %d inputs", tx.ErrEntryCount, len(entries), len(t.Inputs))
	}
	wire := make([]*tx.RPCUtxoEntry, len(entries))
	for i, entry := range entries {
		if entry.Outpoint != t.Inputs[i].PreviousOutpoint || !entry.ScriptPublicKey.Equal(e.spk) {
			return fmt.Errorf("input %d: %w", i, tx.ErrUtxoMismatch)
		}
		wire[i] = entry.ToRPC(e.addr.String())
	}

	signed, err := e.ext.SignTransaction(ctx, tx.ToRPC(t), wire)
	if err != nil {
		return fmt.Errorf("external sign: %w", err)
	}
	back, err := tx.FromRPC(signed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExternalSignature, err)
	}
	if len(back.Inputs) != len(t.Inputs) {
		return fmt.Errorf("%w: %d inputs, want %d", ErrExternalSignature, len(back.Inputs), len(t.Inputs))
	}

	candidate := t.Clone()
	for i := range candidate.Inputs {
		candidate.Inputs[i].SignatureScript = back.Inputs[i].SignatureScript
	}
	reused := &tx.SigHashReusedValues{}
	for i := range candidate.Inputs {
		if err := tx.VerifyInput(candidate, i, entries[i], reused); err != nil {
			return fmt.Errorf("%w: %v", ErrExternalSignature, err)
		}
	}
	for i := range t.Inputs {
		t.Inputs[i].SignatureScript = candidate.Inputs[i].SignatureScript
	}
	return nil
}

// Close marks the backend closed. The extension keeps its own key.
func (e *External) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}
