package publish

import (
	"context"
	"errors"
	"sync"

	"github.com/Klingon-tech/kaschess/internal/signer"
	"github.com/Klingon-tech/kaschess/pkg/tx"
	"github.com/Klingon-tech/kaschess/pkg/types"
)

// ErrSessionClosed is returned by every operation on a closed session.
var ErrSessionClosed = errors.New("session closed")

// Session owns one signing backend for the life of one client connection.
// It is passed explicitly to every publish; there is no global wallet.
type Session struct {
	backend signer.Backend
	addr    types.Address

	mu     sync.RWMutex
	closed bool
}

// NewSession takes ownership of backend.
func NewSession(backend signer.Backend) *Session {
	return &Session{backend: backend, addr: backend.Address()}
}

// Address returns the address the session spends from.
func (s *Session) Address() types.Address { return s.addr }

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Close zeroes key material through the backend. Calling it again is a
// no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.backend.Close()
}

// sign holds the read lock so Close waits for an in-progress signature.
func (s *Session) sign(ctx context.Context, t *tx.Transaction, entries []*tx.UtxoEntry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.backend.SignTransaction(ctx, t, entries)
}
