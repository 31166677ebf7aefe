// Package history keeps a local log of publish attempts per address. It
// stores outcome metadata only: no signed bytes are kept, so nothing can be
// resubmitted from it.
package history

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	klog "github.com/Klingon-tech/kaschess/internal/log"
	"github.com/Klingon-tech/kaschess/internal/storage"
	"github.com/Klingon-tech/kaschess/pkg/types"
)

// ErrNoAddress is returned for a record without an address.
var ErrNoAddress = errors.New("history record has no address")

// Record is one publish attempt.
type Record struct {
	TxID    types.Hash `json:"txid"` // zero unless accepted
	Address string     `json:"address"`
	Kind    string     `json:"kind"`
	GameID  string     `json:"gameId,omitempty"`
	Outcome string     `json:"outcome"`
	Reason  string     `json:"reason,omitempty"`
	Fee     uint64     `json:"fee"`
	Time    time.Time  `json:"time"`
}

// Store persists records under h/<address>/<unix-nano BE>/<txid-or-attempt>.
type Store struct {
	db      storage.DB
	attempt atomic.Uint64
}

// New creates a store over db. The caller owns db.
func New(db storage.DB) *Store {
	return &Store{db: db}
}

// Open creates a store over a Badger database in dir.
func Open(dir string) (*Store, error) {
	db, err := storage.NewBadger(dir)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) bucket(address string) *storage.Bucket {
	return storage.NewBucket(s.db, []byte("h/"+address+"/"))
}

// Append writes rec. A zero Time is set to now.
func (s *Store) Append(rec *Record) error {
	if rec.Address == "" {
		return ErrNoAddress
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}
	suffix := rec.TxID.String()
	if rec.TxID.IsZero() {
		suffix = "attempt-" + strconv.FormatUint(s.attempt.Add(1), 10)
	}

	key := make([]byte, 8, 8+1+len(suffix))
	binary.BigEndian.PutUint64(key, uint64(rec.Time.UnixNano()))
	key = append(key, '/')
	key = append(key, suffix...)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}
	if err := s.bucket(rec.Address).Put(key, data); err != nil {
		return fmt.Errorf("write history record: %w", err)
	}
	klog.Storage.Debug().Str("address", rec.Address).Str("outcome", rec.Outcome).Msg("history record written")
	return nil
}

// List returns up to limit records for address, newest first. A limit of 0
// returns everything.
func (s *Store) List(address string, limit int) ([]*Record, error) {
	var out []*Record
	err := s.bucket(address).Scan(nil, true, func(_, value []byte) error {
		var rec Record
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode history record: %w", err)
		}
		out = append(out, &rec)
		if limit > 0 && len(out) == limit {
			return storage.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Clear removes every record of address.
func (s *Store) Clear(address string) error {
	return s.bucket(address).Drop()
}
