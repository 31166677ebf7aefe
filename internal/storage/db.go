// Package storage is the ordered key-value layer under the publish history.
// Keys sort bytewise and can be scanned in either direction, so an
// append-only log keyed by big-endian time reads newest first without
// loading everything.
package storage

import "errors"

var (
	// ErrNotFound is returned by Get for a missing key.
	ErrNotFound = errors.New("key not found")
	// ErrStop ends a Scan early without reporting an error.
	ErrStop = errors.New("stop scan")
)

// DB is an ordered key-value store.
type DB interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	// Scan calls fn for every key with prefix, in ascending order or, when
	// reverse is set, descending. fn receives copies.
	Scan(prefix []byte, reverse bool, fn func(key, value []byte) error) error
	// DropPrefix deletes every key with prefix.
	DropPrefix(prefix []byte) error
	Close() error
}

// prefixEnd returns the smallest key greater than every key with prefix,
// or nil when there is none (empty or all-0xFF prefix).
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
