package storage

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// Badger is a DB on disk.
type Badger struct {
	db *badger.DB
}

// NewBadger opens or creates a Badger database in dir.
func NewBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "Cannot acquire directory lock") {
			return nil, fmt.Errorf("history at %s is in use by another kaschess process: %w", dir, err)
		}
		return nil, fmt.Errorf("open database at %s: %w", dir, err)
	}
	return &Badger{db: db}, nil
}

// Get returns the value under key or ErrNotFound.
func (b *Badger) Get(key []byte) ([]byte, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("badger get: %w", err)
	}
	return val, nil
}

// Put stores value under key.
func (b *Badger) Put(key, value []byte) error {
	if err := b.db.Update(func(txn *badger.Txn) error { return txn.Set(key, value) }); err != nil {
		return fmt.Errorf("badger put: %w", err)
	}
	return nil
}

// Delete removes key. A missing key is not an error.
func (b *Badger) Delete(key []byte) error {
	if err := b.db.Update(func(txn *badger.Txn) error { return txn.Delete(key) }); err != nil {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}

// Scan iterates the keys with prefix.
func (b *Badger) Scan(prefix []byte, reverse bool, fn func(key, value []byte) error) error {
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = reverse
		if !reverse {
			opts.Prefix = prefix
		}
		it := txn.NewIterator(opts)
		defer it.Close()

		if reverse {
			// A reverse Seek lands on the largest key <= end. Without a
			// prefix filter on the iterator that can be end itself.
			if end := prefixEnd(prefix); end == nil {
				it.Rewind()
			} else {
				it.Seek(end)
				if it.Valid() && bytes.Equal(it.Item().Key(), end) {
					it.Next()
				}
			}
		} else {
			it.Seek(prefix)
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(item.KeyCopy(nil), val); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

// DropPrefix deletes every key with prefix.
func (b *Badger) DropPrefix(prefix []byte) error {
	if len(prefix) == 0 {
		return b.db.DropAll()
	}
	return b.db.DropPrefix(prefix)
}

// Close closes the database.
func (b *Badger) Close() error {
	return b.db.Close()
}
