package storage

import (
	"errors"
	"slices"
	"strings"
	"sync"
)

// Memory is a DB held in a map. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory DB.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get returns the value under key or ErrNotFound.
func (m *Memory) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

// Put stores value under key.
func (m *Memory) Put(key, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	m.mu.Lock()
	m.data[string(key)] = v
	m.mu.Unlock()
	return nil
}

// Delete removes key.
func (m *Memory) Delete(key []byte) error {
	m.mu.Lock()
	delete(m.data, string(key))
	m.mu.Unlock()
	return nil
}

// Scan iterates a snapshot of the keys with prefix, so fn may write.
func (m *Memory) Scan(prefix []byte, reverse bool, fn func(key, value []byte) error) error {
	type kv struct {
		k string
		v []byte
	}
	p := string(prefix)
	m.mu.RLock()
	var snap []kv
	for k, v := range m.data {
		if strings.HasPrefix(k, p) {
			snap = append(snap, kv{k, slices.Clone(v)})
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(snap, func(a, b kv) int {
		if reverse {
			return strings.Compare(b.k, a.k)
		}
		return strings.Compare(a.k, b.k)
	})
	for _, e := range snap {
		if err := fn([]byte(e.k), e.v); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

// DropPrefix deletes every key with prefix.
func (m *Memory) DropPrefix(prefix []byte) error {
	p := string(prefix)
	m.mu.Lock()
	for k := range m.data {
		if strings.HasPrefix(k, p) {
			delete(m.data, k)
		}
	}
	m.mu.Unlock()
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
