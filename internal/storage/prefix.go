package storage

// Bucket is a view of a DB confined to the keys under one prefix. Keys
// passed in and handed back are relative to the bucket.
type Bucket struct {
	db     DB
	prefix []byte
}

// NewBucket returns the bucket of db under prefix.
func NewBucket(db DB, prefix []byte) *Bucket {
	return &Bucket{db: db, prefix: append([]byte(nil), prefix...)}
}

func (b *Bucket) key(k []byte) []byte {
	full := make([]byte, 0, len(b.prefix)+len(k))
	return append(append(full, b.prefix...), k...)
}

// Get returns the value under k.
func (b *Bucket) Get(k []byte) ([]byte, error) { return b.db.Get(b.key(k)) }

// Put stores value under k.
func (b *Bucket) Put(k, value []byte) error { return b.db.Put(b.key(k), value) }

// Delete removes k.
func (b *Bucket) Delete(k []byte) error { return b.db.Delete(b.key(k)) }

// Scan iterates the bucket keys starting with prefix.
func (b *Bucket) Scan(prefix []byte, reverse bool, fn func(key, value []byte) error) error {
	n := len(b.prefix)
	return b.db.Scan(b.key(prefix), reverse, func(key, value []byte) error {
		return fn(key[n:], value)
	})
}

// Drop deletes the whole bucket.
func (b *Bucket) Drop() error { return b.db.DropPrefix(b.prefix) }
