package crypto

import (
	"encoding/binary"
	"hash"

	"github.com/Klingon-tech/kaschess/pkg/types"
	"golang.org/x/crypto/blake2b"
)

// Hash domains. The domain string is the BLAKE2b key.
const (
	DomainTransactionSigningHash = "TransactionSigningHash"
	DomainTransactionID          = "TransactionID"
)

// HashWriter accumulates little-endian encoded fields into a keyed
// BLAKE2b-256 digest.
type HashWriter struct {
	h   hash.Hash
	buf [8]byte
}

// NewHashWriter returns a writer keyed with domain.
func NewHashWriter(domain string) *HashWriter {
	h, err := blake2b.New256([]byte(domain))
	if err != nil {
		// Only returned for keys longer than 64 bytes.
		panic("blake2b: " + err.Error())
	}
	return &HashWriter{h: h}
}

// WriteUint8 writes a single byte.
func (w *HashWriter) WriteUint8(v uint8) {
	w.buf[0] = v
	w.h.Write(w.buf[:1])
}

// WriteUint16 writes v as 2 little-endian bytes.
func (w *HashWriter) WriteUint16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	w.h.Write(w.buf[:2])
}

// WriteUint32 writes v as 4 little-endian bytes.
func (w *HashWriter) WriteUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.h.Write(w.buf[:4])
}

// WriteUint64 writes v as 8 little-endian bytes.
func (w *HashWriter) WriteUint64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:], v)
	w.h.Write(w.buf[:])
}

// WriteBytes writes b with no length prefix.
func (w *HashWriter) WriteBytes(b []byte) {
	w.h.Write(b)
}

// WriteHash writes the 32 bytes of h.
func (w *HashWriter) WriteHash(h types.Hash) {
	w.h.Write(h[:])
}

// WriteVarBytes writes a varint length prefix followed by b.
func (w *HashWriter) WriteVarBytes(b []byte) {
	w.h.Write(AppendVarInt(nil, uint64(len(b))))
	w.h.Write(b)
}

// Finalize returns the digest. The writer must not be used afterwards.
func (w *HashWriter) Finalize() types.Hash {
	var out types.Hash
	copy(out[:], w.h.Sum(nil))
	return out
}

// AppendVarInt appends the minimal variable-length encoding of v
// (0xfd/0xfe/0xff markers for 2, 4 and 8 byte little-endian values).
func AppendVarInt(dst []byte, v uint64) []byte {
	switch {
	case v < 0xfd:
		return append(dst, byte(v))
	case v <= 0xffff:
		return binary.LittleEndian.AppendUint16(append(dst, 0xfd), uint16(v))
	case v <= 0xffffffff:
		return binary.LittleEndian.AppendUint32(append(dst, 0xfe), uint32(v))
	default:
		return binary.LittleEndian.AppendUint64(append(dst, 0xff), v)
	}
}
