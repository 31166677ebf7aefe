package types

import (
	"fmt"
	"strings"
)

// Address data charset. Same alphabet as bech32, different checksum.
const cashCharset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// cashChecksumLen is the number of 5-bit checksum groups (40 bits).
const cashChecksumLen = 8

// cashCharsetRev maps charset characters to their 5-bit values. -1 = invalid.
var cashCharsetRev [128]int8

func init() {
	for i := range cashCharsetRev {
		cashCharsetRev[i] = -1
	}
	for i, c := range cashCharset {
		cashCharsetRev[c] = int8(i)
	}
}

var cashGenerators = [5]uint64{0x98f2bc8e61, 0x79b76d99e2, 0xf33e5fb3c4, 0xae2eabe2a8, 0x1e4f43e470}

// cashPolymod computes the 40-bit BCH polynomial modulus.
func cashPolymod(values []byte) uint64 {
	c := uint64(1)
	for _, v := range values {
		top := c >> 35
		c = ((c & 0x07ffffffff) << 5) ^ uint64(v)
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 == 1 {
				c ^= cashGenerators[i]
			}
		}
	}
	return c ^ 1
}

// cashPrefixExpand returns the low 5 bits of each prefix char followed by a
// zero separator.
func cashPrefixExpand(prefix string) []byte {
	ret := make([]byte, 0, len(prefix)+1)
	for i := 0; i < len(prefix); i++ {
		ret = append(ret, prefix[i]&0x1f)
	}
	return append(ret, 0)
}

func cashChecksum(prefix string, data5 []byte) []byte {
	values := cashPrefixExpand(prefix)
	values = append(values, data5...)
	values = append(values, make([]byte, cashChecksumLen)...)
	pm := cashPolymod(values)
	ret := make([]byte, cashChecksumLen)
	for i := 0; i < cashChecksumLen; i++ {
		ret[i] = byte((pm >> uint(5*(7-i))) & 31)
	}
	return ret
}

func cashVerifyChecksum(prefix string, data5 []byte) bool {
	values := append(cashPrefixExpand(prefix), data5...)
	return cashPolymod(values) == 0
}

// cashEncode encodes raw bytes (version || payload) under prefix.
func cashEncode(prefix string, data []byte) string {
	// 8 -> 5 with padding cannot fail.
	conv, _ := convertBits(data, 8, 5, true)
	chk := cashChecksum(prefix, conv)

	var sb strings.Builder
	sb.Grow(len(prefix) + 1 + len(conv) + len(chk))
	sb.WriteString(prefix)
	sb.WriteByte(':')
	for _, b := range conv {
		sb.WriteByte(cashCharset[b])
	}
	for _, b := range chk {
		sb.WriteByte(cashCharset[b])
	}
	return sb.String()
}

// cashDecode splits and verifies an address string, returning the prefix and
// the raw 8-bit data.
func cashDecode(s string) (string, []byte, error) {
	hasUpper, hasLower := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			hasUpper = true
		}
		if c >= 'a' && c <= 'z' {
			hasLower = true
		}
	}
	if hasUpper && hasLower {
		return "", nil, fmt.Errorf("%w: mixed case", ErrInvalidCharacter)
	}
	s = strings.ToLower(s)

	prefix, dataStr, ok := strings.Cut(s, ":")
	if !ok || prefix == "" {
		return "", nil, ErrMissingSeparator
	}
	if !Prefix(prefix).Valid() {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownPrefix, prefix)
	}
	if len(dataStr) <= cashChecksumLen {
		return "", nil, fmt.Errorf("%w: data part too short", ErrInvalidPayloadLength)
	}

	data5 := make([]byte, len(dataStr))
	for i := 0; i < len(dataStr); i++ {
		c := dataStr[i]
		if c > 127 || cashCharsetRev[c] < 0 {
			return "", nil, fmt.Errorf("%w: %q at position %d", ErrInvalidCharacter, c, i)
		}
		data5[i] = byte(cashCharsetRev[c])
	}

	if !cashVerifyChecksum(prefix, data5) {
		return "", nil, ErrChecksumMismatch
	}

	data8, err := convertBits(data5[:len(data5)-cashChecksumLen], 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidPayloadLength, err)
	}
	return prefix, data8, nil
}

// convertBits converts between bit groups.
// fromBits/toBits are the source/destination group sizes (e.g. 8 and 5).
// pad controls whether incomplete groups are zero-padded.
func convertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	acc := uint32(0)
	bits := uint(0)
	maxv := uint32((1 << toBits) - 1)
	ret := make([]byte, 0, len(data)*int(fromBits)/int(toBits)+1)

	for _, b := range data {
		if uint32(b)>>fromBits != 0 {
			return nil, fmt.Errorf("invalid data byte: %d", b)
		}
		acc = acc<<fromBits | uint32(b)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			ret = append(ret, byte((acc>>bits)&maxv))
		}
	}

	if pad {
		if bits > 0 {
			ret = append(ret, byte((acc<<(toBits-bits))&maxv))
		}
		return ret, nil
	}
	if bits >= fromBits {
		return nil, fmt.Errorf("excess padding")
	}
	if (acc<<(toBits-bits))&maxv != 0 {
		return nil, fmt.Errorf("non-zero padding")
	}
	return ret, nil
}
