package format

import (
	"encoding/binary"
	"io"
)

// Unsigned LEB128: seven value bits per byte, least significant group first,
// with the high bit set on every byte but the last. encoding/binary's
// uvarint is exactly this coding.

// AppendUvarint appends the LEB128 encoding of v.
func AppendUvarint(b []byte, v uint64) []byte {
	return binary.AppendUvarint(b, v)
}

// UvarintLen returns the encoded size of v.
func UvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// Uvarint decodes a LEB128 value from the front of b, returning the value
// and the number of bytes consumed.
func Uvarint(b []byte) (uint64, int, error) {
	v, n := binary.Uvarint(b)
	switch {
	case n > 0:
		return v, n, nil
	case n == 0:
		return 0, 0, ErrTruncated
	default:
		return 0, 0, ErrOverflow
	}
}

// ReadUvarint decodes a LEB128 value from r.
func ReadUvarint(r io.ByteReader) (uint64, error) {
	v, err := binary.ReadUvarint(r)
	switch {
	case err == nil:
		return v, nil
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		return 0, ErrTruncated
	default:
		return 0, ErrOverflow
	}
}

// ZigZag maps signed values to unsigned so small magnitudes stay small.
func ZigZag(v int64) uint64 { return uint64(v<<1) ^ uint64(v>>63) }

// UnZigZag inverts ZigZag.
func UnZigZag(u uint64) int64 { return int64(u>>1) ^ -int64(u&1) }
