// Package wire provides low-level encoding primitives for the bufferplus wire format.
package wire

import "errors"

// MaxVarintLen64 is the maximum number of bytes of a varint-encoded uint64.
// Each byte carries 7 bits, so ceil(64/7) = 10 bytes.
const MaxVarintLen64 = 10

// MaxSafeInteger is the largest integer magnitude the varint types accept at
// the buffer and schema level (2^53 - 1).
const MaxSafeInteger = 1<<53 - 1

// Errors for varint decoding.
var (
	// ErrVarintRange indicates the continuation run reached the end boundary
	// before a terminating byte was found.
	ErrVarintRange = errors.New("bufferplus: decode varint fail")

	// ErrVarintOverflow indicates the varint overflows a 64-bit integer.
	ErrVarintOverflow = errors.New("bufferplus: varint overflows uint64")
)

// AppendUvarint appends the varint encoding of v to buf and returns the extended buffer.
//
// The encoding uses 7 bits per byte, with the MSB as a continuation flag.
// Bytes are ordered from least significant to most significant.
//
// Example encodings:
//   - 0 → [0x00]
//   - 127 → [0x7f]
//   - 128 → [0x80, 0x01]
//   - 300 → [0xac, 0x02]
func AppendUvarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// PutUvarint encodes v into buf and returns the number of bytes written.
// The buffer must be large enough to hold the encoded value; use UvarintSize
// to determine the required size.
func PutUvarint(buf []byte, v uint64) int {
	i := 0
	for v >= 0x80 {
		buf[i] = byte(v) | 0x80
		v >>= 7
		i++
	}
	buf[i] = byte(v)
	return i + 1
}

// ZigZag maps a signed integer onto the unsigned range so that values of
// small magnitude stay short: 0 → 0, -1 → 1, 1 → 2, -2 → 3, ...
func ZigZag(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

// UnZigZag inverts ZigZag.
func UnZigZag(uv uint64) int64 {
	return int64(uv>>1) ^ -int64(uv&1)
}

// AppendSvarint appends the zigzag-encoded varint of v to buf.
func AppendSvarint(buf []byte, v int64) []byte {
	return AppendUvarint(buf, ZigZag(v))
}

// PutSvarint encodes v into buf using zigzag encoding and returns bytes written.
func PutSvarint(buf []byte, v int64) int {
	return PutUvarint(buf, ZigZag(v))
}

// DecodeUvarint decodes a varint starting at buf[offset]. Bytes at or past end
// are never read: a continuation run that reaches end fails with ErrVarintRange.
// It returns the value and the number of bytes consumed.
func DecodeUvarint(buf []byte, offset, end int) (uint64, int, error) {
	if end > len(buf) {
		end = len(buf)
	}
	if offset >= end || offset < 0 {
		return 0, 0, ErrVarintRange
	}

	// Fast path for single-byte varints (values 0-127)
	if b := buf[offset]; b < 0x80 {
		return uint64(b), 1, nil
	}

	var v uint64
	var shift uint
	for i := offset; ; i++ {
		if i >= end {
			return 0, 0, ErrVarintRange
		}
		n := i - offset
		b := buf[i]
		// The 10th byte may only contribute bit 63.
		if n == MaxVarintLen64-1 && b > 1 {
			return 0, 0, ErrVarintOverflow
		}
		v |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return v, n + 1, nil
		}
		shift += 7
	}
}

// DecodeSvarint decodes a zigzag-encoded varint starting at buf[offset].
func DecodeSvarint(buf []byte, offset, end int) (int64, int, error) {
	uv, n, err := DecodeUvarint(buf, offset, end)
	if err != nil {
		return 0, n, err
	}
	return UnZigZag(uv), n, nil
}

// UvarintSize returns the number of bytes required to encode v as a varint,
// without encoding it.
func UvarintSize(v uint64) int {
	switch {
	case v < 1<<7:
		return 1
	case v < 1<<14:
		return 2
	case v < 1<<21:
		return 3
	case v < 1<<28:
		return 4
	case v < 1<<35:
		return 5
	case v < 1<<42:
		return 6
	case v < 1<<49:
		return 7
	case v < 1<<56:
		return 8
	case v < 1<<63:
		return 9
	default:
		return 10
	}
}

// SvarintSize returns the number of bytes required to encode v as a zigzag varint.
func SvarintSize(v int64) int {
	return UvarintSize(ZigZag(v))
}
