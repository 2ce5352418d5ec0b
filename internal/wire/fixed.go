package wire

import (
	"encoding/binary"
	"math"
)

// ByteOrder selects the byte order of a fixed-width value.
type ByteOrder uint8

const (
	// LittleEndian stores the least significant byte first.
	LittleEndian ByteOrder = iota
	// BigEndian stores the most significant byte first.
	BigEndian
)

// String returns "le" or "be".
func (o ByteOrder) String() string {
	if o == BigEndian {
		return "be"
	}
	return "le"
}

func (o ByteOrder) order() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Size constants for fixed-width types.
const (
	Fixed8Size  = 1
	Fixed16Size = 2
	Fixed32Size = 4
	Fixed64Size = 8
)

// PutFixed16 writes a 16-bit value to buf. buf must hold at least 2 bytes.
func PutFixed16(buf []byte, v uint16, o ByteOrder) {
	o.order().PutUint16(buf, v)
}

// PutFixed32 writes a 32-bit value to buf. buf must hold at least 4 bytes.
func PutFixed32(buf []byte, v uint32, o ByteOrder) {
	o.order().PutUint32(buf, v)
}

// PutFixed64 writes a 64-bit value to buf. buf must hold at least 8 bytes.
func PutFixed64(buf []byte, v uint64, o ByteOrder) {
	o.order().PutUint64(buf, v)
}

// Fixed16 reads a 16-bit value from buf. buf must hold at least 2 bytes.
func Fixed16(buf []byte, o ByteOrder) uint16 {
	return o.order().Uint16(buf)
}

// Fixed32 reads a 32-bit value from buf. buf must hold at least 4 bytes.
func Fixed32(buf []byte, o ByteOrder) uint32 {
	return o.order().Uint32(buf)
}

// Fixed64 reads a 64-bit value from buf. buf must hold at least 8 bytes.
func Fixed64(buf []byte, o ByteOrder) uint64 {
	return o.order().Uint64(buf)
}

// PutFloat32 writes the IEEE 754 bits of v. Bits are stored verbatim, so -0 and
// NaN payloads survive a round trip.
func PutFloat32(buf []byte, v float32, o ByteOrder) {
	PutFixed32(buf, math.Float32bits(v), o)
}

// PutFloat64 writes the IEEE 754 bits of v.
func PutFloat64(buf []byte, v float64, o ByteOrder) {
	PutFixed64(buf, math.Float64bits(v), o)
}

// Float32 reads a float32 from buf.
func Float32(buf []byte, o ByteOrder) float32 {
	return math.Float32frombits(Fixed32(buf, o))
}

// Float64 reads a float64 from buf.
func Float64(buf []byte, o ByteOrder) float64 {
	return math.Float64frombits(Fixed64(buf, o))
}
