package bufferplus

import (
	"github.com/blockberries/bufferplus/internal/wire"
)

// Fixed-width primitives. Reads fail with a bounds error ("buffer underrun")
// when fewer bytes than the width remain; writes grow the buffer.

func (b *Buffer) read16(op string, o wire.ByteOrder) (uint16, error) {
	p, err := b.next(op, wire.Fixed16Size)
	if err != nil {
		return 0, err
	}
	return wire.Fixed16(p, o), nil
}

func (b *Buffer) read32(op string, o wire.ByteOrder) (uint32, error) {
	p, err := b.next(op, wire.Fixed32Size)
	if err != nil {
		return 0, err
	}
	return wire.Fixed32(p, o), nil
}

func (b *Buffer) read64(op string, o wire.ByteOrder) (uint64, error) {
	p, err := b.next(op, wire.Fixed64Size)
	if err != nil {
		return 0, err
	}
	return wire.Fixed64(p, o), nil
}

// ReadUint8 reads an unsigned byte.
func (b *Buffer) ReadUint8() (uint8, error) {
	p, err := b.next("readUint8", 1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// ReadInt8 reads a signed byte.
func (b *Buffer) ReadInt8() (int8, error) {
	v, err := b.ReadUint8()
	return int8(v), err
}

// ReadBool reads a byte and reports whether it is nonzero.
func (b *Buffer) ReadBool() (bool, error) {
	v, err := b.ReadUint8()
	return v != 0, err
}

// ReadUint16BE reads a big-endian uint16.
func (b *Buffer) ReadUint16BE() (uint16, error) { return b.read16("readUint16BE", wire.BigEndian) }

// ReadUint16LE reads a little-endian uint16.
func (b *Buffer) ReadUint16LE() (uint16, error) { return b.read16("readUint16LE", wire.LittleEndian) }

// ReadInt16BE reads a big-endian int16.
func (b *Buffer) ReadInt16BE() (int16, error) {
	v, err := b.read16("readInt16BE", wire.BigEndian)
	return int16(v), err
}

// ReadInt16LE reads a little-endian int16.
func (b *Buffer) ReadInt16LE() (int16, error) {
	v, err := b.read16("readInt16LE", wire.LittleEndian)
	return int16(v), err
}

// ReadUint32BE reads a big-endian uint32.
func (b *Buffer) ReadUint32BE() (uint32, error) { return b.read32("readUint32BE", wire.BigEndian) }

// ReadUint32LE reads a little-endian uint32.
func (b *Buffer) ReadUint32LE() (uint32, error) { return b.read32("readUint32LE", wire.LittleEndian) }

// ReadInt32BE reads a big-endian int32.
func (b *Buffer) ReadInt32BE() (int32, error) {
	v, err := b.read32("readInt32BE", wire.BigEndian)
	return int32(v), err
}

// ReadInt32LE reads a little-endian int32.
func (b *Buffer) ReadInt32LE() (int32, error) {
	v, err := b.read32("readInt32LE", wire.LittleEndian)
	return int32(v), err
}

// ReadUint64BE reads a big-endian uint64.
func (b *Buffer) ReadUint64BE() (uint64, error) { return b.read64("readUint64BE", wire.BigEndian) }

// ReadUint64LE reads a little-endian uint64.
func (b *Buffer) ReadUint64LE() (uint64, error) { return b.read64("readUint64LE", wire.LittleEndian) }

// ReadInt64BE reads a big-endian int64.
func (b *Buffer) ReadInt64BE() (int64, error) {
	v, err := b.read64("readInt64BE", wire.BigEndian)
	return int64(v), err
}

// ReadInt64LE reads a little-endian int64.
func (b *Buffer) ReadInt64LE() (int64, error) {
	v, err := b.read64("readInt64LE", wire.LittleEndian)
	return int64(v), err
}

// ReadFloat32BE reads a big-endian IEEE 754 float32.
func (b *Buffer) ReadFloat32BE() (float32, error) {
	p, err := b.next("readFloat32BE", wire.Fixed32Size)
	if err != nil {
		return 0, err
	}
	return wire.Float32(p, wire.BigEndian), nil
}

// ReadFloat32LE reads a little-endian IEEE 754 float32.
func (b *Buffer) ReadFloat32LE() (float32, error) {
	p, err := b.next("readFloat32LE", wire.Fixed32Size)
	if err != nil {
		return 0, err
	}
	return wire.Float32(p, wire.LittleEndian), nil
}

// ReadFloat64BE reads a big-endian IEEE 754 float64.
func (b *Buffer) ReadFloat64BE() (float64, error) {
	p, err := b.next("readFloat64BE", wire.Fixed64Size)
	if err != nil {
		return 0, err
	}
	return wire.Float64(p, wire.BigEndian), nil
}

// ReadFloat64LE reads a little-endian IEEE 754 float64.
func (b *Buffer) ReadFloat64LE() (float64, error) {
	p, err := b.next("readFloat64LE", wire.Fixed64Size)
	if err != nil {
		return 0, err
	}
	return wire.Float64(p, wire.LittleEndian), nil
}

// WriteUint8 writes an unsigned byte.
func (b *Buffer) WriteUint8(v uint8) {
	b.reserve(1)[0] = v
}

// WriteInt8 writes a signed byte.
func (b *Buffer) WriteInt8(v int8) {
	b.reserve(1)[0] = byte(v)
}

// WriteBool writes 1 for true and 0 for false.
func (b *Buffer) WriteBool(v bool) {
	var c byte
	if v {
		c = 1
	}
	b.reserve(1)[0] = c
}

// WriteUint16BE writes a big-endian uint16.
func (b *Buffer) WriteUint16BE(v uint16) { wire.PutFixed16(b.reserve(2), v, wire.BigEndian) }

// WriteUint16LE writes a little-endian uint16.
func (b *Buffer) WriteUint16LE(v uint16) { wire.PutFixed16(b.reserve(2), v, wire.LittleEndian) }

// WriteInt16BE writes a big-endian int16.
func (b *Buffer) WriteInt16BE(v int16) { wire.PutFixed16(b.reserve(2), uint16(v), wire.BigEndian) }

// WriteInt16LE writes a little-endian int16.
func (b *Buffer) WriteInt16LE(v int16) { wire.PutFixed16(b.reserve(2), uint16(v), wire.LittleEndian) }

// WriteUint32BE writes a big-endian uint32.
func (b *Buffer) WriteUint32BE(v uint32) { wire.PutFixed32(b.reserve(4), v, wire.BigEndian) }

// WriteUint32LE writes a little-endian uint32.
func (b *Buffer) WriteUint32LE(v uint32) { wire.PutFixed32(b.reserve(4), v, wire.LittleEndian) }

// WriteInt32BE writes a big-endian int32.
func (b *Buffer) WriteInt32BE(v int32) { wire.PutFixed32(b.reserve(4), uint32(v), wire.BigEndian) }

// WriteInt32LE writes a little-endian int32.
func (b *Buffer) WriteInt32LE(v int32) { wire.PutFixed32(b.reserve(4), uint32(v), wire.LittleEndian) }

// WriteUint64BE writes a big-endian uint64.
func (b *Buffer) WriteUint64BE(v uint64) { wire.PutFixed64(b.reserve(8), v, wire.BigEndian) }

// WriteUint64LE writes a little-endian uint64.
func (b *Buffer) WriteUint64LE(v uint64) { wire.PutFixed64(b.reserve(8), v, wire.LittleEndian) }

// WriteInt64BE writes a big-endian int64.
func (b *Buffer) WriteInt64BE(v int64) { wire.PutFixed64(b.reserve(8), uint64(v), wire.BigEndian) }

// WriteInt64LE writes a little-endian int64.
func (b *Buffer) WriteInt64LE(v int64) { wire.PutFixed64(b.reserve(8), uint64(v), wire.LittleEndian) }

// WriteFloat32BE writes a big-endian IEEE 754 float32.
func (b *Buffer) WriteFloat32BE(v float32) { wire.PutFloat32(b.reserve(4), v, wire.BigEndian) }

// WriteFloat32LE writes a little-endian IEEE 754 float32.
func (b *Buffer) WriteFloat32LE(v float32) { wire.PutFloat32(b.reserve(4), v, wire.LittleEndian) }

// WriteFloat64BE writes a big-endian IEEE 754 float64.
func (b *Buffer) WriteFloat64BE(v float64) { wire.PutFloat64(b.reserve(8), v, wire.BigEndian) }

// WriteFloat64LE writes a little-endian IEEE 754 float64.
func (b *Buffer) WriteFloat64LE(v float64) { wire.PutFloat64(b.reserve(8), v, wire.LittleEndian) }
