package bufferplus

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/blockberries/bufferplus/internal/wire"
)

// WriteBytes writes p at the cursor.
func (b *Buffer) WriteBytes(p []byte) {
	copy(b.reserve(len(p)), p)
}

// ReadBytes reads n bytes at the cursor and returns a copy of them.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	p, err := b.next("readBytes", n)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(p), nil
}

// WriteString writes s, without a length prefix, in the default encoding.
func (b *Buffer) WriteString(s string) error {
	return b.writeText(s, b.enc)
}

// WriteStringEncoding writes s, without a length prefix, in the named encoding.
func (b *Buffer) WriteStringEncoding(s, encoding string) error {
	enc, err := LookupEncoding(encoding)
	if err != nil {
		return err
	}
	return b.writeText(s, enc)
}

func (b *Buffer) writeText(s string, enc Encoding) error {
	if enc.kind == textUTF8 {
		copy(b.reserve(len(s)), s)
		return nil
	}
	p, err := enc.Encode(s)
	if err != nil {
		return err
	}
	b.WriteBytes(p)
	return nil
}

// ReadString reads n bytes and decodes them with the default encoding.
func (b *Buffer) ReadString(n int) (string, error) {
	return b.readText("readString", n, b.enc)
}

// ReadStringEncoding reads n bytes and decodes them with the named encoding.
func (b *Buffer) ReadStringEncoding(n int, encoding string) (string, error) {
	enc, err := LookupEncoding(encoding)
	if err != nil {
		return "", err
	}
	return b.readText("readString", n, enc)
}

func (b *Buffer) readText(op string, n int, enc Encoding) (string, error) {
	p, err := b.next(op, n)
	if err != nil {
		return "", err
	}
	return enc.Decode(p)
}

// MaxSafeInteger is the largest magnitude accepted by the varint types.
const MaxSafeInteger = wire.MaxSafeInteger

// WriteVarUint writes v as a varint. Values above 2^53-1 are rejected.
func (b *Buffer) WriteVarUint(v uint64) error {
	if v > wire.MaxSafeInteger {
		return NewEncodeError("varuint exceeds 2^53-1", outOfRange(KindVarUint, v))
	}
	p := b.reserve(wire.UvarintSize(v))
	wire.PutUvarint(p, v)
	return nil
}

// WriteVarInt writes v as a zig-zag varint. Magnitudes above 2^53-1 are rejected.
func (b *Buffer) WriteVarInt(v int64) error {
	if v > wire.MaxSafeInteger || v < -wire.MaxSafeInteger {
		return NewEncodeError("varint exceeds 2^53-1", outOfRange(KindVarInt, v))
	}
	p := b.reserve(wire.SvarintSize(v))
	wire.PutSvarint(p, v)
	return nil
}

// ReadVarUint reads a varint. A continuation run that reaches the logical
// end fails with ErrDecodeRange.
func (b *Buffer) ReadVarUint() (uint64, error) {
	v, n, err := decodeVarUint(b.data, b.pos, b.length)
	if err != nil {
		return 0, NewFieldDecodeError("", "", b.pos, "varuint", err)
	}
	b.pos += n
	return v, nil
}

// ReadVarInt reads a zig-zag varint.
func (b *Buffer) ReadVarInt() (int64, error) {
	v, n, err := decodeVarInt(b.data, b.pos, b.length)
	if err != nil {
		return 0, NewFieldDecodeError("", "", b.pos, "varint", err)
	}
	b.pos += n
	return v, nil
}

func varintError(err error) error {
	if errors.Is(err, wire.ErrVarintRange) {
		return ErrDecodeRange
	}
	return fmt.Errorf("%w: %w", ErrDecodeRange, err)
}

func decodeVarUint(data []byte, off, end int) (uint64, int, error) {
	v, n, err := wire.DecodeUvarint(data, off, end)
	if err != nil {
		return 0, 0, varintError(err)
	}
	if v > wire.MaxSafeInteger {
		return 0, 0, fmt.Errorf("%w: varuint %d exceeds 2^53-1", ErrDecodeRange, v)
	}
	return v, n, nil
}

func decodeVarInt(data []byte, off, end int) (int64, int, error) {
	v, n, err := wire.DecodeSvarint(data, off, end)
	if err != nil {
		return 0, 0, varintError(err)
	}
	if v > wire.MaxSafeInteger || v < -wire.MaxSafeInteger {
		return 0, 0, fmt.Errorf("%w: varint %d exceeds 2^53-1", ErrDecodeRange, v)
	}
	return v, n, nil
}

// WritePackedString writes s in the default encoding, prefixed with its byte
// length as a varint.
func (b *Buffer) WritePackedString(s string) error {
	return b.writePackedText(s, b.enc)
}

// WritePackedStringEncoding is WritePackedString with an explicit encoding.
func (b *Buffer) WritePackedStringEncoding(s, encoding string) error {
	enc, err := LookupEncoding(encoding)
	if err != nil {
		return err
	}
	return b.writePackedText(s, enc)
}

func (b *Buffer) writePackedText(s string, enc Encoding) error {
	if enc.kind == textUTF8 {
		if err := b.WriteVarUint(uint64(len(s))); err != nil {
			return err
		}
		copy(b.reserve(len(s)), s)
		return nil
	}
	p, err := enc.Encode(s)
	if err != nil {
		return err
	}
	return b.WritePackedBytes(p)
}

// ReadPackedString reads a varint length followed by that many bytes of text
// in the default encoding.
func (b *Buffer) ReadPackedString() (string, error) {
	return b.readPackedText(b.enc)
}

// ReadPackedStringEncoding is ReadPackedString with an explicit encoding.
func (b *Buffer) ReadPackedStringEncoding(encoding string) (string, error) {
	enc, err := LookupEncoding(encoding)
	if err != nil {
		return "", err
	}
	return b.readPackedText(enc)
}

func (b *Buffer) readPackedText(enc Encoding) (string, error) {
	start := b.pos
	n, err := b.ReadVarUint()
	if err != nil {
		return "", err
	}
	s, err := b.readText("readPackedString", int(n), enc)
	if err != nil {
		b.pos = start
		return "", err
	}
	return s, nil
}

// WritePackedBytes writes p prefixed with its length as a varint.
func (b *Buffer) WritePackedBytes(p []byte) error {
	if err := b.WriteVarUint(uint64(len(p))); err != nil {
		return err
	}
	b.WriteBytes(p)
	return nil
}

// ReadPackedBytes reads a varint length followed by that many bytes.
func (b *Buffer) ReadPackedBytes() ([]byte, error) {
	start := b.pos
	n, err := b.ReadVarUint()
	if err != nil {
		return nil, err
	}
	p, err := b.ReadBytes(int(n))
	if err != nil {
		b.pos = start
		return nil, err
	}
	return p, nil
}

// ByteLengthVarUint returns the encoded size of v as a varint.
func ByteLengthVarUint(v uint64) int {
	return wire.UvarintSize(v)
}

// ByteLengthVarInt returns the encoded size of v as a zig-zag varint.
func ByteLengthVarInt(v int64) int {
	return wire.SvarintSize(v)
}

// ByteLengthPackedString returns the encoded size of s as a UTF-8 packed string.
func ByteLengthPackedString(s string) int {
	return wire.UvarintSize(uint64(len(s))) + len(s)
}

// ByteLengthPackedStringEncoding returns the encoded size of s as a packed
// string in the named encoding.
func ByteLengthPackedStringEncoding(s, encoding string) (int, error) {
	enc, err := LookupEncoding(encoding)
	if err != nil {
		return 0, err
	}
	return packedTextSize(s, enc)
}

func packedTextSize(s string, enc Encoding) (int, error) {
	n, err := enc.ByteLength(s)
	if err != nil {
		return 0, err
	}
	return wire.UvarintSize(uint64(n)) + n, nil
}

// ByteLengthPackedBytes returns the encoded size of p as packed bytes.
func ByteLengthPackedBytes(p []byte) int {
	return wire.UvarintSize(uint64(len(p))) + len(p)
}
