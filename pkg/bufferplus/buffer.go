package bufferplus

import (
	"bytes"
	"io"
)

// DefaultBufferSize is the capacity of a buffer created without an explicit size.
const DefaultBufferSize = 4096

// Options configures a Buffer.
type Options struct {
	// Encoding names the default text encoding. Empty means utf8.
	Encoding string

	// Registry resolves custom type and schema names. Nil means DefaultRegistry.
	Registry *Registry
}

// Buffer is a growable byte store with a logical length and a read/write
// cursor. Writes at the cursor overwrite existing bytes or extend the buffer;
// Insert writes shift trailing bytes to make room.
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	data   []byte
	length int
	pos    int
	enc    Encoding
	reg    *Registry
}

// New returns an empty buffer with DefaultBufferSize capacity.
func New() *Buffer {
	return &Buffer{data: make([]byte, DefaultBufferSize), reg: DefaultRegistry}
}

// NewBuffer returns an empty buffer with the given capacity.
func NewBuffer(size int) (*Buffer, error) {
	return NewBufferWithOptions(size, Options{})
}

// NewBufferWithOptions returns an empty buffer with the given capacity and options.
// The size must be positive.
func NewBufferWithOptions(size int, opts Options) (*Buffer, error) {
	if size <= 0 {
		return nil, &BufferError{
			Op:      "alloc",
			Size:    size,
			Message: "size must be greater than zero",
			Cause:   ErrConstruction,
		}
	}
	b := &Buffer{data: make([]byte, size)}
	if err := b.configure(opts); err != nil {
		return nil, err
	}
	return b, nil
}

// WrapBuffer returns a buffer that takes ownership of p. Its length and
// capacity both equal len(p) and the cursor starts at 0.
func WrapBuffer(p []byte) *Buffer {
	return &Buffer{data: p, length: len(p), reg: DefaultRegistry}
}

// WrapBufferWithOptions is WrapBuffer with explicit options.
func WrapBufferWithOptions(p []byte, opts Options) (*Buffer, error) {
	b := &Buffer{data: p, length: len(p)}
	if err := b.configure(opts); err != nil {
		return nil, err
	}
	return b, nil
}

// FromBytes returns a buffer holding a copy of p.
func FromBytes(p []byte) *Buffer {
	return WrapBuffer(bytes.Clone(p))
}

// FromString returns a buffer holding s encoded with the named encoding.
func FromString(s, encoding string) (*Buffer, error) {
	enc, err := LookupEncoding(encoding)
	if err != nil {
		return nil, err
	}
	p, err := enc.Encode(s)
	if err != nil {
		return nil, err
	}
	b := WrapBuffer(p)
	b.enc = enc
	return b, nil
}

// FromBuffer returns a copy of src's content. The copy shares src's encoding
// and registry but has its own storage and a cursor at 0.
func FromBuffer(src *Buffer) *Buffer {
	return &Buffer{
		data:   src.BytesCopy(),
		length: src.length,
		enc:    src.enc,
		reg:    src.reg,
	}
}

func (b *Buffer) configure(opts Options) error {
	enc, err := LookupEncoding(opts.Encoding)
	if err != nil {
		return err
	}
	b.enc = enc
	b.reg = opts.Registry
	if b.reg == nil {
		b.reg = DefaultRegistry
	}
	return nil
}

// Len returns the logical content length.
func (b *Buffer) Len() int { return b.length }

// Cap returns the allocated storage size.
func (b *Buffer) Cap() int { return len(b.data) }

// Position returns the cursor offset.
func (b *Buffer) Position() int { return b.pos }

// Remaining returns the number of bytes between the cursor and the logical end.
func (b *Buffer) Remaining() int { return b.length - b.pos }

// Encoding returns the name of the default text encoding.
func (b *Buffer) Encoding() string { return b.enc.Name() }

// SetEncoding changes the default text encoding.
func (b *Buffer) SetEncoding(name string) error {
	enc, err := LookupEncoding(name)
	if err != nil {
		return err
	}
	b.enc = enc
	return nil
}

// Registry returns the registry used to resolve custom types and schemas.
func (b *Buffer) Registry() *Registry { return b.reg }

// Bytes returns the logical content. The slice aliases the buffer storage
// and is only valid until the next write.
func (b *Buffer) Bytes() []byte { return b.data[:b.length] }

// BytesCopy returns a copy of the logical content.
func (b *Buffer) BytesCopy() []byte { return bytes.Clone(b.data[:b.length]) }

// RemainingBytes returns the content between the cursor and the logical end.
// The slice aliases the buffer storage.
func (b *Buffer) RemainingBytes() []byte { return b.data[b.pos:b.length] }

// String decodes the whole content with the default encoding. If decoding
// fails the raw bytes are returned as a string.
func (b *Buffer) String() string {
	s, err := b.enc.Decode(b.Bytes())
	if err != nil {
		return string(b.Bytes())
	}
	return s
}

// Text decodes the whole content with the named encoding.
func (b *Buffer) Text(encoding string) (string, error) {
	enc, err := LookupEncoding(encoding)
	if err != nil {
		return "", err
	}
	return enc.Decode(b.Bytes())
}

// Reset empties the buffer, keeping its storage for reuse.
func (b *Buffer) Reset() {
	b.length = 0
	b.pos = 0
}

// Seal truncates the buffer at the cursor.
func (b *Buffer) Seal() {
	b.length = b.pos
}

// SealAt truncates the buffer at position, which must lie in [0, Len()].
// The cursor is clamped to the new length.
func (b *Buffer) SealAt(position int) error {
	if position < 0 || position > b.length {
		return newBoundsError("seal", position, 0, b.length, "position outside buffer")
	}
	b.length = position
	if b.pos > position {
		b.pos = position
	}
	return nil
}

// MoveTo places the cursor at offset, which must lie in [0, Len()].
func (b *Buffer) MoveTo(offset int) error {
	if offset < 0 || offset > b.length {
		return newBoundsError("moveTo", offset, 0, b.length, "offset outside buffer")
	}
	b.pos = offset
	return nil
}

// ForceMoveTo places the cursor at offset, extending the buffer with zero
// bytes when offset lies beyond the current length. This reserves room for a
// value, such as a header, that will be written later.
func (b *Buffer) ForceMoveTo(offset int) error {
	if offset < 0 {
		return newBoundsError("moveTo", offset, 0, b.length, "negative offset")
	}
	if offset > b.length {
		b.extend(offset)
	}
	b.pos = offset
	return nil
}

// Skip moves the cursor by n bytes, which may be negative, without leaving
// [0, Len()].
func (b *Buffer) Skip(n int) error {
	target := b.pos + n
	if target < 0 || target > b.length {
		return newBoundsError("skip", b.pos, n, b.length, "target outside buffer")
	}
	b.pos = target
	return nil
}

// ForceSkip advances the cursor by n bytes, extending the buffer with zero
// bytes if needed.
func (b *Buffer) ForceSkip(n int) error {
	if n < 0 {
		return newBoundsError("skip", b.pos, n, b.length, "negative count")
	}
	return b.ForceMoveTo(b.pos + n)
}

// Rewind moves the cursor back by n bytes without leaving [0, Len()].
func (b *Buffer) Rewind(n int) error {
	target := b.pos - n
	if target < 0 || target > b.length {
		return newBoundsError("rewind", b.pos, n, b.length, "target outside buffer")
	}
	b.pos = target
	return nil
}

// grow ensures the storage holds at least required bytes, doubling the
// capacity when that is larger. Content up to the logical length is kept.
func (b *Buffer) grow(required int) {
	if required <= len(b.data) {
		return
	}
	size := len(b.data) * 2
	if size < required {
		size = required
	}
	data := make([]byte, size)
	copy(data, b.data[:b.length])
	b.data = data
}

// extend raises the logical length to n, zero-filling the new region.
func (b *Buffer) extend(n int) {
	b.grow(n)
	clear(b.data[b.length:n])
	b.length = n
}

// reserve returns the n bytes at the cursor for writing and advances the
// cursor past them, growing the buffer as needed.
func (b *Buffer) reserve(n int) []byte {
	end := b.pos + n
	b.grow(end)
	if end > b.length {
		b.length = end
	}
	p := b.data[b.pos:end]
	b.pos = end
	return p
}

// next returns the n bytes at the cursor for reading and advances the cursor.
func (b *Buffer) next(op string, n int) ([]byte, error) {
	if n < 0 || n > b.length-b.pos {
		return nil, newUnderrun(op, b, n)
	}
	p := b.data[b.pos : b.pos+n]
	b.pos += n
	return p, nil
}

// Write appends p at the cursor. It implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	copy(b.reserve(len(p)), p)
	return len(p), nil
}

// WriteByte writes a single byte at the cursor. It implements io.ByteWriter.
func (b *Buffer) WriteByte(c byte) error {
	b.reserve(1)[0] = c
	return nil
}

// Read copies bytes from the cursor into p. It implements io.Reader and
// returns io.EOF once the cursor reaches the logical end.
func (b *Buffer) Read(p []byte) (int, error) {
	if b.pos >= b.length {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:b.length])
	b.pos += n
	return n, nil
}

// ReadByte reads a single byte at the cursor. It implements io.ByteReader.
func (b *Buffer) ReadByte() (byte, error) {
	if b.pos >= b.length {
		return 0, io.EOF
	}
	c := b.data[b.pos]
	b.pos++
	return c, nil
}

// WriteTo writes the remaining content to w. It implements io.WriterTo.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.RemainingBytes())
	b.pos += n
	return int64(n), err
}
