package bufferplus

import "bytes"

// Package-level functions operate on DefaultRegistry.

// Alloc returns an empty buffer with the given capacity.
func Alloc(size int) (*Buffer, error) {
	return NewBuffer(size)
}

// Wrap returns a buffer that takes ownership of p.
func Wrap(p []byte) *Buffer {
	return WrapBuffer(p)
}

// From returns a buffer holding a copy of p.
func From(p []byte) *Buffer {
	return FromBytes(p)
}

// Concat returns a new buffer holding the content of every buffer in order.
// The result uses the encoding and registry of the first buffer.
func Concat(bufs ...*Buffer) *Buffer {
	total := 0
	for _, b := range bufs {
		total += b.Len()
	}
	out := &Buffer{data: make([]byte, max(total, 1)), reg: DefaultRegistry}
	if len(bufs) > 0 {
		out.enc = bufs[0].enc
		out.reg = bufs[0].reg
	}
	for _, b := range bufs {
		copy(out.reserve(b.Len()), b.Bytes())
	}
	out.pos = 0
	return out
}

// Compare compares the content of two buffers lexicographically.
func Compare(a, b *Buffer) int {
	return bytes.Compare(a.Bytes(), b.Bytes())
}

// CreateSchema registers an empty schema in DefaultRegistry.
func CreateSchema(name string) (*Schema, error) {
	return DefaultRegistry.CreateSchema(name)
}

// CreateSchemaFromDefinition registers a schema built from def in DefaultRegistry.
func CreateSchemaFromDefinition(name string, def *Definition) (*Schema, error) {
	return DefaultRegistry.CreateSchemaFromDefinition(name, def)
}

// GetSchema returns the named schema of DefaultRegistry, or nil.
func GetSchema(name string) *Schema {
	s, _ := DefaultRegistry.Schema(name)
	return s
}

// HasSchema reports whether DefaultRegistry holds the named schema.
func HasSchema(name string) bool {
	return DefaultRegistry.HasSchema(name)
}

// RegisterCustomType registers a custom type in DefaultRegistry.
func RegisterCustomType(name string, read ReadFunc, write WriteFunc, size SizeFunc) error {
	return DefaultRegistry.RegisterCustomType(name, TypeFuncs{Read: read, Write: write, Size: size})
}

// HasCustomType reports whether DefaultRegistry holds the named custom type.
func HasCustomType(name string) bool {
	return DefaultRegistry.HasCustomType(name)
}

// ByteLength returns the encoded size of v as the named type.
func ByteLength(typeName string, v any) (int, error) {
	return DefaultRegistry.ByteLength(typeName, v)
}

// ByteLengthArray returns the encoded size of items as an array of typeName.
func ByteLengthArray(items any, typeName string) (int, error) {
	return DefaultRegistry.ByteLengthArray(items, typeName)
}

// ByteLengthSchema returns the encoded size of v under the named schema.
func ByteLengthSchema(name string, v any) (int, error) {
	return DefaultRegistry.ByteLengthSchema(name, v)
}
