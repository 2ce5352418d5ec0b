package bufferplus

import (
	"sort"
	"strings"

	"github.com/blockberries/bufferplus/internal/wire"
)

// Kind identifies the wire representation of a builtin type.
type Kind uint8

// Builtin kinds.
const (
	KindInvalid Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindVarInt
	KindVarUint
	KindString
	KindBytes
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindVarInt:
		return "varint"
	case KindVarUint:
		return "varuint"
	case KindString:
		return "string"
	case KindBytes:
		return "buffer"
	default:
		return "invalid"
	}
}

// FixedSize returns the encoded width of the kind, or 0 if the size depends
// on the value.
func (k Kind) FixedSize() int {
	switch k {
	case KindBool, KindInt8, KindUint8:
		return wire.Fixed8Size
	case KindInt16, KindUint16:
		return wire.Fixed16Size
	case KindInt32, KindUint32, KindFloat32:
		return wire.Fixed32Size
	case KindInt64, KindUint64, KindFloat64:
		return wire.Fixed64Size
	default:
		return 0
	}
}

// builtin is a resolved builtin type: a kind plus byte order for multi-byte
// fixed-width values.
type builtin struct {
	name  string
	kind  Kind
	order wire.ByteOrder
}

func (bt builtin) fixedSize() int {
	return bt.kind.FixedSize()
}

var builtins = map[string]builtin{}

func init() {
	add := func(canonical string, kind Kind, order wire.ByteOrder, aliases ...string) {
		bt := builtin{name: canonical, kind: kind, order: order}
		builtins[canonical] = bt
		for _, a := range aliases {
			builtins[a] = bt
		}
	}
	le, be := wire.LittleEndian, wire.BigEndian

	add("bool", KindBool, le, "boolean")
	add("int8", KindInt8, le)
	add("int16be", KindInt16, be)
	add("int16le", KindInt16, le)
	add("int32be", KindInt32, be)
	add("int32le", KindInt32, le)
	add("int64be", KindInt64, be)
	add("int64le", KindInt64, le)
	add("uint8", KindUint8, le)
	add("uint16be", KindUint16, be)
	add("uint16le", KindUint16, le)
	add("uint32be", KindUint32, be)
	add("uint32le", KindUint32, le)
	add("uint64be", KindUint64, be)
	add("uint64le", KindUint64, le)
	add("float32be", KindFloat32, be, "floatbe")
	add("float32le", KindFloat32, le, "floatle")
	add("float64be", KindFloat64, be, "doublebe")
	add("float64le", KindFloat64, le, "doublele")
	add("varint", KindVarInt, le)
	add("varuint", KindVarUint, le)
	add("string", KindString, le)
	add("buffer", KindBytes, le)
}

// lookupBuiltin resolves a builtin type name. Matching is case-insensitive.
func lookupBuiltin(name string) (builtin, bool) {
	bt, ok := builtins[strings.ToLower(strings.TrimSpace(name))]
	return bt, ok
}

// IsBuiltinType reports whether name is a builtin type name.
func IsBuiltinType(name string) bool {
	_, ok := lookupBuiltin(name)
	return ok
}

// BuiltinTypes returns every accepted builtin type name, aliases included,
// in sorted order.
func BuiltinTypes() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadFunc reads one value of a custom type at the buffer cursor.
type ReadFunc func(b *Buffer) (any, error)

// WriteFunc writes one value of a custom type at the buffer cursor.
type WriteFunc func(b *Buffer, v any) error

// SizeFunc returns the number of bytes WriteFunc will produce for v.
type SizeFunc func(v any) (int, error)

// TypeFuncs is a registered custom type. Write must produce exactly the
// number of bytes reported by Size, or FixedSize when it is positive.
type TypeFuncs struct {
	Read      ReadFunc
	Write     WriteFunc
	Size      SizeFunc
	FixedSize int
}

func (t *TypeFuncs) size(v any) (int, error) {
	if t.FixedSize > 0 {
		return t.FixedSize, nil
	}
	return t.Size(v)
}

// Fixed returns a SizeFunc that always reports n.
func Fixed(n int) SizeFunc {
	return func(any) (int, error) { return n, nil }
}
