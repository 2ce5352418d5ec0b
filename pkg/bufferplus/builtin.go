package bufferplus

import (
	"math"

	"github.com/blockberries/bufferplus/internal/wire"
)

// write encodes v at the buffer cursor.
func (bt builtin) write(b *Buffer, v any, enc Encoding) error {
	switch bt.kind {
	case KindBool:
		x, ok := v.(bool)
		if !ok {
			return mismatch("bool", v)
		}
		b.WriteBool(x)
	case KindInt8, KindInt16, KindInt32, KindInt64:
		x, ok := toInt64(v)
		if !ok {
			return mismatch(bt.name, v)
		}
		if !intFits(bt.kind, x) {
			return outOfRange(bt.kind, v)
		}
		p := b.reserve(bt.fixedSize())
		putUint(p, uint64(x), bt)
	case KindUint8, KindUint16, KindUint32, KindUint64:
		x, ok := toUint64(v)
		if !ok {
			if i, isInt := toInt64(v); isInt && i < 0 {
				return outOfRange(bt.kind, v)
			}
			return mismatch(bt.name, v)
		}
		if !uintFits(bt.kind, x) {
			return outOfRange(bt.kind, v)
		}
		p := b.reserve(bt.fixedSize())
		putUint(p, x, bt)
	case KindFloat32:
		x, ok := toFloat64(v)
		if !ok {
			return mismatch(bt.name, v)
		}
		wire.PutFloat32(b.reserve(wire.Fixed32Size), float32(x), bt.order)
	case KindFloat64:
		x, ok := toFloat64(v)
		if !ok {
			return mismatch(bt.name, v)
		}
		wire.PutFloat64(b.reserve(wire.Fixed64Size), x, bt.order)
	case KindVarInt:
		x, ok := toInt64(v)
		if !ok {
			return mismatch(bt.name, v)
		}
		return b.WriteVarInt(x)
	case KindVarUint:
		x, ok := toUint64(v)
		if !ok {
			return mismatch(bt.name, v)
		}
		return b.WriteVarUint(x)
	case KindString:
		x, ok := v.(string)
		if !ok {
			return mismatch("string", v)
		}
		return b.writePackedText(x, enc)
	case KindBytes:
		switch x := v.(type) {
		case []byte:
			return b.WritePackedBytes(x)
		case string:
			return b.WritePackedBytes([]byte(x))
		default:
			return mismatch("[]byte", v)
		}
	default:
		return mismatch(bt.name, v)
	}
	return nil
}

func putUint(p []byte, x uint64, bt builtin) {
	switch len(p) {
	case 1:
		p[0] = byte(x)
	case 2:
		wire.PutFixed16(p, uint16(x), bt.order)
	case 4:
		wire.PutFixed32(p, uint32(x), bt.order)
	default:
		wire.PutFixed64(p, x, bt.order)
	}
}

func intFits(k Kind, x int64) bool {
	switch k {
	case KindInt8:
		return x >= math.MinInt8 && x <= math.MaxInt8
	case KindInt16:
		return x >= math.MinInt16 && x <= math.MaxInt16
	case KindInt32:
		return x >= math.MinInt32 && x <= math.MaxInt32
	default:
		return true
	}
}

func uintFits(k Kind, x uint64) bool {
	switch k {
	case KindUint8:
		return x <= math.MaxUint8
	case KindUint16:
		return x <= math.MaxUint16
	case KindUint32:
		return x <= math.MaxUint32
	default:
		return true
	}
}

// read decodes one value starting at data[off] without reading at or past
// end. It returns the canonical Go value and the number of bytes consumed.
func (bt builtin) read(data []byte, off, end int, enc Encoding) (any, int, error) {
	if w := bt.fixedSize(); w > 0 {
		if w > end-off {
			return nil, 0, newBoundsError("read "+bt.name, off, w, end, "buffer underrun")
		}
		return bt.readFixed(data[off : off+w]), w, nil
	}
	switch bt.kind {
	case KindVarInt:
		v, n, err := decodeVarInt(data, off, end)
		return v, n, err
	case KindVarUint:
		v, n, err := decodeVarUint(data, off, end)
		return v, n, err
	}

	size, n, err := decodeVarUint(data, off, end)
	if err != nil {
		return nil, 0, err
	}
	start := off + n
	if size > uint64(end-start) {
		return nil, 0, newBoundsError("read "+bt.name, start, int(min(size, math.MaxInt32)), end, "buffer underrun")
	}
	p := data[start : start+int(size)]
	if bt.kind == KindBytes {
		out := make([]byte, len(p))
		copy(out, p)
		return out, n + len(p), nil
	}
	s, err := enc.Decode(p)
	if err != nil {
		return nil, 0, err
	}
	return s, n + len(p), nil
}

func (bt builtin) readFixed(p []byte) any {
	switch bt.kind {
	case KindBool:
		return p[0] != 0
	case KindInt8:
		return int8(p[0])
	case KindUint8:
		return p[0]
	case KindInt16:
		return int16(wire.Fixed16(p, bt.order))
	case KindUint16:
		return wire.Fixed16(p, bt.order)
	case KindInt32:
		return int32(wire.Fixed32(p, bt.order))
	case KindUint32:
		return wire.Fixed32(p, bt.order)
	case KindInt64:
		return int64(wire.Fixed64(p, bt.order))
	case KindUint64:
		return wire.Fixed64(p, bt.order)
	case KindFloat32:
		return wire.Float32(p, bt.order)
	default:
		return wire.Float64(p, bt.order)
	}
}

// size returns the encoded size of v without encoding it.
func (bt builtin) size(v any, enc Encoding) (int, error) {
	if w := bt.fixedSize(); w > 0 {
		return w, nil
	}
	switch bt.kind {
	case KindVarInt:
		x, ok := toInt64(v)
		if !ok {
			return 0, mismatch(bt.name, v)
		}
		return wire.SvarintSize(x), nil
	case KindVarUint:
		x, ok := toUint64(v)
		if !ok {
			return 0, mismatch(bt.name, v)
		}
		return wire.UvarintSize(x), nil
	case KindString:
		x, ok := v.(string)
		if !ok {
			return 0, mismatch("string", v)
		}
		return packedTextSize(x, enc)
	default:
		switch x := v.(type) {
		case []byte:
			return ByteLengthPackedBytes(x), nil
		case string:
			return ByteLengthPackedString(x), nil
		default:
			return 0, mismatch("[]byte", v)
		}
	}
}
