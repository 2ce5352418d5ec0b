package bufferplus

import (
	"fmt"
)

// WriteValue writes v as the named type, which may be a builtin, a custom
// type or a schema.
func (b *Buffer) WriteValue(typeName string, v any) error {
	t, err := b.reg.resolve(typeName)
	if err != nil {
		return err
	}
	return b.restoreOnError(func() error { return t.write(b, v) })
}

// ReadValue reads one value of the named type.
func (b *Buffer) ReadValue(typeName string) (any, error) {
	t, err := b.reg.resolve(typeName)
	if err != nil {
		return nil, err
	}
	start := b.pos
	v, err := t.read(b)
	if err != nil {
		b.pos = start
		return nil, err
	}
	return v, nil
}

// WriteArray writes items as a varint count followed by each element encoded
// as typeName. items may be []any or any other slice except []byte.
func (b *Buffer) WriteArray(items any, typeName string) error {
	list, ok := toItems(items)
	if !ok {
		return NewEncodeError("items must be a slice", mismatch("slice", items))
	}
	t, err := b.reg.resolve(typeName)
	if err != nil {
		return err
	}
	return b.restoreOnError(func() error {
		if err := b.WriteVarUint(uint64(len(list))); err != nil {
			return err
		}
		for i, item := range list {
			if err := t.write(b, item); err != nil {
				return NewFieldEncodeError("", fmt.Sprintf("[%d]", i), "write "+t.name, err)
			}
		}
		return nil
	})
}

// ReadArray reads a varint count followed by that many elements of typeName.
func (b *Buffer) ReadArray(typeName string) ([]any, error) {
	t, err := b.reg.resolve(typeName)
	if err != nil {
		return nil, err
	}
	start := b.pos
	count, err := b.ReadVarUint()
	if err != nil {
		return nil, err
	}
	// Builtin elements occupy at least one byte each.
	if t.builtin != nil && count > uint64(b.Remaining()) {
		err := newBoundsError("readArray", b.pos, int(min(count, 1<<31)), b.length, "buffer underrun")
		b.pos = start
		return nil, err
	}
	remaining := uint64(b.Remaining())
	values := make([]any, 0, min(count, remaining))
	for i := uint64(0); i < count; i++ {
		at := b.pos
		v, err := t.read(b)
		if err != nil {
			offset := b.pos
			b.pos = start
			return nil, NewFieldDecodeError("", fmt.Sprintf("[%d]", i), offset, "read "+t.name, err)
		}
		if b.pos == at && count > remaining {
			b.pos = start
			return nil, newBoundsError("readArray", at, int(min(count, 1<<31)), b.length, "element count exceeds remaining bytes")
		}
		values = append(values, v)
	}
	return values, nil
}

// WriteCustom writes v with the named custom type.
func (b *Buffer) WriteCustom(name string, v any) error {
	t, ok := b.reg.customType(name)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownType, name)
	}
	return b.restoreOnError(func() error { return t.Write(b, v) })
}

// ReadCustom reads one value of the named custom type.
func (b *Buffer) ReadCustom(name string) (any, error) {
	t, ok := b.reg.customType(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, name)
	}
	start := b.pos
	v, err := t.Read(b)
	if err != nil {
		b.pos = start
		return nil, err
	}
	return v, nil
}

// WriteSchema encodes v at the cursor with the named schema.
func (b *Buffer) WriteSchema(name string, v any) error {
	s, err := b.schema(name)
	if err != nil {
		return err
	}
	return s.Encode(b, v)
}

// InsertSchema encodes v with the named schema and inserts the result at
// offset, shifting the bytes that follow.
func (b *Buffer) InsertSchema(offset int, name string, v any) error {
	s, err := b.schema(name)
	if err != nil {
		return err
	}
	size, err := s.ByteLength(v)
	if err != nil {
		return err
	}
	return b.insertSized(offset, size, func(h *Buffer) error {
		return s.Encode(h, v)
	})
}

// ReadSchema decodes one value at the cursor with the named schema.
func (b *Buffer) ReadSchema(name string) (any, error) {
	s, err := b.schema(name)
	if err != nil {
		return nil, err
	}
	return s.Decode(b)
}

func (b *Buffer) schema(name string) (*Schema, error) {
	s, ok := b.reg.Schema(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, name)
	}
	return s, nil
}

// restoreOnError runs write and, if it fails, puts the cursor and length back
// where they were. Bytes already overwritten inside the old length are not
// restored.
func (b *Buffer) restoreOnError(write func() error) error {
	pos, length := b.pos, b.length
	if err := write(); err != nil {
		b.pos, b.length = pos, length
		return err
	}
	return nil
}
