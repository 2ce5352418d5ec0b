package bufferplus

import (
	"errors"
	"fmt"
	"math"
)

// decoder tracks a read position over the buffer's logical bytes. The buffer
// cursor itself only moves once the whole value has decoded.
type decoder struct {
	b   *Buffer
	off int
	end int
}

func (s *Schema) size(p *program, v any, enc Encoding) (int, error) {
	if whole(p) {
		n, err := s.opSize(&p.ops[0], v, enc)
		if err != nil {
			return 0, s.encodeError("", err)
		}
		return n, nil
	}
	fields, ok := toFields(v)
	if !ok {
		return 0, NewFieldEncodeError(s.name, "", "value is not an object", mismatch("object", v))
	}
	total := 0
	for i := range p.ops {
		o := &p.ops[i]
		fv, present := fields[o.key]
		if !present {
			return 0, missingField(s.name, o.key)
		}
		n, err := s.opSize(o, fv, enc)
		if err != nil {
			return 0, s.encodeError(o.key, err)
		}
		total += n
	}
	return total, nil
}

func (s *Schema) opSize(o *op, v any, enc Encoding) (int, error) {
	switch o.kind {
	case opBuiltin:
		return o.builtin.size(v, enc)
	case opCustom:
		return o.custom.size(v)
	case opSchema:
		cp, err := o.schema.program()
		if err != nil {
			return 0, err
		}
		return o.schema.size(cp, v, o.schema.encoding())
	default:
		list, ok := toItems(v)
		if !ok {
			return 0, mismatch("array", v)
		}
		n := ByteLengthVarUint(uint64(len(list)))
		if o.elem.kind == opBuiltin {
			if w := o.elem.builtin.fixedSize(); w > 0 {
				return n + w*len(list), nil
			}
		}
		for i, item := range list {
			sz, err := s.opSize(o.elem, item, enc)
			if err != nil {
				return 0, fmt.Errorf("element %d: %w", i, err)
			}
			n += sz
		}
		return n, nil
	}
}

func (s *Schema) write(p *program, b *Buffer, v any, enc Encoding) error {
	if whole(p) {
		if err := s.opWrite(&p.ops[0], b, v, enc); err != nil {
			return s.encodeError("", err)
		}
		return nil
	}
	fields, ok := toFields(v)
	if !ok {
		return NewFieldEncodeError(s.name, "", "value is not an object", mismatch("object", v))
	}
	for i := range p.ops {
		o := &p.ops[i]
		fv, present := fields[o.key]
		if !present {
			return missingField(s.name, o.key)
		}
		if err := s.opWrite(o, b, fv, enc); err != nil {
			return s.encodeError(o.key, err)
		}
	}
	return nil
}

func (s *Schema) opWrite(o *op, b *Buffer, v any, enc Encoding) error {
	switch o.kind {
	case opBuiltin:
		return o.builtin.write(b, v, enc)
	case opCustom:
		declared, err := o.custom.size(v)
		if err != nil {
			return err
		}
		start := b.pos
		if err := o.custom.Write(b, v); err != nil {
			return err
		}
		if written := b.pos - start; written != declared {
			return fmt.Errorf("%w: custom type %s wrote %d bytes, declared %d", ErrSizeMismatch, o.name, written, declared)
		}
		return nil
	case opSchema:
		cp, err := o.schema.program()
		if err != nil {
			return err
		}
		return o.schema.write(cp, b, v, o.schema.encoding())
	default:
		list, ok := toItems(v)
		if !ok {
			return mismatch("array", v)
		}
		if err := b.WriteVarUint(uint64(len(list))); err != nil {
			return err
		}
		for i, item := range list {
			if err := s.opWrite(o.elem, b, item, enc); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	}
}

func (s *Schema) read(p *program, d *decoder, enc Encoding) (any, error) {
	if whole(p) {
		start := d.off
		v, err := s.opRead(&p.ops[0], d, enc)
		if err != nil {
			return nil, s.decodeError("", start, err)
		}
		return v, nil
	}
	out := make(map[string]any, len(p.ops))
	for i := range p.ops {
		o := &p.ops[i]
		start := d.off
		v, err := s.opRead(o, d, enc)
		if err != nil {
			return nil, s.decodeError(o.key, start, err)
		}
		out[o.key] = v
	}
	return out, nil
}

func (s *Schema) opRead(o *op, d *decoder, enc Encoding) (any, error) {
	switch o.kind {
	case opBuiltin:
		v, n, err := o.builtin.read(d.b.data, d.off, d.end, enc)
		if err != nil {
			return nil, err
		}
		d.off += n
		return v, nil
	case opCustom:
		b := d.b
		saved := b.pos
		b.pos = d.off
		v, err := o.custom.Read(b)
		next := b.pos
		b.pos = saved
		if err != nil {
			return nil, err
		}
		if next < d.off || next > d.end {
			return nil, newBoundsError("read "+o.name, d.off, next-d.off, d.end, "custom reader moved the cursor out of range")
		}
		d.off = next
		return v, nil
	case opSchema:
		cp, err := o.schema.program()
		if err != nil {
			return nil, err
		}
		return o.schema.read(cp, d, o.schema.encoding())
	default:
		count, n, err := decodeVarUint(d.b.data, d.off, d.end)
		if err != nil {
			return nil, err
		}
		d.off += n
		remaining := uint64(d.end - d.off)
		// Builtin elements take at least one byte each.
		if o.elem.kind == opBuiltin && count > remaining {
			return nil, newBoundsError("read array", d.off, int(min(count, math.MaxInt32)), d.end, "element count exceeds remaining bytes")
		}
		items := make([]any, 0, min(count, remaining))
		for i := uint64(0); i < count; i++ {
			at := d.off
			v, err := s.opRead(o.elem, d, enc)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			// Empty elements cannot account for a count larger than the input.
			if d.off == at && count > remaining {
				return nil, newBoundsError("read array", at, int(min(count, math.MaxInt32)), d.end, "element count exceeds remaining bytes")
			}
			items = append(items, v)
		}
		return items, nil
	}
}

// whole reports whether the program encodes a bare value rather than an object.
func whole(p *program) bool {
	return len(p.ops) == 1 && p.ops[0].key == ""
}

func missingField(schema, key string) error {
	return NewFieldEncodeError(schema, key, "missing field", ErrTypeMismatch)
}

// encodeError attaches schema and field context unless a nested schema
// already did.
func (s *Schema) encodeError(field string, err error) error {
	var ee *EncodeError
	if errors.As(err, &ee) && ee.Schema != "" {
		return err
	}
	return NewFieldEncodeError(s.name, field, "encode field", err)
}

func (s *Schema) decodeError(field string, offset int, err error) error {
	var de *DecodeError
	if errors.As(err, &de) && de.Schema != "" {
		return err
	}
	return NewFieldDecodeError(s.name, field, offset, "decode field", err)
}
