package bufferplus

// InsertBytes inserts p at offset. Bytes in [offset, Len()) shift right by
// len(p); if offset lies beyond the current length the gap is zero-filled.
// The cursor advances by len(p) only when offset <= Position(), so a
// sequential writer is not disturbed by a backpatch further ahead.
func (b *Buffer) InsertBytes(offset int, p []byte) error {
	if offset < 0 {
		return newBoundsError("insert", offset, len(p), b.length, "negative offset")
	}
	n := len(p)
	oldLen := b.length
	end := max(oldLen, offset) + n
	b.grow(end)
	if offset < oldLen {
		copy(b.data[offset+n:end], b.data[offset:oldLen])
	} else {
		clear(b.data[oldLen:offset])
	}
	copy(b.data[offset:], p)
	b.length = end
	if offset <= b.pos {
		b.pos += n
	}
	return nil
}

// InsertString inserts s, encoded with the default encoding, at offset.
func (b *Buffer) InsertString(offset int, s string) error {
	p, err := b.enc.Encode(s)
	if err != nil {
		return err
	}
	return b.InsertBytes(offset, p)
}

// Insert runs write against a scratch buffer and inserts what it produced at
// offset, with the same shift and cursor rules as InsertBytes. Any write
// method can be turned into an insert this way:
//
//	b.Insert(0, func(h *Buffer) error {
//		h.WriteUint32LE(uint32(bodyLen))
//		return nil
//	})
//
// Nothing is inserted if write fails.
func (b *Buffer) Insert(offset int, write func(*Buffer) error) error {
	return b.insertSized(offset, 0, write)
}

func (b *Buffer) insertSized(offset, sizeHint int, write func(*Buffer) error) error {
	if offset < 0 {
		return newBoundsError("insert", offset, 0, b.length, "negative offset")
	}
	scratch := getScratch(b, sizeHint)
	defer putScratch(scratch)
	if err := write(scratch); err != nil {
		return err
	}
	return b.InsertBytes(offset, scratch.Bytes())
}
