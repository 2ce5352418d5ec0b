package bufferplus

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/go-kit/log/level"
)

// Field is one declared entry of a schema. An empty Key stands for the whole
// value and is only valid as a schema's sole field.
type Field struct {
	Key string
	Def *Definition
}

// FieldInfo describes a compiled field.
type FieldInfo struct {
	Key  string
	Type string
}

// Schema is a named, ordered list of fields compiled into encode, decode and
// byte-length procedures. A schema compiles on first use or on Build, and
// adding a field afterwards discards the compiled form until the next use.
type Schema struct {
	reg      *Registry
	name     string
	implicit bool

	// owner and ownerKey name the schema field an implicit schema expands.
	owner    *Schema
	ownerKey string

	mu     sync.Mutex
	root   *Definition
	fields []Field
	enc    Encoding

	prog atomic.Pointer[program]
}

func newSchema(reg *Registry, name string, root *Definition, implicit bool) *Schema {
	return &Schema{
		reg:      reg,
		name:     name,
		implicit: implicit,
		root:     root,
		enc:      UTF8,
	}
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Implicit reports whether the schema was generated for a nested object or
// array definition.
func (s *Schema) Implicit() bool { return s.implicit }

// Definition returns the declarative definition the schema was created from,
// or nil for a schema built field by field.
func (s *Schema) Definition() *Definition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Built reports whether the schema currently holds a compiled form.
func (s *Schema) Built() bool { return s.prog.Load() != nil }

// Encoding returns the name of the text encoding used for string fields.
func (s *Schema) Encoding() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Name()
}

// SetEncoding sets the text encoding used for string fields.
func (s *Schema) SetEncoding(name string) error {
	enc, err := LookupEncoding(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.enc = enc
	s.mu.Unlock()
	return nil
}

func (s *Schema) encoding() Encoding {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc
}

// AddField appends a field of a builtin or custom type.
func (s *Schema) AddField(key, typeName string) *Schema {
	return s.AddFieldDef(key, TypeDef(typeName))
}

// AddSchemaField appends a field encoded with another schema of the same registry.
func (s *Schema) AddSchemaField(key string, other *Schema) *Schema {
	return s.AddFieldDef(key, SchemaDef(schemaName(other)))
}

// AddArrayField appends an array field whose elements are of a builtin or
// custom type.
func (s *Schema) AddArrayField(key, typeName string) *Schema {
	return s.AddFieldDef(key, ArrayDef(TypeDef(typeName)))
}

// AddSchemaArrayField appends an array field whose elements are encoded with
// another schema.
func (s *Schema) AddSchemaArrayField(key string, other *Schema) *Schema {
	return s.AddFieldDef(key, ArrayDef(SchemaDef(schemaName(other))))
}

// AddFieldDef appends a field described by a definition. Definition errors
// are reported by Build.
func (s *Schema) AddFieldDef(key string, def *Definition) *Schema {
	s.mu.Lock()
	s.fields = append(s.fields, Field{Key: key, Def: def})
	s.mu.Unlock()
	s.invalidate("field added")
	level.Debug(s.reg.logger).Log("msg", "added field", "schema", s.name, "field", key, "type", def.String())
	return s
}

func schemaName(s *Schema) string {
	if s == nil {
		return ""
	}
	return s.name
}

// redefine replaces the definition of an implicit schema.
func (s *Schema) redefine(def *Definition, enc Encoding) {
	s.mu.Lock()
	changed := s.root != def
	s.root = def
	s.enc = enc
	s.mu.Unlock()
	if changed {
		s.invalidate("definition replaced")
	}
}

func (s *Schema) invalidate(reason string) {
	if s.prog.Swap(nil) != nil {
		level.Debug(s.reg.logger).Log("msg", "schema invalidated", "schema", s.name, "reason", reason)
	}
}

// Build compiles the schema and every schema it references. It is called
// implicitly by Encode, Decode and ByteLength.
func (s *Schema) Build() error {
	s.reg.buildMu.Lock()
	defer s.reg.buildMu.Unlock()
	c := &compiler{
		reg:      s.reg,
		visiting: make(map[*Schema]bool),
		done:     make(map[*Schema]bool),
	}
	return c.build(s)
}

func (s *Schema) program() (*program, error) {
	for {
		if p := s.prog.Load(); p != nil {
			return p, nil
		}
		if err := s.Build(); err != nil {
			return nil, err
		}
	}
}

// Fields returns the compiled field layout.
func (s *Schema) Fields() ([]FieldInfo, error) {
	p, err := s.program()
	if err != nil {
		return nil, err
	}
	out := make([]FieldInfo, len(p.ops))
	for i := range p.ops {
		out[i] = FieldInfo{Key: p.ops[i].key, Type: p.ops[i].describe()}
	}
	return out, nil
}

// Fingerprint returns a 64-bit hash of the compiled layout, nested schemas
// included. Two schemas with the same fingerprint produce the same bytes for
// the same value, whatever their names.
func (s *Schema) Fingerprint() (uint64, error) {
	d := xxhash.New()
	if err := s.writeLayout(d); err != nil {
		return 0, err
	}
	return d.Sum64(), nil
}

func (s *Schema) writeLayout(d *xxhash.Digest) error {
	p, err := s.program()
	if err != nil {
		return err
	}
	for i := range p.ops {
		if err := p.ops[i].writeLayout(d); err != nil {
			return err
		}
	}
	return nil
}

// ByteLength returns the number of bytes Encode writes for v.
func (s *Schema) ByteLength(v any) (int, error) {
	p, err := s.program()
	if err != nil {
		return 0, err
	}
	return s.size(p, v, s.encoding())
}

// Encode writes v at the buffer cursor. The encoded size is computed first
// and the buffer grows once to hold it; the write pass then never
// reallocates. On failure the cursor and length are restored, although bytes
// overwritten inside the old length are not.
func (s *Schema) Encode(b *Buffer, v any) error {
	n, err := s.encode(b, v)
	s.reg.metrics.observe(s.name, "encode", n, err)
	return err
}

func (s *Schema) encode(b *Buffer, v any) (int, error) {
	p, err := s.program()
	if err != nil {
		return 0, err
	}
	enc := s.encoding()
	size, err := s.size(p, v, enc)
	if err != nil {
		return 0, err
	}
	start, length := b.pos, b.length
	b.grow(start + size)
	if err := s.write(p, b, v, enc); err != nil {
		b.pos, b.length = start, length
		return 0, err
	}
	return size, nil
}

// Decode reads one value starting at the buffer cursor. The cursor advances
// past the value on success and is left unchanged on failure.
func (s *Schema) Decode(b *Buffer) (any, error) {
	v, n, err := s.decode(b)
	s.reg.metrics.observe(s.name, "decode", n, err)
	return v, err
}

func (s *Schema) decode(b *Buffer) (any, int, error) {
	p, err := s.program()
	if err != nil {
		return nil, 0, err
	}
	d := &decoder{b: b, off: b.pos, end: b.length}
	v, err := s.read(p, d, s.encoding())
	if err != nil {
		return nil, 0, err
	}
	n := d.off - b.pos
	b.pos = d.off
	return v, n, nil
}

// Marshal encodes v into a new byte slice of exactly the encoded size.
func (s *Schema) Marshal(v any) ([]byte, error) {
	size, err := s.ByteLength(v)
	if err != nil {
		return nil, err
	}
	b := &Buffer{data: make([]byte, max(size, 1)), enc: UTF8, reg: s.reg}
	if err := s.Encode(b, v); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Unmarshal decodes one value from p. Trailing bytes are ignored.
func (s *Schema) Unmarshal(p []byte) (any, error) {
	return s.Decode(&Buffer{data: p, length: len(p), enc: UTF8, reg: s.reg})
}

// declaration returns the root definition and builder fields.
func (s *Schema) declaration() (*Definition, []Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root, slices.Clone(s.fields)
}
