package bufferplus

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-kit/log/level"
)

// opKind tags a compiled field operation.
type opKind uint8

const (
	opBuiltin opKind = iota
	opCustom
	opSchema
	opArray
)

// op is one compiled field. Programs are immutable once stored.
type op struct {
	key     string
	kind    opKind
	builtin builtin
	custom  *TypeFuncs
	schema  *Schema
	name    string // custom type or schema name
	elem    *op    // element operation of an array
}

// program is the compiled form of a schema.
type program struct {
	ops  []op
	refs []*Schema
}

func (o *op) describe() string {
	switch o.kind {
	case opBuiltin:
		return o.builtin.name
	case opCustom:
		return "custom:" + o.name
	case opSchema:
		return "schema:" + o.name
	default:
		return "array<" + o.elem.describe() + ">"
	}
}

// writeLayout hashes the field structure. Nested schemas contribute their
// layout rather than their name.
func (o *op) writeLayout(d *xxhash.Digest) error {
	_, _ = d.WriteString(o.key)
	_, _ = d.WriteString("\x00")
	switch o.kind {
	case opBuiltin:
		_, _ = d.WriteString(o.builtin.name)
	case opCustom:
		_, _ = d.WriteString("custom:" + o.name)
	case opSchema:
		_, _ = d.WriteString("{")
		if err := o.schema.writeLayout(d); err != nil {
			return err
		}
		_, _ = d.WriteString("}")
	default:
		_, _ = d.WriteString("array<")
		if err := o.elem.writeLayout(d); err != nil {
			return err
		}
		_, _ = d.WriteString(">")
	}
	_, _ = d.WriteString("\n")
	return nil
}

// compiler builds a schema and, depth first, every schema it references.
// Meeting a schema that is still being built means the references loop.
type compiler struct {
	reg      *Registry
	visiting map[*Schema]bool
	done     map[*Schema]bool
	path     []string
}

func (c *compiler) build(s *Schema) error {
	if c.done[s] {
		return nil
	}
	if c.visiting[s] {
		cycle := append(c.path, s.name)
		return NewSchemaError(s.name, "", "cyclic schema reference "+strings.Join(cycle, " -> "), ErrCyclicSchema)
	}
	c.visiting[s] = true
	c.path = append(c.path, s.name)
	defer func() {
		delete(c.visiting, s)
		c.path = c.path[:len(c.path)-1]
	}()

	p := s.prog.Load()
	fresh := p == nil
	if fresh {
		var err error
		if p, err = c.compile(s); err != nil {
			return err
		}
	}
	for _, ref := range p.refs {
		if err := c.build(ref); err != nil {
			return err
		}
	}
	if fresh {
		s.prog.Store(p)
		c.reg.metrics.builds.WithLabelValues(s.name).Inc()
		level.Debug(c.reg.logger).Log("msg", "built schema", "schema", s.name, "fields", len(p.ops))
	}
	c.done[s] = true
	return nil
}

func (c *compiler) compile(s *Schema) (*program, error) {
	root, fields := s.declaration()

	var entries []Field
	if root != nil {
		switch root.kind() {
		case TypeObject:
			props, err := c.objectFields(s.name, root)
			if err != nil {
				return nil, err
			}
			entries = props
		case TypeArray:
			entries = []Field{{Key: "", Def: root}}
		default:
			return nil, NewSchemaError(s.name, "", fmt.Sprintf("root definition must be object or array, got %q", root.Type), ErrSchemaDefinition)
		}
	}
	entries = append(entries, fields...)

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Key == "" && len(entries) > 1 {
			return nil, NewSchemaError(s.name, "", "a whole-value field must be the only field", ErrSchemaDefinition)
		}
		if seen[e.Key] {
			return nil, NewSchemaError(s.name, e.Key, "duplicate field", ErrSchemaDefinition)
		}
		seen[e.Key] = true
	}

	p := &program{ops: make([]op, 0, len(entries))}
	enc := s.encoding()
	for _, e := range entries {
		o, err := c.field(s, e.Key, e.Def, enc, p)
		if err != nil {
			return nil, err
		}
		p.ops = append(p.ops, o)
	}
	return p, nil
}

// objectFields lists the properties of an object definition in their
// declared order, checking that order and properties agree.
func (c *compiler) objectFields(schema string, def *Definition) ([]Field, error) {
	if def.Properties == nil {
		return nil, NewSchemaError(schema, "", "object definition requires properties", ErrSchemaDefinition)
	}
	order, sorted := def.fieldOrder()
	if sorted {
		level.Debug(c.reg.logger).Log("msg", "object definition has no order, using sorted property names", "schema", schema)
	}
	if len(order) != len(def.Properties) {
		return nil, NewSchemaError(schema, "", fmt.Sprintf("order lists %d names but there are %d properties", len(order), len(def.Properties)), ErrSchemaDefinition)
	}
	fields := make([]Field, 0, len(order))
	listed := make(map[string]bool, len(order))
	for _, name := range order {
		prop, ok := def.Properties[name]
		if !ok {
			return nil, NewSchemaError(schema, name, "order names a field missing from properties", ErrSchemaDefinition)
		}
		if listed[name] {
			return nil, NewSchemaError(schema, name, "order lists the field twice", ErrSchemaDefinition)
		}
		listed[name] = true
		fields = append(fields, Field{Key: name, Def: prop})
	}
	return fields, nil
}

func (c *compiler) field(s *Schema, key string, def *Definition, enc Encoding, p *program) (op, error) {
	if def == nil {
		return op{}, NewSchemaError(s.name, key, "missing definition", ErrSchemaDefinition)
	}
	switch def.kind() {
	case TypeObject:
		child, err := c.nested(s, key, objectSchemaName(s.name, key), def, enc)
		if err != nil {
			return op{}, err
		}
		p.refs = append(p.refs, child)
		return op{key: key, kind: opSchema, schema: child, name: child.name}, nil

	case TypeArray:
		if def.Items == nil {
			return op{}, NewSchemaError(s.name, key, "array definition requires items", ErrSchemaDefinition)
		}
		elem, err := c.element(s, key, def.Items, enc, p)
		if err != nil {
			return op{}, err
		}
		return op{key: key, kind: opArray, elem: &elem}, nil

	case TypeSchema:
		if def.Name == "" {
			return op{}, NewSchemaError(s.name, key, "schema reference requires a name", ErrSchemaDefinition)
		}
		ref, ok := c.reg.Schema(def.Name)
		if !ok {
			return op{}, NewSchemaError(s.name, key, fmt.Sprintf("unknown schema %q", def.Name), ErrUnknownSchema)
		}
		p.refs = append(p.refs, ref)
		return op{key: key, kind: opSchema, schema: ref, name: ref.name}, nil

	case TypeCustom:
		if def.Name == "" {
			return op{}, NewSchemaError(s.name, key, "custom type reference requires a name", ErrSchemaDefinition)
		}
		return c.customOp(s, key, def.Name)
	}

	if strings.TrimSpace(def.Type) == "" {
		return op{}, NewSchemaError(s.name, key, "definition requires a type", ErrSchemaDefinition)
	}
	if bt, ok := lookupBuiltin(def.Type); ok {
		return op{key: key, kind: opBuiltin, builtin: bt}, nil
	}
	return c.customOp(s, key, def.Type)
}

func (c *compiler) customOp(s *Schema, key, name string) (op, error) {
	t, ok := c.reg.customType(name)
	if !ok {
		return op{}, NewSchemaError(s.name, key, fmt.Sprintf("unknown custom type %q", name), ErrUnknownCustomType)
	}
	return op{key: key, kind: opCustom, custom: t, name: name}, nil
}

// element compiles the item definition of an array. Object and array items
// become an implicit schema named after the field.
func (c *compiler) element(s *Schema, key string, items *Definition, enc Encoding, p *program) (op, error) {
	switch items.kind() {
	case TypeObject, TypeArray:
		child, err := c.nested(s, key, arraySchemaName(s.name, key), items, enc)
		if err != nil {
			return op{}, err
		}
		p.refs = append(p.refs, child)
		return op{kind: opSchema, schema: child, name: child.name}, nil
	}
	o, err := c.field(s, key, items, enc, p)
	o.key = ""
	return o, err
}

func (c *compiler) nested(s *Schema, key, name string, def *Definition, enc Encoding) (*Schema, error) {
	child, err := c.reg.implicitSchema(s, key, name, def, enc)
	if err != nil {
		return nil, NewSchemaError(s.name, key, err.Error(), ErrDuplicateSchema)
	}
	level.Debug(c.reg.logger).Log("msg", "expanded nested definition", "schema", s.name, "field", key, "implicit", name)
	return child, nil
}

func objectSchemaName(parent, key string) string {
	return parent + "_" + key + "_obj"
}

func arraySchemaName(parent, key string) string {
	if key == "" {
		return parent + "_nested"
	}
	return parent + "_" + key
}
