package bufferplus

import (
	"fmt"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// Logger receives debug output from the schema compiler.
	// Nil means no logging.
	Logger log.Logger

	// Registerer exports schema metrics. Nil disables export.
	Registerer prometheus.Registerer

	// Name is added to exported metrics as the "registry" label, "default"
	// when empty. Registries sharing a Registerer need distinct names;
	// registering a second registry with the same name and Registerer panics.
	Name string
}

// Registry holds custom types and schemas by name.
//
// Registration is expected to finish before concurrent encoding and decoding
// start. The maps are guarded so that concurrent lookups are safe.
type Registry struct {
	mu sync.RWMutex

	// customTypes maps a case-sensitive name to its functions.
	customTypes map[string]*TypeFuncs

	// schemas maps schema name to schema.
	schemas map[string]*Schema

	// names lists schema names in registration order.
	names []string

	// buildMu serializes schema compilation across the registry.
	buildMu sync.Mutex

	logger  log.Logger
	metrics *metrics
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return NewRegistryWithOptions(RegistryOptions{})
}

// NewRegistryWithOptions creates an empty registry with the given options.
func NewRegistryWithOptions(opts RegistryOptions) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Registry{
		customTypes: make(map[string]*TypeFuncs),
		schemas:     make(map[string]*Schema),
		logger:      logger,
		metrics:     newMetrics(opts.Registerer, opts.Name),
	}
}

// DefaultRegistry is the registry used by the package-level functions and
// by buffers created without an explicit registry.
var DefaultRegistry = NewRegistry()

// Logger returns the registry logger.
func (r *Registry) Logger() log.Logger {
	return r.logger
}

// RegisterCustomType registers a custom type under name. Names are
// case-sensitive, must match [a-zA-Z0-9]+ and must not collide with a builtin
// type name or an existing custom type.
func (r *Registry) RegisterCustomType(name string, fns TypeFuncs) error {
	if !validTypeName(name) {
		return NewRegistrationError(name, "name must match [a-zA-Z0-9]+", ErrInvalidTypeName)
	}
	if IsBuiltinType(name) {
		return NewRegistrationError(name, "name is a builtin type", ErrDuplicateType)
	}
	if fns.Read == nil || fns.Write == nil {
		return NewRegistrationError(name, "read and write functions are required", ErrSchemaDefinition)
	}
	if fns.Size == nil && fns.FixedSize <= 0 {
		return NewRegistrationError(name, "size function or fixed size is required", ErrSchemaDefinition)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.customTypes[name]; ok {
		return NewRegistrationError(name, "custom type already registered", ErrDuplicateType)
	}
	r.customTypes[name] = &fns
	level.Debug(r.logger).Log("msg", "registered custom type", "type", name)
	return nil
}

func validTypeName(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// HasCustomType reports whether a custom type is registered under name.
func (r *Registry) HasCustomType(name string) bool {
	_, ok := r.customType(name)
	return ok
}

func (r *Registry) customType(name string) (*TypeFuncs, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.customTypes[name]
	return t, ok
}

// CreateSchema registers an empty schema. Fields are added with the
// Schema builder methods.
func (r *Registry) CreateSchema(name string) (*Schema, error) {
	return r.addSchema(name, nil, false)
}

// CreateSchemaFromDefinition registers a schema whose fields come from a
// declarative definition of type "object" or "array". The definition is
// expanded when the schema is first built.
func (r *Registry) CreateSchemaFromDefinition(name string, def *Definition) (*Schema, error) {
	if def == nil {
		return nil, NewSchemaError(name, "", "definition is nil", ErrSchemaDefinition)
	}
	return r.addSchema(name, def, false)
}

func (r *Registry) addSchema(name string, def *Definition, implicit bool) (*Schema, error) {
	if name == "" {
		return nil, NewRegistrationError(name, "schema name is required", ErrSchemaDefinition)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.schemas[name]; ok {
		return nil, NewRegistrationError(name, "schema already registered", ErrDuplicateSchema)
	}
	s := newSchema(r, name, def, implicit)
	r.schemas[name] = s
	r.names = append(r.names, name)
	level.Debug(r.logger).Log("msg", "created schema", "schema", name, "implicit", implicit)
	return s, nil
}

// implicitSchema returns the implicit schema expanding field key of owner,
// creating it when absent. The name belongs to the first owner that claims
// it; an explicit schema or another owner with the same name is an error.
func (r *Registry) implicitSchema(owner *Schema, key, name string, def *Definition, enc Encoding) (*Schema, error) {
	if s, ok := r.Schema(name); ok {
		if !s.implicit {
			return nil, fmt.Errorf("%w: %q is already an explicit schema", ErrDuplicateSchema, name)
		}
		if s.owner != owner || s.ownerKey != key {
			return nil, fmt.Errorf("%w: implicit schema %q already expands %s", ErrDuplicateSchema, name, qualify(s.owner.name, s.ownerKey))
		}
		s.redefine(def, enc)
		return s, nil
	}
	s, err := r.addSchema(name, def, true)
	if err != nil {
		return nil, err
	}
	s.owner, s.ownerKey = owner, key
	s.enc = enc
	return s, nil
}

// Schema returns the schema registered under name.
func (r *Registry) Schema(name string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	return s, ok
}

// HasSchema reports whether a schema is registered under name.
func (r *Registry) HasSchema(name string) bool {
	_, ok := r.Schema(name)
	return ok
}

// Schemas returns all schemas, implicit ones included, in registration order.
func (r *Registry) Schemas() []*Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Schema, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.schemas[name])
	}
	return out
}

// typeRef is a type name resolved for dispatch.
type typeRef struct {
	name    string
	builtin *builtin
	custom  *TypeFuncs
	schema  *Schema
}

// resolve looks a type name up as a builtin (case-insensitive), then as a
// custom type, then as a schema (both case-sensitive).
func (r *Registry) resolve(name string) (typeRef, error) {
	if bt, ok := lookupBuiltin(name); ok {
		return typeRef{name: bt.name, builtin: &bt}, nil
	}
	if t, ok := r.customType(name); ok {
		return typeRef{name: name, custom: t}, nil
	}
	if s, ok := r.Schema(name); ok {
		return typeRef{name: name, schema: s}, nil
	}
	return typeRef{}, fmt.Errorf("%w %q", ErrUnknownType, name)
}

func (t typeRef) write(b *Buffer, v any) error {
	switch {
	case t.builtin != nil:
		return t.builtin.write(b, v, b.enc)
	case t.custom != nil:
		return t.custom.Write(b, v)
	default:
		return t.schema.Encode(b, v)
	}
}

func (t typeRef) read(b *Buffer) (any, error) {
	switch {
	case t.builtin != nil:
		v, n, err := t.builtin.read(b.data, b.pos, b.length, b.enc)
		if err != nil {
			return nil, err
		}
		b.pos += n
		return v, nil
	case t.custom != nil:
		return t.custom.Read(b)
	default:
		return t.schema.Decode(b)
	}
}

func (t typeRef) size(v any, enc Encoding) (int, error) {
	switch {
	case t.builtin != nil:
		return t.builtin.size(v, enc)
	case t.custom != nil:
		return t.custom.size(v)
	default:
		return t.schema.ByteLength(v)
	}
}

// ByteLength returns the encoded size of v as the named type, using the
// default UTF-8 encoding for strings.
func (r *Registry) ByteLength(typeName string, v any) (int, error) {
	t, err := r.resolve(typeName)
	if err != nil {
		return 0, err
	}
	return t.size(v, UTF8)
}

// ByteLengthArray returns the encoded size of items as an array of typeName:
// a varint count followed by every element.
func (r *Registry) ByteLengthArray(items any, typeName string) (int, error) {
	list, ok := toItems(items)
	if !ok {
		return 0, NewEncodeError("items must be a slice", mismatch("slice", items))
	}
	t, err := r.resolve(typeName)
	if err != nil {
		return 0, err
	}
	return arraySize(list, t, UTF8)
}

func arraySize(list []any, t typeRef, enc Encoding) (int, error) {
	n := ByteLengthVarUint(uint64(len(list)))
	if t.builtin != nil {
		if w := t.builtin.fixedSize(); w > 0 {
			return n + w*len(list), nil
		}
	}
	for i, item := range list {
		sz, err := t.size(item, enc)
		if err != nil {
			return 0, NewFieldEncodeError("", fmt.Sprintf("[%d]", i), "element size", err)
		}
		n += sz
	}
	return n, nil
}

// ByteLengthSchema returns the encoded size of v under the named schema.
func (r *Registry) ByteLengthSchema(name string, v any) (int, error) {
	s, ok := r.Schema(name)
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownType, name)
	}
	return s.ByteLength(v)
}
