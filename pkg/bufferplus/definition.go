package bufferplus

import (
	"sort"
	"strings"
)

// Definition type names with structural meaning. Any other type is a builtin
// or custom type name.
const (
	TypeObject = "object"
	TypeArray  = "array"
	TypeSchema = "schema"
	TypeCustom = "custom"
)

// Definition is a node of a declarative schema definition:
//
//	{type: "object", properties: {name: def, ...}, order: [name, ...]}
//	{type: "array", items: def}
//	{type: "schema", name: "Other"}
//	{type: "custom", name: "MyType"}
//	{type: "<builtin>"}
//
// Order fixes the field sequence of an object and must list every property
// exactly once.
type Definition struct {
	Type       string
	Name       string
	Properties map[string]*Definition
	Order      []string
	Items      *Definition
}

// TypeDef returns a definition for a builtin or custom type name.
func TypeDef(typeName string) *Definition {
	return &Definition{Type: typeName}
}

// ArrayDef returns an array definition.
func ArrayDef(items *Definition) *Definition {
	return &Definition{Type: TypeArray, Items: items}
}

// SchemaDef returns a reference to a registered schema.
func SchemaDef(name string) *Definition {
	return &Definition{Type: TypeSchema, Name: name}
}

// CustomDef returns a reference to a registered custom type.
func CustomDef(name string) *Definition {
	return &Definition{Type: TypeCustom, Name: name}
}

// Property is one named entry of an object definition.
type Property struct {
	Name string
	Def  *Definition
}

// ObjectDef returns an object definition whose order is the order of props.
func ObjectDef(props ...Property) *Definition {
	def := &Definition{
		Type:       TypeObject,
		Properties: make(map[string]*Definition, len(props)),
		Order:      make([]string, 0, len(props)),
	}
	for _, p := range props {
		def.Properties[p.Name] = p.Def
		def.Order = append(def.Order, p.Name)
	}
	return def
}

// Prop is shorthand for a Property.
func Prop(name string, def *Definition) Property {
	return Property{Name: name, Def: def}
}

// kind returns the lower-cased structural type of the definition.
func (d *Definition) kind() string {
	switch t := strings.ToLower(strings.TrimSpace(d.Type)); t {
	case TypeObject, TypeArray, TypeSchema, TypeCustom:
		return t
	default:
		return ""
	}
}

// fieldOrder returns the property order of an object definition. Without an
// explicit order the sorted property names are used and sorted is true.
func (d *Definition) fieldOrder() (order []string, sorted bool) {
	if d.Order != nil {
		return d.Order, false
	}
	names := make([]string, 0, len(d.Properties))
	for name := range d.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, true
}

// String returns a compact description such as "array<string>".
func (d *Definition) String() string {
	if d == nil {
		return "<nil>"
	}
	switch d.kind() {
	case TypeArray:
		return "array<" + d.Items.String() + ">"
	case TypeSchema:
		return "schema:" + d.Name
	case TypeCustom:
		return "custom:" + d.Name
	case TypeObject:
		order, _ := d.fieldOrder()
		return "object{" + strings.Join(order, ",") + "}"
	default:
		return d.Type
	}
}
