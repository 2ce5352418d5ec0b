package bufferplus

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

// NamedDefinition is one entry of a definition file.
type NamedDefinition struct {
	Name       string
	Definition *Definition
}

// ParseDefinitionJSON parses a single definition. Object properties keep the
// order in which they appear in the document unless an explicit "order" is
// given. A bare string is shorthand for {"type": <string>}.
func ParseDefinitionJSON(data []byte) (*Definition, error) {
	iter := jsoniter.ParseBytes(jsoniter.ConfigCompatibleWithStandardLibrary, data)
	def := readJSONDefinition(iter)
	if err := jsonError(iter); err != nil {
		return nil, err
	}
	return def, nil
}

// ParseDefinitionSetJSON parses a document of the form
// {"schemas": {"Name": definition, ...}} in document order.
func ParseDefinitionSetJSON(data []byte) ([]NamedDefinition, error) {
	iter := jsoniter.ParseBytes(jsoniter.ConfigCompatibleWithStandardLibrary, data)
	var (
		out   []NamedDefinition
		found bool
	)
	iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		if key != "schemas" {
			it.Skip()
			return it.Error == nil
		}
		found = true
		seen := make(map[string]bool)
		it.ReadObjectCB(func(it *jsoniter.Iterator, name string) bool {
			if seen[name] {
				it.ReportError("schemas", fmt.Sprintf("schema %q defined twice", name))
				return false
			}
			seen[name] = true
			out = append(out, NamedDefinition{Name: name, Definition: readJSONDefinition(it)})
			return it.Error == nil
		})
		return it.Error == nil
	})
	if err := jsonError(iter); err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: definition document has no schemas mapping", ErrSchemaDefinition)
	}
	return out, nil
}

func readJSONDefinition(it *jsoniter.Iterator) *Definition {
	switch it.WhatIsNext() {
	case jsoniter.StringValue:
		return TypeDef(it.ReadString())
	case jsoniter.ObjectValue:
	default:
		it.ReportError("definition", "expected an object or a type name")
		return nil
	}

	def := &Definition{}
	var (
		docOrder []string
		ordered  bool
	)
	it.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		switch key {
		case "type":
			def.Type = it.ReadString()
		case "name":
			def.Name = it.ReadString()
		case "items":
			def.Items = readJSONDefinition(it)
		case "order":
			ordered = true
			def.Order = []string{}
			it.ReadArrayCB(func(it *jsoniter.Iterator) bool {
				def.Order = append(def.Order, it.ReadString())
				return it.Error == nil
			})
		case "properties":
			def.Properties = make(map[string]*Definition)
			it.ReadObjectCB(func(it *jsoniter.Iterator, name string) bool {
				if _, dup := def.Properties[name]; dup {
					it.ReportError("properties", fmt.Sprintf("property %q defined twice", name))
					return false
				}
				docOrder = append(docOrder, name)
				def.Properties[name] = readJSONDefinition(it)
				return it.Error == nil
			})
		default:
			it.Skip()
		}
		return it.Error == nil
	})
	if !ordered && def.Properties != nil {
		def.Order = docOrder
	}
	return def
}

func jsonError(it *jsoniter.Iterator) error {
	if it.Error == nil || it.Error == io.EOF {
		return nil
	}
	return fmt.Errorf("%w: parse json: %v", ErrSchemaDefinition, it.Error)
}

// ParseDefinitionYAML parses a single definition from YAML with the same
// rules as ParseDefinitionJSON.
func ParseDefinitionYAML(data []byte) (*Definition, error) {
	root, err := yamlRoot(data)
	if err != nil {
		return nil, err
	}
	return readYAMLDefinition(root)
}

// ParseDefinitionSetYAML parses a document with a top-level "schemas" mapping.
func ParseDefinitionSetYAML(data []byte) ([]NamedDefinition, error) {
	root, err := yamlRoot(data)
	if err != nil {
		return nil, err
	}
	if root.Kind != yaml.MappingNode {
		return nil, yamlError(root, "definition document must be a mapping")
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "schemas" {
			continue
		}
		schemas := root.Content[i+1]
		if schemas.Kind != yaml.MappingNode {
			return nil, yamlError(schemas, "schemas must be a mapping")
		}
		seen := make(map[string]bool)
		out := make([]NamedDefinition, 0, len(schemas.Content)/2)
		for j := 0; j+1 < len(schemas.Content); j += 2 {
			name := schemas.Content[j].Value
			if seen[name] {
				return nil, yamlError(schemas.Content[j], fmt.Sprintf("schema %q defined twice", name))
			}
			seen[name] = true
			def, err := readYAMLDefinition(schemas.Content[j+1])
			if err != nil {
				return nil, err
			}
			out = append(out, NamedDefinition{Name: name, Definition: def})
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: definition document has no schemas mapping", ErrSchemaDefinition)
}

func yamlRoot(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", ErrSchemaDefinition, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty yaml document", ErrSchemaDefinition)
	}
	return doc.Content[0], nil
}

func readYAMLDefinition(n *yaml.Node) (*Definition, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return TypeDef(n.Value), nil
	case yaml.MappingNode:
	default:
		return nil, yamlError(n, "expected a mapping or a type name")
	}

	def := &Definition{}
	var (
		docOrder []string
		ordered  bool
	)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		switch key {
		case "type":
			def.Type = val.Value
		case "name":
			def.Name = val.Value
		case "items":
			items, err := readYAMLDefinition(val)
			if err != nil {
				return nil, err
			}
			def.Items = items
		case "order":
			ordered = true
			def.Order = []string{}
			if err := val.Decode(&def.Order); err != nil {
				return nil, yamlError(val, "order must be a list of names")
			}
		case "properties":
			if val.Kind != yaml.MappingNode {
				return nil, yamlError(val, "properties must be a mapping")
			}
			def.Properties = make(map[string]*Definition, len(val.Content)/2)
			for j := 0; j+1 < len(val.Content); j += 2 {
				name := val.Content[j].Value
				if _, dup := def.Properties[name]; dup {
					return nil, yamlError(val.Content[j], fmt.Sprintf("property %q defined twice", name))
				}
				prop, err := readYAMLDefinition(val.Content[j+1])
				if err != nil {
					return nil, err
				}
				docOrder = append(docOrder, name)
				def.Properties[name] = prop
			}
		}
	}
	if !ordered && def.Properties != nil {
		def.Order = docOrder
	}
	return def, nil
}

func yamlError(n *yaml.Node, msg string) error {
	return fmt.Errorf("%w: line %d: %s", ErrSchemaDefinition, n.Line, msg)
}

// ParseDefinitionSet parses a definition document, choosing the JSON parser
// for documents that start with '{' and YAML otherwise.
func ParseDefinitionSet(data []byte) ([]NamedDefinition, error) {
	if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		return ParseDefinitionSetJSON(data)
	}
	return ParseDefinitionSetYAML(data)
}

// LoadDefinitionFile reads a definition document. Files ending in .json are
// parsed as JSON, everything else as YAML.
func LoadDefinitionFile(path string) ([]NamedDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseDefinitionSetJSON(data)
	}
	return ParseDefinitionSetYAML(data)
}

// RegisterDefinitions creates a schema for every definition and then builds
// them all, so definitions may reference each other in any order.
func (r *Registry) RegisterDefinitions(defs []NamedDefinition) ([]*Schema, error) {
	schemas := make([]*Schema, 0, len(defs))
	for _, d := range defs {
		s, err := r.CreateSchemaFromDefinition(d.Name, d.Definition)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}
	for _, s := range schemas {
		if err := s.Build(); err != nil {
			return nil, err
		}
	}
	return schemas, nil
}
