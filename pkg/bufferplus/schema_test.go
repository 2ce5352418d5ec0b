package bufferplus

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func headerValue() map[string]any {
	return map[string]any{
		"headerLen": uint64(2000),
		"name":      "test header",
		"type":      uint8(8),
		"serial":    uint64(0x123456781234567),
		"source":    map[string]any{"type": "client", "ip": "127.0.0.1"},
		"items": []any{
			map[string]any{"group": "group1", "name": "中文測試1", "count": int64(5000)},
			map[string]any{"group": "group2", "name": "中文測試2", "count": int64(5001)},
			map[string]any{"group": "group3", "name": "中文測試3", "count": int64(0x123456789)},
		},
	}
}

func headerValue2() map[string]any {
	return map[string]any{
		"headerLen": uint64(3000),
		"name":      "test header2",
		"type":      uint8(8),
		"serial":    uint64(0xa23b567812345f7),
		"source":    map[string]any{"type": "client", "ip": "192.168.0.1"},
		"items": []any{
			map[string]any{"group": "group1", "name": "中文測試1", "count": int64(4000)},
			map[string]any{"group": "group2", "name": "中文測試2", "count": int64(4001)},
			map[string]any{"group": "group3", "name": "中文測試3", "count": int64(0xa23456f89)},
		},
	}
}

// newHeaderRegistry declares Location, Item and Header with the builder API.
func newHeaderRegistry(t testing.TB) *Registry {
	t.Helper()
	r := NewRegistry()

	location, err := r.CreateSchema("Location")
	require.NoError(t, err)
	location.AddField("type", "string").AddField("ip", "string")

	item, err := r.CreateSchema("Item")
	require.NoError(t, err)
	item.AddField("group", "string")
	item.AddField("count", "varint")
	item.AddField("name", "string")

	header, err := r.CreateSchema("Header")
	require.NoError(t, err)
	header.AddField("headerLen", "varuint")
	header.AddField("name", "string")
	header.AddField("type", "uint8")
	header.AddField("serial", "uint64le")
	header.AddSchemaField("source", location)
	header.AddSchemaArrayField("items", item)
	return r
}

func TestSchemaHeaderAuto(t *testing.T) {
	r := newHeaderRegistry(t)
	b := newTestBuffer(t, r, 1024)

	offset := 0
	require.NoError(t, b.WriteSchema("Header", headerValue()))
	n, err := r.ByteLengthSchema("Header", headerValue())
	require.NoError(t, err)
	offset += n
	require.Equal(t, offset, b.Len())

	require.NoError(t, b.WriteSchema("Header", headerValue2()))
	n, err = r.ByteLengthSchema("Header", headerValue2())
	require.NoError(t, err)
	offset += n
	require.Equal(t, offset, b.Len())

	decode := FromBuffer(b)
	got, err := decode.ReadSchema("Header")
	require.NoError(t, err)
	if diff := cmp.Diff(headerValue(), got); diff != "" {
		t.Errorf("first header mismatch (-want +got):\n%s", diff)
	}
	got, err = decode.ReadSchema("Header")
	require.NoError(t, err)
	if diff := cmp.Diff(headerValue2(), got); diff != "" {
		t.Errorf("second header mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 0, decode.Remaining())
}

func TestSchemaHeaderInsert(t *testing.T) {
	r := newHeaderRegistry(t)
	b := newTestBuffer(t, r, 1024)

	const testStr = "test string"
	require.NoError(t, b.WritePackedString(testStr))
	require.NoError(t, b.InsertSchema(0, "Header", headerValue()))

	s, ok := r.Schema("Header")
	require.True(t, ok)
	n, err := s.ByteLength(headerValue())
	require.NoError(t, err)
	require.Equal(t, ByteLengthPackedString(testStr)+n, b.Len())
	require.Equal(t, b.Len(), b.Position())

	decode := FromBuffer(b)
	got, err := decode.ReadSchema("Header")
	require.NoError(t, err)
	if diff := cmp.Diff(headerValue(), got); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	str, err := decode.ReadPackedString()
	require.NoError(t, err)
	require.Equal(t, testStr, str)
}

func TestSchemaFields(t *testing.T) {
	r := newHeaderRegistry(t)
	s, _ := r.Schema("Header")
	fields, err := s.Fields()
	require.NoError(t, err)
	want := []FieldInfo{
		{Key: "headerLen", Type: "varuint"},
		{Key: "name", Type: "string"},
		{Key: "type", Type: "uint8"},
		{Key: "serial", Type: "uint64le"},
		{Key: "source", Type: "schema:Location"},
		{Key: "items", Type: "array<schema:Item>"},
	}
	require.Equal(t, want, fields)
	require.True(t, s.Built())
}

// Scenario: nested object items inside an array become an implicit schema.
func TestSchemaNestedArrayDefinition(t *testing.T) {
	r := NewRegistry()
	s, err := r.CreateSchemaFromDefinition("Packet", ObjectDef(
		Prop("headerLen", TypeDef("varuint")),
		Prop("name", TypeDef("string")),
		Prop("items", ArrayDef(ObjectDef(
			Prop("group", TypeDef("string")),
			Prop("count", TypeDef("varint")),
		))),
	))
	require.NoError(t, err)

	v := map[string]any{
		"headerLen": uint64(2000),
		"name":      "t",
		"items":     []any{map[string]any{"group": "g1", "count": int64(5000)}},
	}
	data, err := s.Marshal(v)
	require.NoError(t, err)
	got, err := s.Unmarshal(data)
	require.NoError(t, err)
	if diff := cmp.Diff(v, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	items, ok := r.Schema("Packet_items")
	require.True(t, ok, "implicit schema for items not registered")
	require.True(t, items.Implicit())
	require.False(t, s.Implicit())
}

func TestSchemaNestedRoundTrip(t *testing.T) {
	r := NewRegistry()
	registerHeaderTypes(t, r)

	tag, err := r.CreateSchema("Tag")
	require.NoError(t, err)
	tag.AddField("key", "string").AddField("weight", "float64le")

	def := ObjectDef(
		Prop("id", TypeDef("uint32be")),
		Prop("owner", ObjectDef(
			Prop("name", TypeDef("string")),
			Prop("age", TypeDef("int16le")),
		)),
		Prop("tags", ArrayDef(SchemaDef("Tag"))),
		Prop("header", CustomDef("Header")),
		Prop("label", TypeDef("HeaderString")),
		Prop("matrix", ArrayDef(ArrayDef(TypeDef("int8")))),
		Prop("blob", TypeDef("buffer")),
		Prop("ok", TypeDef("boolean")),
	)
	s, err := r.CreateSchemaFromDefinition("Record", def)
	require.NoError(t, err)

	v := map[string]any{
		"id":    uint32(77),
		"owner": map[string]any{"name": "ada", "age": int16(-36)},
		"tags": []any{
			map[string]any{"key": "a", "weight": 0.5},
			map[string]any{"key": "b", "weight": -2.25},
		},
		"header": testHeader(3),
		"label":  "label text",
		"matrix": []any{[]any{int8(1), int8(-2)}, []any{}, []any{int8(127)}},
		"blob":   []byte{0xde, 0xad},
		"ok":     true,
	}

	size, err := s.ByteLength(v)
	require.NoError(t, err)

	b := newTestBuffer(t, r, 1)
	require.NoError(t, s.Encode(b, v))
	require.Equal(t, size, b.Len())
	require.Equal(t, size, b.Position())

	require.NoError(t, b.MoveTo(0))
	got, err := s.Decode(b)
	require.NoError(t, err)
	if diff := cmp.Diff(v, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, size, b.Position())

	for _, name := range []string{"Record_owner_obj", "Record_matrix"} {
		child, ok := r.Schema(name)
		require.True(t, ok, "missing implicit schema %s", name)
		require.True(t, child.Implicit())
	}
}

func TestSchemaRootArray(t *testing.T) {
	r := NewRegistry()
	list, err := r.CreateSchemaFromDefinition("List", ArrayDef(TypeDef("varint")))
	require.NoError(t, err)

	data, err := list.Marshal([]int{1, -2, 3})
	require.NoError(t, err)
	require.Equal(t, []byte{3, 2, 3, 6}, data)

	got, err := list.Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, []any{int64(1), int64(-2), int64(3)}, got)

	empty, err := list.Marshal([]any{})
	require.NoError(t, err)
	require.Equal(t, []byte{0}, empty)
	n, err := list.ByteLength([]any{})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	rows, err := r.CreateSchemaFromDefinition("Rows", ArrayDef(ObjectDef(Prop("x", TypeDef("uint8")))))
	require.NoError(t, err)
	data, err = rows.Marshal([]any{map[string]any{"x": 1}, map[string]any{"x": 2}})
	require.NoError(t, err)
	require.Equal(t, []byte{2, 1, 2}, data)
	require.True(t, r.HasSchema("Rows_nested"))
}

func TestSchemaCanonicalDecodeTypes(t *testing.T) {
	r := NewRegistry()
	var props []Property
	for _, name := range []string{
		"int8", "uint8", "int16be", "uint16le", "int32le", "uint32be",
		"int64be", "uint64le", "float32le", "doublebe", "varint", "varuint", "bool",
	} {
		props = append(props, Prop(name, TypeDef(name)))
	}
	s, err := r.CreateSchemaFromDefinition("Kinds", ObjectDef(props...))
	require.NoError(t, err)

	// Encoders accept any numeric Go type that fits.
	in := map[string]any{
		"int8": 1, "uint8": 2, "int16be": 3, "uint16le": uint(4), "int32le": int64(5),
		"uint32be": 6.0, "int64be": -7, "uint64le": json.Number("8"), "float32le": 1.5,
		"doublebe": float32(2.5), "varint": -9, "varuint": 10, "bool": false,
	}
	data, err := s.Marshal(in)
	require.NoError(t, err)
	got, err := s.Unmarshal(data)
	require.NoError(t, err)

	want := map[string]any{
		"int8": int8(1), "uint8": uint8(2), "int16be": int16(3), "uint16le": uint16(4),
		"int32le": int32(5), "uint32be": uint32(6), "int64be": int64(-7), "uint64le": uint64(8),
		"float32le": float32(1.5), "doublebe": float64(2.5), "varint": int64(-9),
		"varuint": uint64(10), "bool": false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded types mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaStructLikeValues(t *testing.T) {
	r := NewRegistry()
	s, err := r.CreateSchemaFromDefinition("Pair", ObjectDef(
		Prop("a", TypeDef("string")),
		Prop("b", TypeDef("string")),
	))
	require.NoError(t, err)
	data, err := s.Marshal(map[string]string{"a": "x", "b": "y"})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 'x', 1, 'y'}, data)
}

func TestSchemaCycle(t *testing.T) {
	r := NewRegistry()
	a, _ := r.CreateSchema("A")
	b, _ := r.CreateSchema("B")
	a.AddSchemaField("b", b)
	b.AddSchemaField("a", a)

	err := a.Build()
	require.ErrorIs(t, err, ErrCyclicSchema)
	require.ErrorIs(t, err, ErrSchemaDefinition)
	require.True(t, IsDefinitionError(err))
	require.Contains(t, err.Error(), "A -> B -> A")
	require.False(t, a.Built())
	require.False(t, b.Built())

	_, err = a.Marshal(map[string]any{})
	require.ErrorIs(t, err, ErrCyclicSchema)
}

func TestSchemaSelfReference(t *testing.T) {
	r := NewRegistry()
	node, err := r.CreateSchemaFromDefinition("Node", ObjectDef(
		Prop("value", TypeDef("varint")),
		Prop("children", ArrayDef(SchemaDef("Node"))),
	))
	require.NoError(t, err)
	require.ErrorIs(t, node.Build(), ErrCyclicSchema)
}

// A schema that was already built is still checked when a later schema
// closes a loop through it.
func TestSchemaCycleThroughBuiltSchema(t *testing.T) {
	r := NewRegistry()
	a, _ := r.CreateSchema("A")
	b, _ := r.CreateSchema("B")
	b.AddField("x", "uint8")
	a.AddSchemaField("b", b)
	require.NoError(t, a.Build())

	b.AddSchemaField("a", a)
	require.ErrorIs(t, a.Build(), ErrCyclicSchema)
}

func TestSchemaDefinitionErrors(t *testing.T) {
	object := func(order []string, props map[string]*Definition) *Definition {
		return &Definition{Type: TypeObject, Properties: props, Order: order}
	}
	two := func() map[string]*Definition {
		return map[string]*Definition{"a": TypeDef("uint8"), "b": TypeDef("uint8")}
	}

	tests := []struct {
		name string
		def  *Definition
		want error
		msg  string
	}{
		{"order_too_short", object([]string{"a"}, two()), ErrSchemaDefinition, "order lists 1 names"},
		{"order_unknown", object([]string{"a", "c"}, two()), ErrSchemaDefinition, "missing from properties"},
		{"order_duplicate", object([]string{"a", "a"}, two()), ErrSchemaDefinition, "twice"},
		{"no_properties", &Definition{Type: TypeObject}, ErrSchemaDefinition, "requires properties"},
		{"root_primitive", TypeDef("uint8"), ErrSchemaDefinition, "root definition"},
		{"array_no_items", ObjectDef(Prop("x", &Definition{Type: TypeArray})), ErrSchemaDefinition, "requires items"},
		{"unknown_schema", ObjectDef(Prop("x", SchemaDef("Missing"))), ErrUnknownSchema, "unknown schema"},
		{"unknown_custom", ObjectDef(Prop("x", CustomDef("Missing"))), ErrUnknownCustomType, "unknown custom type"},
		{"unknown_type", ObjectDef(Prop("x", TypeDef("uint128"))), ErrUnknownCustomType, "unknown custom type"},
		{"empty_type", ObjectDef(Prop("x", TypeDef(""))), ErrSchemaDefinition, "requires a type"},
		{"nil_property", ObjectDef(Prop("x", nil)), ErrSchemaDefinition, "missing definition"},
		{"schema_no_name", ObjectDef(Prop("x", SchemaDef(""))), ErrSchemaDefinition, "requires a name"},
		{"nested_error", ObjectDef(Prop("x", ObjectDef(Prop("y", TypeDef("nope"))))), ErrUnknownCustomType, "S_x_obj.y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			s, err := r.CreateSchemaFromDefinition("S", tt.def)
			require.NoError(t, err)
			err = s.Build()
			require.ErrorIs(t, err, tt.want)
			require.True(t, IsDefinitionError(err))
			require.Contains(t, err.Error(), tt.msg)

			var se *SchemaError
			require.ErrorAs(t, err, &se)
		})
	}
}

func TestSchemaSortedOrderFallback(t *testing.T) {
	r := NewRegistry()
	s, err := r.CreateSchemaFromDefinition("Sorted", &Definition{
		Type: TypeObject,
		Properties: map[string]*Definition{
			"zeta":  TypeDef("uint8"),
			"alpha": TypeDef("uint16le"),
		},
	})
	require.NoError(t, err)
	fields, err := s.Fields()
	require.NoError(t, err)
	require.Equal(t, []FieldInfo{{"alpha", "uint16le"}, {"zeta", "uint8"}}, fields)
}

func TestSchemaWholeValueMustBeAlone(t *testing.T) {
	r := NewRegistry()
	s, err := r.CreateSchemaFromDefinition("L", ArrayDef(TypeDef("uint8")))
	require.NoError(t, err)
	s.AddField("extra", "uint8")
	require.ErrorIs(t, s.Build(), ErrSchemaDefinition)

	d, _ := r.CreateSchema("D")
	d.AddField("a", "uint8").AddField("a", "uint16le")
	err = d.Build()
	require.ErrorIs(t, err, ErrSchemaDefinition)
	require.Contains(t, err.Error(), "duplicate field")
}

func TestSchemaImplicitNameCollision(t *testing.T) {
	r := NewRegistry()
	_, err := r.CreateSchema("P_child_obj")
	require.NoError(t, err)
	p, err := r.CreateSchemaFromDefinition("P", ObjectDef(
		Prop("child", ObjectDef(Prop("x", TypeDef("uint8")))),
	))
	require.NoError(t, err)
	err = p.Build()
	require.ErrorIs(t, err, ErrDuplicateSchema)
	require.True(t, IsDefinitionError(err))
}

// An implicit schema name belongs to the field that first expanded it.
func TestSchemaImplicitNameOwnership(t *testing.T) {
	t.Run("across schemas", func(t *testing.T) {
		r := NewRegistry()
		a, err := r.CreateSchemaFromDefinition("a", ObjectDef(
			Prop("b_c", ObjectDef(Prop("x", TypeDef("uint8")))),
		))
		require.NoError(t, err)
		value := map[string]any{"b_c": map[string]any{"x": 7}}
		data, err := a.Marshal(value)
		require.NoError(t, err)
		require.Equal(t, []byte{7}, data)

		ab, err := r.CreateSchemaFromDefinition("a_b", ObjectDef(
			Prop("c", ObjectDef(Prop("y", TypeDef("string")))),
		))
		require.NoError(t, err)
		err = ab.Build()
		require.ErrorIs(t, err, ErrDuplicateSchema)
		require.True(t, IsDefinitionError(err))
		require.Contains(t, err.Error(), "a.b_c")

		require.True(t, a.Built())
		data, err = a.Marshal(value)
		require.NoError(t, err)
		require.Equal(t, []byte{7}, data)
	})

	t.Run("within one schema", func(t *testing.T) {
		r := NewRegistry()
		s, err := r.CreateSchemaFromDefinition("S", ObjectDef(
			Prop("a", ObjectDef(Prop("x", TypeDef("uint8")))),
			Prop("a_obj", ArrayDef(ObjectDef(Prop("y", TypeDef("uint16be"))))),
		))
		require.NoError(t, err)
		err = s.Build()
		require.ErrorIs(t, err, ErrDuplicateSchema)
		require.Contains(t, err.Error(), "S_a_obj")
	})

	t.Run("same field after rebuild", func(t *testing.T) {
		r := NewRegistry()
		s, err := r.CreateSchemaFromDefinition("R", ObjectDef(
			Prop("child", ObjectDef(Prop("x", TypeDef("uint8")))),
		))
		require.NoError(t, err)
		require.NoError(t, s.Build())
		s.AddField("tail", "uint8")
		data, err := s.Marshal(map[string]any{"child": map[string]any{"x": 1}, "tail": 2})
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2}, data)
	})
}

func TestSchemaInvalidation(t *testing.T) {
	r := NewRegistry()
	s, _ := r.CreateSchema("Grow")
	s.AddField("a", "uint8")
	require.NoError(t, s.Build())
	require.True(t, s.Built())

	s.AddField("b", "uint16be")
	require.False(t, s.Built())

	data, err := s.Marshal(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 2}, data)
	require.True(t, s.Built())
}

func TestSchemaEncodeFailureRestoresCursor(t *testing.T) {
	r := NewRegistry()
	s, _ := r.CreateSchema("Two")
	s.AddField("a", "uint8").AddField("b", "uint8")

	b := newTestBuffer(t, r, 8)
	require.NoError(t, b.WriteString("xyz"))

	err := s.Encode(b, map[string]any{"a": 1, "b": "not a number"})
	require.ErrorIs(t, err, ErrTypeMismatch)
	require.True(t, IsDataError(err))
	var ee *EncodeError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, "Two", ee.Schema)
	require.Equal(t, "b", ee.Field)

	require.Equal(t, 3, b.Len())
	require.Equal(t, 3, b.Position())
}

func TestSchemaEncodeErrors(t *testing.T) {
	r := NewRegistry()
	s, _ := r.CreateSchema("One")
	s.AddField("a", "uint8").AddField("s", "string")

	b := newTestBuffer(t, r, 8)
	err := s.Encode(b, map[string]any{"a": 1})
	require.ErrorIs(t, err, ErrTypeMismatch)
	require.Contains(t, err.Error(), "One.s")

	require.ErrorIs(t, s.Encode(b, 42), ErrTypeMismatch)
	require.ErrorIs(t, s.Encode(b, map[string]any{"a": 300, "s": ""}), ErrValueRange)
	require.ErrorIs(t, s.Encode(b, map[string]any{"a": -1, "s": ""}), ErrValueRange)
	require.Equal(t, 0, b.Len())

	arr, _ := r.CreateSchema("Arr")
	arr.AddArrayField("xs", "uint8")
	require.ErrorIs(t, arr.Encode(b, map[string]any{"xs": "nope"}), ErrTypeMismatch)
}

func TestSchemaCustomSizeMismatch(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterCustomType("Liar", TypeFuncs{
		Read: func(b *Buffer) (any, error) { return b.ReadUint8() },
		Write: func(b *Buffer, v any) error {
			b.WriteUint8(1)
			return nil
		},
		FixedSize: 2,
	}))
	s, err := r.CreateSchemaFromDefinition("L", ObjectDef(Prop("x", TypeDef("Liar"))))
	require.NoError(t, err)

	b := newTestBuffer(t, r, 8)
	err = s.Encode(b, map[string]any{"x": nil})
	require.ErrorIs(t, err, ErrSizeMismatch)
	require.ErrorIs(t, err, ErrTypeMismatch)
	require.Equal(t, 0, b.Len())
}

func TestSchemaDecodeErrors(t *testing.T) {
	r := NewRegistry()
	s, err := r.CreateSchemaFromDefinition("Msg", ObjectDef(
		Prop("id", TypeDef("uint32le")),
		Prop("n", TypeDef("varuint")),
		Prop("text", TypeDef("string")),
	))
	require.NoError(t, err)

	data, err := s.Marshal(map[string]any{"id": 1, "n": 300, "text": "hello"})
	require.NoError(t, err)
	require.Len(t, data, 4+2+1+5)

	// Truncated text.
	b := wrapTestBuffer(t, r, data[:len(data)-1])
	_, err = s.Decode(b)
	require.ErrorIs(t, err, ErrBounds)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, "Msg", de.Schema)
	require.Equal(t, "text", de.Field)
	require.Equal(t, 6, de.Offset)
	require.Equal(t, 0, b.Position())

	// Varint running into the end.
	b = wrapTestBuffer(t, r, data[:5])
	_, err = s.Decode(b)
	require.ErrorIs(t, err, ErrDecodeRange)
	require.True(t, IsDataError(err))
	require.Equal(t, 0, b.Position())

	// Short fixed field.
	_, err = s.Unmarshal(data[:2])
	require.ErrorIs(t, err, ErrBounds)
}

// wrapTestBuffer wraps p in a buffer bound to r.
func wrapTestBuffer(t testing.TB, r *Registry, p []byte) *Buffer {
	t.Helper()
	b, err := WrapBufferWithOptions(p, Options{Registry: r})
	require.NoError(t, err)
	return b
}

func TestSchemaDecodeArrayCountTooLarge(t *testing.T) {
	r := NewRegistry()
	s, err := r.CreateSchemaFromDefinition("Arr", ArrayDef(TypeDef("uint32le")))
	require.NoError(t, err)
	// Count of 1000 with only four bytes of elements.
	_, err = s.Unmarshal([]byte{0xe8, 0x07, 1, 2, 3, 4})
	require.ErrorIs(t, err, ErrBounds)
}

func TestSchemaDecodeEmptyElementCount(t *testing.T) {
	r := NewRegistry()
	s, err := r.CreateSchemaFromDefinition("E", ObjectDef(
		Prop("list", ArrayDef(ObjectDef())),
		Prop("tail", TypeDef("uint8")),
	))
	require.NoError(t, err)

	// A count of 2^53-1 with seven bytes after it.
	_, err = s.Unmarshal([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x0f})
	require.ErrorIs(t, err, ErrBounds)

	got, err := s.Unmarshal([]byte{0x02, 0x09, 0x00})
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"list": []any{map[string]any{}, map[string]any{}},
		"tail": uint8(9),
	}, got)
}

func TestSchemaFingerprint(t *testing.T) {
	r := NewRegistry()
	x, _ := r.CreateSchema("X")
	x.AddField("a", "uint8").AddField("b", "string")
	y, _ := r.CreateSchema("Y")
	y.AddField("a", "UINT8").AddField("b", "string")
	z, _ := r.CreateSchema("Z")
	z.AddField("a", "uint8").AddField("b", "varint")

	fx, err := x.Fingerprint()
	require.NoError(t, err)
	fy, err := y.Fingerprint()
	require.NoError(t, err)
	fz, err := z.Fingerprint()
	require.NoError(t, err)
	require.Equal(t, fx, fy)
	require.NotEqual(t, fx, fz)

	// Nested schemas contribute their layout, not their name.
	p, _ := r.CreateSchema("P")
	p.AddSchemaField("inner", x)
	q, _ := r.CreateSchema("Q")
	q.AddSchemaField("inner", y)
	fp, err := p.Fingerprint()
	require.NoError(t, err)
	fq, err := q.Fingerprint()
	require.NoError(t, err)
	require.Equal(t, fp, fq)
}

func TestSchemaEncoding(t *testing.T) {
	r := NewRegistry()
	s, err := r.CreateSchemaFromDefinition("Wide", ObjectDef(
		Prop("s", TypeDef("string")),
		Prop("inner", ObjectDef(Prop("t", TypeDef("string")))),
	))
	require.NoError(t, err)
	require.NoError(t, s.SetEncoding("ucs2"))
	require.Equal(t, "ucs2", s.Encoding())
	require.ErrorIs(t, s.SetEncoding("klingon"), ErrConstruction)

	v := map[string]any{"s": "hi", "inner": map[string]any{"t": "yo"}}
	data, err := s.Marshal(v)
	require.NoError(t, err)
	require.Equal(t, []byte{4, 'h', 0, 'i', 0, 4, 'y', 0, 'o', 0}, data)

	got, err := s.Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestSchemaMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistryWithOptions(RegistryOptions{Registerer: reg})
	s, err := r.CreateSchemaFromDefinition("M", ObjectDef(Prop("a", TypeDef("uint16le"))))
	require.NoError(t, err)

	b := newTestBuffer(t, r, 16)
	require.NoError(t, s.Encode(b, map[string]any{"a": 1}))
	require.NoError(t, s.Encode(b, map[string]any{"a": 2}))
	require.Error(t, s.Encode(b, map[string]any{"a": "x"}))
	require.NoError(t, b.MoveTo(0))
	_, err = s.Decode(b)
	require.NoError(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(r.metrics.builds.WithLabelValues("M")))
	require.Equal(t, 3.0, testutil.ToFloat64(r.metrics.operations.WithLabelValues("M", "encode")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.metrics.operations.WithLabelValues("M", "decode")))
	require.Equal(t, 4.0, testutil.ToFloat64(r.metrics.bytes.WithLabelValues("encode")))
	require.Equal(t, 2.0, testutil.ToFloat64(r.metrics.bytes.WithLabelValues("decode")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.metrics.failures.WithLabelValues("encode", "type_mismatch")))

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	require.Contains(t, names, "bufferplus_schema_builds_total")
	require.Contains(t, names, "bufferplus_schema_operations_total")
}

func TestSchemaMetricsSharedRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewRegistryWithOptions(RegistryOptions{Registerer: reg, Name: "first"})
	second := NewRegistryWithOptions(RegistryOptions{Registerer: reg, Name: "second"})
	for _, r := range []*Registry{first, second} {
		s, err := r.CreateSchemaFromDefinition("M", ObjectDef(Prop("a", TypeDef("uint8"))))
		require.NoError(t, err)
		require.NoError(t, s.Build())
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	registries := map[string]bool{}
	for _, mf := range families {
		if mf.GetName() != "bufferplus_schema_builds_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "registry" {
					registries[l.GetValue()] = true
				}
			}
		}
	}
	require.Equal(t, map[string]bool{"first": true, "second": true}, registries)

	require.Panics(t, func() {
		NewRegistryWithOptions(RegistryOptions{Registerer: reg, Name: "first"})
	})
}

func TestSchemaDebugLogging(t *testing.T) {
	var out bytes.Buffer
	r := NewRegistryWithOptions(RegistryOptions{Logger: log.NewLogfmtLogger(log.NewSyncWriter(&out))})
	s, err := r.CreateSchemaFromDefinition("P", ObjectDef(
		Prop("child", ObjectDef(Prop("x", TypeDef("uint8")))),
	))
	require.NoError(t, err)
	require.NoError(t, s.Build())

	logs := out.String()
	require.Contains(t, logs, `msg="built schema" schema=P`)
	require.Contains(t, logs, "implicit=P_child_obj")
	require.Equal(t, 1, strings.Count(logs, "schema=P_child_obj fields=1"))
}

func TestSchemaAddFieldNilSchema(t *testing.T) {
	r := NewRegistry()
	s, _ := r.CreateSchema("N")
	s.AddSchemaField("x", nil)
	err := s.Build()
	require.ErrorIs(t, err, ErrSchemaDefinition)
	require.False(t, errors.Is(err, ErrUnknownSchema))
}

func BenchmarkSchemaEncode(b *testing.B) {
	r := newHeaderRegistry(b)
	s, _ := r.Schema("Header")
	v := headerValue()
	buf := newTestBuffer(b, r, 4096)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := s.Encode(buf, v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSchemaDecode(b *testing.B) {
	r := newHeaderRegistry(b)
	s, _ := r.Schema("Header")
	data, err := s.Marshal(headerValue())
	if err != nil {
		b.Fatal(err)
	}
	buf := wrapTestBuffer(b, r, data)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.pos = 0
		if _, err := s.Decode(buf); err != nil {
			b.Fatal(err)
		}
	}
}
