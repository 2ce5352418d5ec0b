// Package bufferplus provides a growable byte buffer with cursor and
// random-access I/O, and a schema compiler that turns declarative field lists
// into compact, tag-free binary encoders and decoders.
package bufferplus

import (
	"errors"
	"fmt"

	"github.com/blockberries/bufferplus/internal/wire"
)

// Sentinel errors for common conditions.
// These can be checked using errors.Is().
var (
	// ErrConstruction indicates an invalid buffer size or encoding name.
	ErrConstruction = errors.New("bufferplus: invalid buffer construction")

	// ErrBounds indicates a read or cursor move outside the logical length.
	ErrBounds = errors.New("bufferplus: out of bounds")

	// ErrTypeMismatch indicates a value of the wrong type or shape was supplied.
	ErrTypeMismatch = errors.New("bufferplus: type mismatch")

	// ErrUnknownType indicates a type name resolved to neither a builtin, a
	// registered custom type nor a schema. It is also an ErrTypeMismatch.
	ErrUnknownType error = &classError{"bufferplus: unknown type", ErrTypeMismatch}

	// ErrValueRange indicates a value does not fit the declared type.
	// It is also an ErrTypeMismatch.
	ErrValueRange error = &classError{"bufferplus: value out of range", ErrTypeMismatch}

	// ErrSizeMismatch indicates a custom writer produced a different number
	// of bytes than its size function declared. It is also an ErrTypeMismatch.
	ErrSizeMismatch error = &classError{"bufferplus: written size differs from declared size", ErrTypeMismatch}

	// ErrSchemaDefinition indicates a malformed schema definition.
	ErrSchemaDefinition = errors.New("bufferplus: invalid schema definition")

	// ErrUnknownSchema indicates a reference to a schema that is not registered.
	ErrUnknownSchema = errors.New("bufferplus: unknown schema")

	// ErrUnknownCustomType indicates a reference to a custom type that is not registered.
	ErrUnknownCustomType = errors.New("bufferplus: unknown custom type")

	// ErrCyclicSchema indicates schemas that reference each other in a loop.
	ErrCyclicSchema = errors.New("bufferplus: cyclic schema reference")

	// ErrDecodeRange indicates a varint ran past the end of the input.
	ErrDecodeRange = fmt.Errorf("bufferplus: decode range: %w", wire.ErrVarintRange)

	// ErrDuplicateSchema indicates a schema name was registered more than once.
	ErrDuplicateSchema = errors.New("bufferplus: duplicate schema registration")

	// ErrDuplicateType indicates a custom type was registered under a builtin name.
	ErrDuplicateType = errors.New("bufferplus: duplicate type registration")

	// ErrInvalidTypeName indicates a custom type name outside [a-zA-Z0-9]+.
	ErrInvalidTypeName = errors.New("bufferplus: invalid custom type name")
)

// classError is a sentinel that also matches a broader class sentinel.
type classError struct {
	msg   string
	class error
}

func (e *classError) Error() string { return e.msg }

func (e *classError) Is(target error) bool { return target == e.class }

// BufferError describes a failed buffer operation.
type BufferError struct {
	// Op is the buffer operation, such as "read" or "moveTo".
	Op string

	// Offset is the cursor position or target offset involved.
	Offset int

	// Size is the number of bytes requested, if applicable.
	Size int

	// Length is the logical buffer length at the time of the failure.
	Length int

	// Message describes what went wrong.
	Message string

	// Cause is the underlying error, typically ErrBounds or ErrConstruction.
	Cause error
}

// Error returns a formatted error message.
func (e *BufferError) Error() string {
	if e.Size > 0 {
		return fmt.Sprintf("bufferplus: %s %d bytes at offset %d (length %d): %s", e.Op, e.Size, e.Offset, e.Length, e.Message)
	}
	return fmt.Sprintf("bufferplus: %s at offset %d (length %d): %s", e.Op, e.Offset, e.Length, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *BufferError) Unwrap() error {
	return e.Cause
}

func newBoundsError(op string, offset, size, length int, message string) *BufferError {
	return &BufferError{
		Op:      op,
		Offset:  offset,
		Size:    size,
		Length:  length,
		Message: message,
		Cause:   ErrBounds,
	}
}

func newUnderrun(op string, b *Buffer, size int) *BufferError {
	return newBoundsError(op, b.pos, size, b.length, "buffer underrun")
}

// EncodeError provides detailed context for encoding failures.
type EncodeError struct {
	// Schema is the name of the schema being encoded (if any).
	Schema string

	// Field is the name of the field being encoded (if applicable).
	Field string

	// Message describes what went wrong.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a formatted error message.
func (e *EncodeError) Error() string {
	msg := withCause(e.Message, e.Cause)
	if prefix := qualify(e.Schema, e.Field); prefix != "" {
		return fmt.Sprintf("bufferplus: encode %s: %s", prefix, msg)
	}
	return fmt.Sprintf("bufferplus: encode: %s", msg)
}

// Unwrap returns the underlying cause of the error.
func (e *EncodeError) Unwrap() error {
	return e.Cause
}

// NewEncodeError creates a new EncodeError.
func NewEncodeError(message string, cause error) *EncodeError {
	return &EncodeError{
		Message: message,
		Cause:   cause,
	}
}

// NewFieldEncodeError creates an EncodeError for a specific field.
func NewFieldEncodeError(schema, field, message string, cause error) *EncodeError {
	return &EncodeError{
		Schema:  schema,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// DecodeError provides detailed context for decoding failures.
type DecodeError struct {
	// Schema is the name of the schema being decoded (if any).
	Schema string

	// Field is the name of the field being decoded (if applicable).
	Field string

	// Offset is the absolute buffer offset where the error occurred.
	Offset int

	// Message describes what went wrong.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a formatted error message.
func (e *DecodeError) Error() string {
	msg := withCause(e.Message, e.Cause)
	if prefix := qualify(e.Schema, e.Field); prefix != "" {
		return fmt.Sprintf("bufferplus: decode %s at offset %d: %s", prefix, e.Offset, msg)
	}
	return fmt.Sprintf("bufferplus: decode at offset %d: %s", e.Offset, msg)
}

// Unwrap returns the underlying cause of the error.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// NewFieldDecodeError creates a DecodeError for a specific field.
func NewFieldDecodeError(schema, field string, offset int, message string, cause error) *DecodeError {
	return &DecodeError{
		Schema:  schema,
		Field:   field,
		Offset:  offset,
		Message: message,
		Cause:   cause,
	}
}

// SchemaError reports a definition problem found while building a schema.
type SchemaError struct {
	// Schema is the name of the schema being built.
	Schema string

	// Field is the offending field, if known.
	Field string

	// Message describes what went wrong.
	Message string

	// Cause is the underlying error, usually one of the definition sentinels.
	Cause error
}

// Error returns a formatted error message.
func (e *SchemaError) Error() string {
	if prefix := qualify(e.Schema, e.Field); prefix != "" {
		return fmt.Sprintf("bufferplus: schema %s: %s", prefix, e.Message)
	}
	return fmt.Sprintf("bufferplus: schema: %s", e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error matches the target. Every SchemaError is an
// ErrSchemaDefinition in addition to its specific cause.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaDefinition
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(schema, field, message string, cause error) *SchemaError {
	return &SchemaError{
		Schema:  schema,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// RegistrationError represents an error during schema or custom type registration.
type RegistrationError struct {
	// Name is the schema or type name being registered.
	Name string

	// Message describes what went wrong.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a formatted error message.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("bufferplus: register %s: %s", e.Name, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *RegistrationError) Unwrap() error {
	return e.Cause
}

// NewRegistrationError creates a new RegistrationError.
func NewRegistrationError(name, message string, cause error) *RegistrationError {
	return &RegistrationError{
		Name:    name,
		Message: message,
		Cause:   cause,
	}
}

func withCause(message string, cause error) string {
	if cause == nil {
		return message
	}
	return message + ": " + cause.Error()
}

func qualify(schema, field string) string {
	switch {
	case schema != "" && field != "":
		return schema + "." + field
	case schema != "":
		return schema
	default:
		return field
	}
}

// IsDefinitionError returns true if the error stems from a malformed schema
// or registration. Such errors are raised before any data is processed and
// will not succeed on retry.
func IsDefinitionError(err error) bool {
	switch {
	case errors.Is(err, ErrSchemaDefinition),
		errors.Is(err, ErrUnknownSchema),
		errors.Is(err, ErrUnknownCustomType),
		errors.Is(err, ErrCyclicSchema),
		errors.Is(err, ErrDuplicateSchema),
		errors.Is(err, ErrDuplicateType),
		errors.Is(err, ErrInvalidTypeName):
		return true
	default:
		return false
	}
}

// IsDataError returns true if the error was caused by the bytes or values
// being processed rather than by the schema.
func IsDataError(err error) bool {
	switch {
	case errors.Is(err, ErrBounds),
		errors.Is(err, ErrTypeMismatch),
		errors.Is(err, ErrValueRange),
		errors.Is(err, ErrSizeMismatch),
		errors.Is(err, ErrDecodeRange):
		return true
	default:
		return false
	}
}

// errorClass maps an error onto the label used by the errors metric.
func errorClass(err error) string {
	switch {
	case errors.Is(err, ErrDecodeRange):
		return "decode_range"
	case errors.Is(err, ErrBounds):
		return "bounds"
	case IsDefinitionError(err):
		return "definition"
	case errors.Is(err, ErrConstruction):
		return "construction"
	default:
		return "type_mismatch"
	}
}
