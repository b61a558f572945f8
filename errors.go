package goshape

import (
	"errors"
	"fmt"

	"github.com/goshape/goshape/internal/access"
)

// Error codes carried by the taxonomy types below (exported consts for IDE
// completion and type safety by convention).
const (
	CodeAbstractSchema    = "abstract_schema"
	CodeInvalidBase       = "invalid_base"
	CodeMethodMissing     = "method_missing"
	CodeMethodInvalid     = "method_invalid"
	CodeInvalidSpecifier  = "invalid_specifier"
	CodeUnknownFields     = "unknown_fields"
	CodeInvalidIdentifier = "invalid_identifier"
	CodeReservedWord      = "reserved_word"
)

var (
	// ErrSchema anchors the whole error taxonomy; errors.Is(err, ErrSchema)
	// matches every schema, method, field and identifier error.
	ErrSchema = errors.New("goshape: schema error")
	// ErrField matches field-related errors, identifier errors included.
	ErrField = fmt.Errorf("%w: field", ErrSchema)
)

// SchemaError reports misuse of the schema machinery itself, for example
// serializing through a schema that was never compiled.
type SchemaError struct {
	Code    string
	Message string
}

func (e *SchemaError) Error() string { return "goshape: " + e.Message }
func (e *SchemaError) Unwrap() error { return ErrSchema }

// MethodError reports a string specifier that does not resolve to a usable
// method in the schema namespace.
type MethodError struct {
	Code    string
	Method  string
	Message string
}

func (e *MethodError) Error() string { return "goshape: " + e.Message }
func (e *MethodError) Unwrap() error { return ErrSchema }

// FieldError reports an invalid transform specifier or a field subset naming
// unknown fields. Fields lists the offending names when the code is
// CodeUnknownFields.
type FieldError struct {
	Code    string
	Fields  []string
	Message string
}

func (e *FieldError) Error() string { return "goshape: " + e.Message }
func (e *FieldError) Unwrap() error { return ErrField }

// FieldIdentifierError reports a dynamically supplied field or namespace key
// that is not a legal identifier or is a reserved word.
type FieldIdentifierError struct {
	Code    string
	Name    string
	Message string
}

func (e *FieldIdentifierError) Error() string { return "goshape: " + e.Message }
func (e *FieldIdentifierError) Unwrap() error { return ErrField }

// AttributeError is the raw lookup failure produced by strict accessors. It
// sits outside the ErrSchema taxonomy on purpose: a missing attribute on a
// non-optional field propagates as the underlying lookup failure, unwrapped.
type AttributeError = access.AttributeError
