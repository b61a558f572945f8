package goshape

import (
	"fmt"
	"go/token"
)

// SchemaOption configures New, MustNew and NewMixin.
type SchemaOption func(*schemaConfig)

type schemaConfig struct {
	specs       []FieldSpec
	bases       []Base
	namespace   map[string]any
	settings    Settings
	hasSettings bool
}

// Fields declares the schema's fields in order.
func Fields(specs ...FieldSpec) SchemaOption {
	return func(c *schemaConfig) { c.specs = append(c.specs, specs...) }
}

// Bases lists the schemas and mixins this schema derives from, most derived
// first.
func Bases(bases ...Base) SchemaOption {
	return func(c *schemaConfig) { c.bases = append(c.bases, bases...) }
}

// Namespace supplies class-body style bindings: alias strings keyed by field
// name and methods referenced by string specifiers.
func Namespace(ns map[string]any) SchemaOption {
	return func(c *schemaConfig) {
		if c.namespace == nil {
			c.namespace = make(map[string]any, len(ns))
		}
		for k, v := range ns {
			c.namespace[k] = v
		}
	}
}

// Optional marks fields whose failed retrieval is silently suppressed.
func Optional(names ...string) SchemaOption {
	return func(c *schemaConfig) {
		c.settings.Optional = append(c.settings.Optional, names...)
		c.hasSettings = true
	}
}

// DisableAccessor marks fields whose name is one literal attribute, exempt
// from double-underscore path splitting.
func DisableAccessor(names ...string) SchemaOption {
	return func(c *schemaConfig) {
		c.settings.DisableAccessor = append(c.settings.DisableAccessor, names...)
		c.hasSettings = true
	}
}

// WithSettings replaces the schema settings wholesale.
func WithSettings(st Settings) SchemaOption {
	return func(c *schemaConfig) {
		c.settings = st
		c.hasSettings = true
	}
}

// New builds and compiles a schema from explicit arguments, the runtime
// equivalent of a static declaration. Field and namespace keys must be legal
// identifiers and not reserved words; when bases are given, at least one must
// be a schema. All failures surface here, before any evaluation.
func New(name string, opts ...SchemaOption) (*Schema, error) {
	cfg := schemaConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	for _, fs := range cfg.specs {
		if err := checkIdentifier(fs.Name); err != nil {
			return nil, err
		}
	}
	for key := range cfg.namespace {
		if err := checkIdentifier(key); err != nil {
			return nil, err
		}
	}

	if len(cfg.bases) > 0 {
		schemaBase := false
		for _, b := range cfg.bases {
			if b != nil && b.isSchema() {
				schemaBase = true
				break
			}
		}
		if !schemaBase {
			return nil, &SchemaError{
				Code:    CodeInvalidBase,
				Message: "at least one base must be a schema",
			}
		}
	}

	s := &Schema{
		name:        name,
		specs:       cfg.specs,
		namespace:   cfg.namespace,
		settings:    cfg.settings,
		hasSettings: cfg.hasSettings,
		bases:       cfg.bases,
	}
	if err := s.compile(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNew is New, panicking on error. Intended for package-level schema
// declarations.
func MustNew(name string, opts ...SchemaOption) *Schema {
	s, err := New(name, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// NewMixin packages field specifiers and namespace bindings for reuse as a
// schema base. Mixins are not compiled and cannot serialize on their own.
func NewMixin(opts ...SchemaOption) *Mixin {
	cfg := schemaConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Mixin{
		specs:       cfg.specs,
		namespace:   cfg.namespace,
		settings:    cfg.settings,
		hasSettings: cfg.hasSettings,
	}
}

func checkIdentifier(name string) error {
	if token.IsKeyword(name) {
		return &FieldIdentifierError{
			Code:    CodeReservedWord,
			Name:    name,
			Message: fmt.Sprintf("field names must not be reserved words: %q", name),
		}
	}
	if !token.IsIdentifier(name) {
		return &FieldIdentifierError{
			Code:    CodeInvalidIdentifier,
			Name:    name,
			Message: fmt.Sprintf("field names must be valid identifiers: %q", name),
		}
	}
	return nil
}
