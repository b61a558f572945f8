// Package dsl provides the fluent declaration surface for goshape schemas.
// It is sugar over goshape.New: every builder funnels into the same merge and
// compile path as the runtime factory.
package dsl

import (
	goshape "github.com/goshape/goshape"
)

// Builder accumulates a schema declaration.
type Builder struct {
	name      string
	specs     []goshape.FieldSpec
	namespace map[string]any
	optional  []string
	literal   []string
	bases     []goshape.Base
}

type fieldStep struct {
	b    *Builder
	name string
}

// Schema starts a new schema declaration.
func Schema(name string) *Builder {
	return &Builder{name: name, namespace: map[string]any{}}
}

// Field declares a field with its transform specifier. Passthrough, funcs,
// method-name strings, schemas and goshape.Nested values are accepted, same as
// the factory.
func (b *Builder) Field(name string, spec any) *fieldStep {
	b.specs = append(b.specs, goshape.F(name, spec))
	return &fieldStep{b: b, name: name}
}

// Alias overrides the output key for the current field.
func (f *fieldStep) Alias(alias string) *Builder {
	f.b.namespace[f.name] = alias
	return f.b
}

// Optional marks the current field optional: a failed retrieval omits the
// alias instead of failing.
func (f *fieldStep) Optional() *Builder {
	f.b.optional = append(f.b.optional, f.name)
	return f.b
}

// Literal exempts the current field's name from double-underscore path
// splitting.
func (f *fieldStep) Literal() *Builder {
	f.b.literal = append(f.b.literal, f.name)
	return f.b
}

func (f *fieldStep) Field(name string, spec any) *fieldStep { return f.b.Field(name, spec) }
func (f *fieldStep) Method(name string, fn any) *Builder    { return f.b.Method(name, fn) }
func (f *fieldStep) Extend(bases ...goshape.Base) *Builder  { return f.b.Extend(bases...) }
func (f *fieldStep) Build() (*goshape.Schema, error)        { return f.b.Build() }
func (f *fieldStep) MustBuild() *goshape.Schema             { return f.b.MustBuild() }

// Method binds a named method into the schema namespace for string specifiers.
// fn receives the whole source object.
func (b *Builder) Method(name string, fn any) *Builder {
	b.namespace[name] = fn
	return b
}

// Extend appends base schemas or mixins, most derived first.
func (b *Builder) Extend(bases ...goshape.Base) *Builder {
	b.bases = append(b.bases, bases...)
	return b
}

// Optional marks several fields optional at once.
func (b *Builder) Optional(names ...string) *Builder {
	b.optional = append(b.optional, names...)
	return b
}

// DisableAccessor exempts several field names from path splitting at once.
func (b *Builder) DisableAccessor(names ...string) *Builder {
	b.literal = append(b.literal, names...)
	return b
}

// Build compiles the declaration.
func (b *Builder) Build() (*goshape.Schema, error) {
	opts := []goshape.SchemaOption{goshape.Fields(b.specs...)}
	if len(b.namespace) > 0 {
		opts = append(opts, goshape.Namespace(b.namespace))
	}
	if len(b.bases) > 0 {
		opts = append(opts, goshape.Bases(b.bases...))
	}
	if len(b.optional) > 0 {
		opts = append(opts, goshape.Optional(b.optional...))
	}
	if len(b.literal) > 0 {
		opts = append(opts, goshape.DisableAccessor(b.literal...))
	}
	return goshape.New(b.name, opts...)
}

// MustBuild is Build, panicking on error.
func (b *Builder) MustBuild() *goshape.Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// Attr declares a pass-through field.
func Attr() any { return goshape.Passthrough }

// Func declares a post-retrieval transform.
func Func(fn any) any { return fn }

// Method references a namespace method by name; it replaces attribute
// retrieval for the field.
func Method(name string) any { return name }

// Nested embeds a sub-schema using the single-object rule.
func Nested(s *goshape.Schema) any { return s }

// NestedMany embeds a sub-schema applied element-wise over a sequence.
func NestedMany(s *goshape.Schema) any { return goshape.NestedMany(s) }
