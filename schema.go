package goshape

import (
	"fmt"
	"reflect"

	"github.com/goshape/goshape/internal/access"
)

// FieldSpec pairs a declared field name with its transform specifier.
//
// A specifier is one of:
//   - Passthrough: the retrieved value is used as-is
//   - a func of one argument (optionally returning an error as a second
//     result): applied to the retrieved value
//   - a string: the name of a namespace method that receives the whole source
//     object; it replaces attribute retrieval entirely
//   - a *Schema: the retrieved value is serialized with that schema
//     (single-object rule)
//   - a *Nested: as *Schema, but honoring its own single/many rule
type FieldSpec struct {
	Name string
	Spec any
}

// F is shorthand for building a FieldSpec.
func F(name string, spec any) FieldSpec { return FieldSpec{Name: name, Spec: spec} }

type passthrough struct{}

// Passthrough declares a field without a transform; the raw retrieved value is
// bound to the alias.
var Passthrough any = passthrough{}

// Nested embeds a sub-schema's output as the field value, applying the
// sub-schema's own single/many rule.
type Nested struct {
	Schema *Schema
	Many   bool
}

// NestedMany declares a field whose retrieved value is a sequence serialized
// element-wise with s.
func NestedMany(s *Schema) *Nested { return &Nested{Schema: s, Many: true} }

// Settings carries the per-schema options recognized at compile time.
type Settings struct {
	// Optional lists fields whose failed retrieval is suppressed instead of
	// surfaced; the alias is omitted from the result.
	Optional []string
	// DisableAccessor lists fields whose name is taken as one literal
	// attribute, never split on the double-underscore delimiter.
	DisableAccessor []string
}

// Transform is the compiled form of a post-retrieval transform.
type Transform func(v any) (any, error)

// Field is one compiled schema field: output alias, accessor and optional
// transform. Fields are immutable once built and shared by all instances of
// their schema.
type Field struct {
	Name      string
	Alias     string
	getter    access.Getter
	transform Transform
}

// Base is implemented by values usable as schema bases: *Schema and *Mixin.
type Base interface {
	declaredSpecs() []FieldSpec
	declaredNamespace() map[string]any
	declaredSettings() (Settings, bool)
	parents() []Base
	isSchema() bool
}

// Mixin contributes field specifiers and namespace bindings to schemas that
// list it as a base, without being a schema itself.
type Mixin struct {
	specs       []FieldSpec
	namespace   map[string]any
	settings    Settings
	hasSettings bool
}

func (m *Mixin) declaredSpecs() []FieldSpec         { return m.specs }
func (m *Mixin) declaredNamespace() map[string]any  { return m.namespace }
func (m *Mixin) declaredSettings() (Settings, bool) { return m.settings, m.hasSettings }
func (m *Mixin) parents() []Base                    { return nil }
func (m *Mixin) isSchema() bool                     { return false }

// Schema is a compiled field mapping. Build one with New, MustNew or the dsl
// package; the zero value is the abstract root and cannot serialize anything.
type Schema struct {
	name        string
	specs       []FieldSpec
	namespace   map[string]any
	settings    Settings
	hasSettings bool
	bases       []Base

	fields []Field
	index  map[string]int
}

func (s *Schema) declaredSpecs() []FieldSpec         { return s.specs }
func (s *Schema) declaredNamespace() map[string]any  { return s.namespace }
func (s *Schema) declaredSettings() (Settings, bool) { return s.settings, s.hasSettings }
func (s *Schema) parents() []Base                    { return s.bases }
func (s *Schema) isSchema() bool                     { return true }

// Name returns the schema's declared name.
func (s *Schema) Name() string { return s.name }

// FieldNames returns the compiled field names in resolved order.
func (s *Schema) FieldNames() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

func (s *Schema) compiled() error {
	if s == nil || s.index == nil {
		return &SchemaError{
			Code:    CodeAbstractSchema,
			Message: "using the abstract root schema directly is not allowed; build a schema with New or dsl",
		}
	}
	return nil
}

// linearize flattens the base chain most-derived-first. A base reachable
// through several paths sinks to its least-derived position, so shared
// ancestors are merged after every chain that declares them.
func (s *Schema) linearize() []Base {
	var seq []Base
	var walk func(Base)
	walk = func(b Base) {
		seq = append(seq, b)
		for _, p := range b.parents() {
			walk(p)
		}
	}
	walk(s)

	last := make(map[Base]int, len(seq))
	for i, b := range seq {
		last[b] = i
	}
	out := make([]Base, 0, len(last))
	for i, b := range seq {
		if last[b] == i {
			out = append(out, b)
		}
	}
	return out
}

// mergeSpecs produces the ordered, override-aware specifier list: a name's
// position is fixed by its first appearance walking most-derived-first, and
// that first appearance is also the most-derived declaration, so it supplies
// the value.
func mergeSpecs(chain []Base) []FieldSpec {
	var merged []FieldSpec
	seen := map[string]struct{}{}
	for _, b := range chain {
		for _, fs := range b.declaredSpecs() {
			if _, ok := seen[fs.Name]; ok {
				continue
			}
			seen[fs.Name] = struct{}{}
			merged = append(merged, fs)
		}
	}
	return merged
}

// namespaceView is the merged read view over every level's bindings; lookup
// returns the most-derived binding for a name.
type namespaceView struct {
	chain []Base
}

func (nv namespaceView) lookup(name string) (any, bool) {
	for _, b := range nv.chain {
		if ns := b.declaredNamespace(); ns != nil {
			if v, ok := ns[name]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

// effectiveSettings returns the most-derived declared Settings, mirroring how
// namespace lookup resolves, so deriving a schema without settings inherits
// the base's.
func effectiveSettings(chain []Base) Settings {
	for _, b := range chain {
		if st, ok := b.declaredSettings(); ok {
			return st
		}
	}
	return Settings{}
}

// compile merges the base chain and resolves every declared field into its
// (alias, getter, transform) form. The result is cached on the schema for its
// entire lifetime; deriving a new schema compiles the new schema only.
func (s *Schema) compile() error {
	chain := s.linearize()
	merged := mergeSpecs(chain)
	ns := namespaceView{chain: chain}
	settings := effectiveSettings(chain)

	optional := stringSet(settings.Optional)
	literal := stringSet(settings.DisableAccessor)

	fields := make([]Field, 0, len(merged))
	index := make(map[string]int, len(merged))
	for _, fs := range merged {
		alias := fs.Name
		if bound, ok := ns.lookup(fs.Name); ok {
			if a, ok := bound.(string); ok {
				alias = a
			}
		}

		path := fs.Name
		if _, ok := literal[fs.Name]; !ok {
			path = access.ConstructPath(fs.Name)
		}
		var getter access.Getter
		if _, ok := optional[fs.Name]; ok {
			getter = access.Tolerant(path)
		} else {
			getter = access.Strict(path)
		}

		transform, replacement, err := resolveSpecifier(fs, ns)
		if err != nil {
			return err
		}
		if replacement != nil {
			getter = replacement
		}

		index[fs.Name] = len(fields)
		fields = append(fields, Field{Name: fs.Name, Alias: alias, getter: getter, transform: transform})
	}

	s.fields = fields
	s.index = index
	return nil
}

// resolveSpecifier turns a declared specifier into a transform, or into a
// getter replacement for method specifiers.
func resolveSpecifier(fs FieldSpec, ns namespaceView) (Transform, access.Getter, error) {
	switch spec := fs.Spec.(type) {
	case passthrough:
		return nil, nil, nil
	case *Nested:
		if spec == nil || spec.Schema == nil {
			return nil, nil, invalidSpecifier(fs.Name, spec)
		}
		return nestedTransform(spec.Schema, spec.Many), nil, nil
	case *Schema:
		if spec == nil {
			return nil, nil, invalidSpecifier(fs.Name, spec)
		}
		return nestedTransform(spec, false), nil, nil
	case string:
		bound, ok := ns.lookup(spec)
		if !ok {
			return nil, nil, &MethodError{
				Code:    CodeMethodMissing,
				Method:  spec,
				Message: fmt.Sprintf("missing %q method in the schema namespace", spec),
			}
		}
		method, ok := adaptCallable(bound)
		if !ok {
			return nil, nil, &MethodError{
				Code:    CodeMethodInvalid,
				Method:  spec,
				Message: fmt.Sprintf("%q is not a valid getter method", spec),
			}
		}
		// The method receives the whole source object; no attribute retrieval.
		return nil, access.Getter(method), nil
	default:
		if tr, ok := adaptCallable(fs.Spec); ok {
			return Transform(tr), nil, nil
		}
		return nil, nil, invalidSpecifier(fs.Name, fs.Spec)
	}
}

func invalidSpecifier(name string, spec any) error {
	return &FieldError{
		Code:    CodeInvalidSpecifier,
		Fields:  []string{name},
		Message: fmt.Sprintf("invalid specifier for field %s: %v", name, spec),
	}
}

func nestedTransform(sub *Schema, many bool) Transform {
	if many {
		return func(v any) (any, error) { return sub.ApplyMany(v) }
	}
	return func(v any) (any, error) { return sub.Apply(v) }
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

// adaptCallable accepts any func of one argument returning a value, or a value
// and an error, and wraps it into the uniform transform shape. The argument is
// converted to the func's parameter type when needed.
func adaptCallable(v any) (func(any) (any, error), bool) {
	switch fn := v.(type) {
	case func(any) (any, error):
		return fn, true
	case func(any) any:
		return func(x any) (any, error) { return fn(x), nil }, true
	case Transform:
		return fn, true
	}
	fv := reflect.ValueOf(v)
	if !fv.IsValid() || fv.Kind() != reflect.Func {
		return nil, false
	}
	ft := fv.Type()
	if ft.IsVariadic() || ft.NumIn() != 1 || ft.NumOut() < 1 || ft.NumOut() > 2 {
		return nil, false
	}
	if ft.NumOut() == 2 && ft.Out(1) != errType {
		return nil, false
	}
	in := ft.In(0)
	return func(x any) (any, error) {
		av := reflect.ValueOf(x)
		switch {
		case !av.IsValid():
			av = reflect.Zero(in)
		case av.Type().AssignableTo(in):
		case av.Type().ConvertibleTo(in):
			av = av.Convert(in)
		default:
			return nil, fmt.Errorf("goshape: cannot pass %T to %s", x, ft)
		}
		out := fv.Call([]reflect.Value{av})
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	}, true
}

func stringSet(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
