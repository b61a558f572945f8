// Package schemafile loads goshape schema declarations from YAML documents.
// A file may hold several documents; later documents can reference earlier
// ones (and anything pre-registered) as nested schemas or bases. Method
// specifiers resolve against bindings supplied through the Registry, since
// YAML cannot carry functions.
package schemafile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	goshape "github.com/goshape/goshape"
)

// ErrUnknownReference reports a nested-schema or base name that is not in the
// registry.
var ErrUnknownReference = errors.New("schemafile: unknown reference")

// Document is one YAML schema declaration.
type Document struct {
	Name            string      `yaml:"name"`
	Bases           []string    `yaml:"bases"`
	Fields          []FieldDecl `yaml:"fields"`
	Optional        []string    `yaml:"optional"`
	DisableAccessor []string    `yaml:"disable_accessor"`
}

// FieldDecl is one declared field. Method, Nested and the default
// pass-through are mutually exclusive specifier forms.
type FieldDecl struct {
	Name   string `yaml:"name"`
	Alias  string `yaml:"alias"`
	Method string `yaml:"method"`
	Nested string `yaml:"nested"`
	Many   bool   `yaml:"many"`
}

// Registry holds schemas loadable by reference and the method bindings made
// available to every loaded schema's namespace.
type Registry struct {
	schemas map[string]*goshape.Schema
	methods map[string]any
}

func NewRegistry() *Registry {
	return &Registry{
		schemas: map[string]*goshape.Schema{},
		methods: map[string]any{},
	}
}

// Register makes s referenceable as a nested schema or base under name.
func (r *Registry) Register(name string, s *goshape.Schema) {
	r.schemas[name] = s
}

// Bind exposes fn to loaded schemas under name, for `method:` specifiers.
// fn receives the whole source object.
func (r *Registry) Bind(name string, fn any) {
	r.methods[name] = fn
}

// Schema returns a registered or previously loaded schema.
func (r *Registry) Schema(name string) (*goshape.Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Load decodes every document in data, compiles the schemas in order and
// registers each under its declared name. Compilation failures carry the
// goshape error taxonomy.
func Load(data []byte, reg *Registry) ([]*goshape.Schema, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []*goshape.Schema
	for {
		var doc Document
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("schemafile: %w", err)
		}
		s, err := build(doc, reg)
		if err != nil {
			return nil, err
		}
		reg.Register(doc.Name, s)
		out = append(out, s)
	}
	return out, nil
}

// LoadFile reads path and delegates to Load.
func LoadFile(path string, reg *Registry) ([]*goshape.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data, reg)
}

func build(doc Document, reg *Registry) (*goshape.Schema, error) {
	namespace := make(map[string]any, len(reg.methods))
	for k, v := range reg.methods {
		namespace[k] = v
	}

	specs := make([]goshape.FieldSpec, 0, len(doc.Fields))
	for _, fd := range doc.Fields {
		spec := goshape.Passthrough
		switch {
		case fd.Method != "":
			spec = fd.Method
		case fd.Nested != "":
			sub, ok := reg.Schema(fd.Nested)
			if !ok {
				return nil, fmt.Errorf("%w: nested schema %q for field %q", ErrUnknownReference, fd.Nested, fd.Name)
			}
			if fd.Many {
				spec = goshape.NestedMany(sub)
			} else {
				spec = sub
			}
		}
		specs = append(specs, goshape.F(fd.Name, spec))
		if fd.Alias != "" {
			namespace[fd.Name] = fd.Alias
		}
	}

	opts := []goshape.SchemaOption{goshape.Fields(specs...)}
	if len(namespace) > 0 {
		opts = append(opts, goshape.Namespace(namespace))
	}
	if len(doc.Bases) > 0 {
		bases := make([]goshape.Base, 0, len(doc.Bases))
		for _, name := range doc.Bases {
			b, ok := reg.Schema(name)
			if !ok {
				return nil, fmt.Errorf("%w: base schema %q", ErrUnknownReference, name)
			}
			bases = append(bases, b)
		}
		opts = append(opts, goshape.Bases(bases...))
	}
	if len(doc.Optional) > 0 {
		opts = append(opts, goshape.Optional(doc.Optional...))
	}
	if len(doc.DisableAccessor) > 0 {
		opts = append(opts, goshape.DisableAccessor(doc.DisableAccessor...))
	}
	return goshape.New(doc.Name, opts...)
}
