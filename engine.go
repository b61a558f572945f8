package goshape

import (
	"bytes"
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goshape/goshape/internal/access"
)

// Encoder turns a materialized result into bytes. The codec package ships
// JSON, YAML and msgpack implementations.
type Encoder interface {
	Name() string
	Marshal(v any) ([]byte, error)
}

// Instance binds a compiled schema to one payload for a single serialization
// call. Instances are cheap, disposable, and not meant to be shared across
// concurrent evaluations; the schema itself is immutable and safely shared.
type Instance struct {
	schema  *Schema
	data    any
	many    bool
	toJSON  bool
	encOpts []json.EncodeOptionFunc
	fields  []Field

	result any
	done   bool
}

// InstanceOption configures Schema.Instance.
type InstanceOption func(*Instance) error

// SelectFields restricts the instance to a subset of the schema's fields,
// keeping resolved order. Unknown names fail construction immediately.
func SelectFields(names ...string) InstanceOption {
	return func(in *Instance) error {
		var unknown []string
		for _, n := range names {
			if _, ok := in.schema.index[n]; !ok {
				unknown = append(unknown, n)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return &FieldError{
				Code:    CodeUnknownFields,
				Fields:  unknown,
				Message: "one or more unknown fields are being passed: " + strings.Join(unknown, ", "),
			}
		}
		selected := stringSet(names)
		fields := make([]Field, 0, len(names))
		for _, f := range in.schema.fields {
			if _, ok := selected[f.Name]; ok {
				fields = append(fields, f)
			}
		}
		in.fields = fields
		return nil
	}
}

// Many marks the held data as a sequence of objects.
func Many() InstanceOption {
	return func(in *Instance) error {
		in.many = true
		return nil
	}
}

// ToJSON makes Serialize return JSON text ([]byte). Encoder options are passed
// through verbatim to go-json.
func ToJSON(opts ...json.EncodeOptionFunc) InstanceOption {
	return func(in *Instance) error {
		in.toJSON = true
		in.encOpts = opts
		return nil
	}
}

// Instance constructs an engine instance over data. Pass nil data to supply
// the object later via SerializeObject.
func (s *Schema) Instance(data any, opts ...InstanceOption) (*Instance, error) {
	if err := s.compiled(); err != nil {
		return nil, err
	}
	in := &Instance{schema: s, data: data, fields: s.fields}
	for _, opt := range opts {
		if err := opt(in); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// Serialize produces the instance's result: a map[string]any, a
// []map[string]any in many mode, or JSON text ([]byte) in JSON mode. The first
// result is cached; later calls return it unchanged.
func (in *Instance) Serialize() (any, error) {
	return in.SerializeObject(nil)
}

// SerializeObject is Serialize for instances constructed without data; held
// data wins when both are present.
func (in *Instance) SerializeObject(obj any) (any, error) {
	if in.done {
		return in.result, nil
	}
	data := in.data
	if data == nil {
		data = obj
	}

	var out any
	var err error
	switch {
	case in.toJSON:
		out, err = marshalGraph(data, in.fields, in.encOpts)
	case in.many:
		out, err = applyMany(data, in.fields)
	default:
		out, err = applyOne(data, in.fields)
	}
	if err != nil {
		return nil, err
	}
	in.result = out
	in.done = true
	return out, nil
}

// Encode materializes the result (single or many) and hands it to enc.
func (in *Instance) Encode(enc Encoder) ([]byte, error) {
	if enc == nil {
		return nil, fmt.Errorf("goshape: nil encoder")
	}
	var v any
	var err error
	if in.many {
		v, err = applyMany(in.data, in.fields)
	} else {
		v, err = applyOne(in.data, in.fields)
	}
	if err != nil {
		return nil, err
	}
	return enc.Marshal(v)
}

// Apply evaluates the schema's full field list against one object.
func (s *Schema) Apply(obj any) (map[string]any, error) {
	if err := s.compiled(); err != nil {
		return nil, err
	}
	return applyOne(obj, s.fields)
}

// ApplyMany evaluates the schema against every element of seq, preserving
// element order. seq must be a slice or array.
func (s *Schema) ApplyMany(seq any) ([]map[string]any, error) {
	if err := s.compiled(); err != nil {
		return nil, err
	}
	return applyMany(seq, s.fields)
}

// MarshalObject serializes data to JSON text using the schema's full field
// list, recursing through nested object graphs on demand.
func (s *Schema) MarshalObject(data any, opts ...json.EncodeOptionFunc) ([]byte, error) {
	if err := s.compiled(); err != nil {
		return nil, err
	}
	return marshalGraph(data, s.fields, opts)
}

// applyOne runs the per-object evaluation: accessor, missing-marker omission,
// transform, alias binding, in resolved-field order.
func applyOne(obj any, fields []Field) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, err := f.getter(obj)
		if err != nil {
			return nil, err
		}
		if access.IsMissing(v) {
			continue
		}
		if f.transform != nil {
			if v, err = f.transform(v); err != nil {
				return nil, err
			}
		}
		out[f.Alias] = v
	}
	return out, nil
}

func applyMany(seq any, fields []Field) ([]map[string]any, error) {
	rv := reflect.ValueOf(seq)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("goshape: many mode requires a slice or array, got %T", seq)
	}
	out := make([]map[string]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		m, err := applyOne(rv.Index(i).Interface(), fields)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// marshalGraph encodes data as JSON, letting go-json drive the recursion.
// Values go-json cannot encode natively fall back to per-object evaluation
// with the same field list, so nested object graphs serialize without being
// materialized up front. Objects emit their keys in resolved-field order.
func marshalGraph(data any, fields []Field, opts []json.EncodeOptionFunc) ([]byte, error) {
	return graphValue{v: data, fields: fields, opts: opts}.MarshalJSON()
}

type graphValue struct {
	v      any
	fields []Field
	opts   []json.EncodeOptionFunc
}

func (g graphValue) MarshalJSON() ([]byte, error) {
	switch g.v.(type) {
	case nil:
		return []byte("null"), nil
	case json.Marshaler, encoding.TextMarshaler, json.Number, []byte:
		return json.MarshalWithOption(g.v, g.opts...)
	}
	rv := reflect.ValueOf(g.v)
	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return json.MarshalWithOption(g.v, g.opts...)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return []byte("null"), nil
		}
		return graphValue{v: rv.Elem().Interface(), fields: g.fields, opts: g.opts}.MarshalJSON()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []byte("null"), nil
		}
		arr := make([]any, rv.Len())
		for i := range arr {
			arr[i] = graphValue{v: rv.Index(i).Interface(), fields: g.fields, opts: g.opts}
		}
		return json.MarshalWithOption(arr, g.opts...)
	case reflect.Map:
		if rv.IsNil() {
			return []byte("null"), nil
		}
		if rv.Type().Key().Kind() == reflect.String {
			m := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				m[iter.Key().String()] = graphValue{v: iter.Value().Interface(), fields: g.fields, opts: g.opts}
			}
			return json.MarshalWithOption(m, g.opts...)
		}
		return json.MarshalWithOption(g.v, g.opts...)
	default:
		return evalObjectJSON(g.v, g.fields, g.opts)
	}
}

// evalObjectJSON is the encoder fallback hook: single-object evaluation
// emitted directly as a JSON object, keys in resolved-field order, values
// re-wrapped so the encoder keeps recursing into them.
func evalObjectJSON(obj any, fields []Field, opts []json.EncodeOptionFunc) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, f := range fields {
		v, err := f.getter(obj)
		if err != nil {
			return nil, err
		}
		if access.IsMissing(v) {
			continue
		}
		if f.transform != nil {
			if v, err = f.transform(v); err != nil {
				return nil, err
			}
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := json.MarshalWithOption(f.Alias, opts...)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := graphValue{v: v, fields: fields, opts: opts}.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
