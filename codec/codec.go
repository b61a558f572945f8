// Package codec ships output codecs for materialized serialization results
// and a few ready-made value transforms. Every codec satisfies
// goshape.Encoder.
package codec

import (
	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Codec encodes a materialized serialization result into bytes.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
}

// JSON returns a go-json backed codec. Encoder options are passed through
// verbatim.
func JSON(opts ...json.EncodeOptionFunc) Codec { return jsonCodec{opts: opts} }

type jsonCodec struct {
	opts []json.EncodeOptionFunc
}

func (jsonCodec) Name() string { return "json" }
func (c jsonCodec) Marshal(v any) ([]byte, error) {
	return json.MarshalWithOption(v, c.opts...)
}

// YAML returns a yaml.v3 backed codec.
func YAML() Codec { return yamlCodec{} }

type yamlCodec struct{}

func (yamlCodec) Name() string                  { return "yaml" }
func (yamlCodec) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }

// Msgpack returns a msgpack backed codec.
func Msgpack() Codec { return msgpackCodec{} }

type msgpackCodec struct{}

func (msgpackCodec) Name() string                  { return "msgpack" }
func (msgpackCodec) Marshal(v any) ([]byte, error) { return msgpack.Marshal(v) }
