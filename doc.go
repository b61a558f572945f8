package goshape

// Package goshape provides:
//
// - Declarative schemas mapping attributes of arbitrary Go values to output keys
// - A double-underscore path syntax for nested attributes ("user__address__city")
// - Optional fields that are omitted, not nulled, when retrieval fails
// - Single, many and JSON-text execution modes over one compiled field list
// - A runtime factory (New) and a fluent builder (dsl) feeding the same compiler
//
// Design policy:
// - Keep only public APIs in the root package; put attribute access under internal/.
// - Place the builder under dsl/, output codecs under codec/, YAML-declared
//   schemas under schemafile/, and the CLI under cmd/goshape.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	user := goshape.MustNew("User",
//		goshape.Fields(
//			goshape.F("name", goshape.Passthrough),
//			goshape.F("address__city", goshape.Passthrough),
//		),
//		goshape.Optional("address__city"),
//	)
//	out, err := user.Apply(u)               // map[string]any
//	text, err := user.MarshalObject(u)      // JSON text
