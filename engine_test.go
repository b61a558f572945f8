package goshape_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	goshape "github.com/goshape/goshape"
)

func simpleSchema(t *testing.T) *goshape.Schema {
	t.Helper()
	return goshape.MustNew("Simple", goshape.Fields(
		goshape.F("a", goshape.Passthrough),
		goshape.F("b", goshape.Passthrough),
	))
}

func TestManyModePreservesOrderAndLength(t *testing.T) {
	s := simpleSchema(t)
	seq := []map[string]any{
		{"a": 1, "b": "x"},
		{"a": 2, "b": "y"},
		{"a": 3, "b": "z"},
	}
	inst, err := s.Instance(seq, goshape.Many())
	if err != nil {
		t.Fatalf("Instance: %v", err)
	}
	out, err := inst.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	rows := out.([]map[string]any)
	if len(rows) != len(seq) {
		t.Fatalf("length law violated: got %d, want %d", len(rows), len(seq))
	}
	for i, row := range rows {
		if row["a"] != seq[i]["a"] {
			t.Fatalf("element order not preserved at %d: %#v", i, row)
		}
	}
}

func TestFieldSubset(t *testing.T) {
	s := simpleSchema(t)
	inst, err := s.Instance(map[string]any{"a": 1, "b": 2}, goshape.SelectFields("a"))
	if err != nil {
		t.Fatalf("Instance: %v", err)
	}
	out, err := inst.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !reflect.DeepEqual(out, map[string]any{"a": 1}) {
		t.Fatalf("unexpected result: %#v", out)
	}
}

func TestUnknownSubsetFieldsFailConstruction(t *testing.T) {
	s := simpleSchema(t)
	_, err := s.Instance(map[string]any{}, goshape.SelectFields("a", "nope", "zap"))
	var fe *goshape.FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FieldError, got %v", err)
	}
	if fe.Code != goshape.CodeUnknownFields {
		t.Fatalf("unexpected code %q", fe.Code)
	}
	if !reflect.DeepEqual(fe.Fields, []string{"nope", "zap"}) {
		t.Fatalf("offending fields not named: %#v", fe.Fields)
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Fatalf("message must name the fields: %v", err)
	}
}

func TestSerializeMemoization(t *testing.T) {
	calls := 0
	s := goshape.MustNew("S", goshape.Fields(
		goshape.F("n", func(v any) any { calls++; return v }),
	))
	inst, err := s.Instance(map[string]any{"n": 1})
	if err != nil {
		t.Fatalf("Instance: %v", err)
	}
	r1, err := inst.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	r2, err := inst.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one evaluation, got %d", calls)
	}
	if reflect.ValueOf(r1).Pointer() != reflect.ValueOf(r2).Pointer() {
		t.Fatalf("expected the identical cached result")
	}
}

func TestSerializeMemoizesEmptyResult(t *testing.T) {
	s := goshape.MustNew("S",
		goshape.Fields(goshape.F("x", goshape.Passthrough)),
		goshape.Optional("x"),
	)
	inst, err := s.Instance(struct{ Y int }{})
	if err != nil {
		t.Fatalf("Instance: %v", err)
	}
	r1, _ := inst.Serialize()
	r2, _ := inst.Serialize()
	if len(r1.(map[string]any)) != 0 {
		t.Fatalf("expected empty result: %#v", r1)
	}
	// An empty result is still cached; a recompute would allocate a new map.
	if reflect.ValueOf(r1).Pointer() != reflect.ValueOf(r2).Pointer() {
		t.Fatalf("empty result was recomputed")
	}
}

func TestSerializeObjectLateData(t *testing.T) {
	s := simpleSchema(t)
	inst, err := s.Instance(nil)
	if err != nil {
		t.Fatalf("Instance: %v", err)
	}
	out, err := inst.SerializeObject(map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("SerializeObject: %v", err)
	}
	if out.(map[string]any)["a"] != 1 {
		t.Fatalf("unexpected result: %#v", out)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s := goshape.MustNew("S",
		goshape.Fields(
			goshape.F("a", goshape.Passthrough),
			goshape.F("b", goshape.Passthrough),
			goshape.F("x", goshape.Passthrough),
		),
		goshape.Optional("x"),
	)
	obj := struct {
		A float64
		B string
	}{A: 1, B: "two"}

	inst, err := s.Instance(obj, goshape.ToJSON())
	if err != nil {
		t.Fatalf("Instance: %v", err)
	}
	out, err := inst.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out.([]byte), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	direct, err := s.Apply(obj)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !reflect.DeepEqual(decoded, direct) {
		t.Fatalf("round trip mismatch: %#v vs %#v", decoded, direct)
	}
	if _, ok := decoded["x"]; ok {
		t.Fatalf("omitted optional field must stay absent in JSON")
	}
}

type jsonNode struct {
	Label string
	Child *jsonNode
}

func TestJSONNestedGraph(t *testing.T) {
	s := goshape.MustNew("Node",
		goshape.Fields(
			goshape.F("label", goshape.Passthrough),
			goshape.F("child", goshape.Passthrough),
		),
		goshape.Optional("child"),
	)
	root := jsonNode{Label: "a", Child: &jsonNode{Label: "b", Child: &jsonNode{Label: "c"}}}

	out, err := s.MarshalObject(root)
	if err != nil {
		t.Fatalf("MarshalObject: %v", err)
	}
	// The innermost Child field exists with a nil value, so it resolves and
	// encodes as null; omission applies only when the lookup itself fails.
	want := `{"label":"a","child":{"label":"b","child":{"label":"c","child":null}}}`
	if string(out) != want {
		t.Fatalf("got %s, want %s", out, want)
	}

	// Maps are natively encodable: the encoder recurses into them directly
	// instead of routing them through field evaluation.
	nodes := map[string]any{"extra": true, "label": "a"}
	out, err = s.MarshalObject(nodes)
	if err != nil {
		t.Fatalf("MarshalObject: %v", err)
	}
	want = `{"extra":true,"label":"a"}`
	if string(out) != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestJSONManySequence(t *testing.T) {
	s := simpleSchema(t)
	seq := []map[string]any{{"a": 1, "b": 2}, {"a": 3, "b": 4}}
	inst, err := s.Instance(seq, goshape.Many(), goshape.ToJSON())
	if err != nil {
		t.Fatalf("Instance: %v", err)
	}
	out, err := inst.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(out.([]byte), &rows); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(rows) != 2 || rows[1]["a"] != float64(3) {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestJSONKeyOrderFollowsFields(t *testing.T) {
	s := goshape.MustNew("S", goshape.Fields(
		goshape.F("zeta", goshape.Passthrough),
		goshape.F("alpha", goshape.Passthrough),
	))
	out, err := s.MarshalObject(struct{ Zeta, Alpha int }{1, 2})
	if err != nil {
		t.Fatalf("MarshalObject: %v", err)
	}
	if string(out) != `{"zeta":1,"alpha":2}` {
		t.Fatalf("field order not preserved: %s", out)
	}
}

func TestEncoderOptionsPassthrough(t *testing.T) {
	s := goshape.MustNew("S", goshape.Fields(goshape.F("a", goshape.Passthrough)))
	obj := struct{ A string }{A: "x<y"}

	out, err := s.MarshalObject(obj)
	if err != nil {
		t.Fatalf("MarshalObject: %v", err)
	}
	if !strings.Contains(string(out), `<`) {
		t.Fatalf("expected HTML escaping by default: %s", out)
	}

	out, err = s.MarshalObject(obj, json.DisableHTMLEscape())
	if err != nil {
		t.Fatalf("MarshalObject: %v", err)
	}
	if !strings.Contains(string(out), "x<y") {
		t.Fatalf("option not passed through: %s", out)
	}
}

type countingEncoder struct {
	calls int
}

func (e *countingEncoder) Name() string { return "counting" }
func (e *countingEncoder) Marshal(v any) ([]byte, error) {
	e.calls++
	return json.Marshal(v)
}

func TestEncodeUsesEncoder(t *testing.T) {
	s := simpleSchema(t)
	inst, err := s.Instance(map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("Instance: %v", err)
	}
	enc := &countingEncoder{}
	out, err := inst.Encode(enc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if enc.calls != 1 || len(out) == 0 {
		t.Fatalf("encoder not exercised: calls=%d out=%q", enc.calls, out)
	}
}

func BenchmarkApply(b *testing.B) {
	s := goshape.MustNew("Bench", goshape.Fields(
		goshape.F("a", goshape.Passthrough),
		goshape.F("addr__city", goshape.Passthrough),
	))
	obj := map[string]any{"a": 1, "addr": map[string]any{"city": "x"}}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := s.Apply(obj); err != nil {
			b.Fatal(err)
		}
	}
}
