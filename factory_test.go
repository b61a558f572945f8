package goshape_test

import (
	"errors"
	"testing"

	goshape "github.com/goshape/goshape"
)

func TestFactoryIdentifierValidation(t *testing.T) {
	_, err := goshape.New("S", goshape.Fields(goshape.F("not a name", goshape.Passthrough)))
	var ie *goshape.FieldIdentifierError
	if !errors.As(err, &ie) || ie.Code != goshape.CodeInvalidIdentifier {
		t.Fatalf("expected invalid_identifier, got %v", err)
	}
	if ie.Name != "not a name" {
		t.Fatalf("offending name not reported: %+v", ie)
	}

	_, err = goshape.New("S", goshape.Fields(goshape.F("func", goshape.Passthrough)))
	if !errors.As(err, &ie) || ie.Code != goshape.CodeReservedWord {
		t.Fatalf("expected reserved_word, got %v", err)
	}

	_, err = goshape.New("S", goshape.Namespace(map[string]any{"9bad": "x"}))
	if !errors.As(err, &ie) || ie.Code != goshape.CodeInvalidIdentifier {
		t.Fatalf("namespace keys must be validated, got %v", err)
	}
}

func TestFactoryRequiresSchemaBase(t *testing.T) {
	mixin := goshape.NewMixin(goshape.Fields(goshape.F("a", goshape.Passthrough)))
	_, err := goshape.New("S", goshape.Bases(mixin))
	var se *goshape.SchemaError
	if !errors.As(err, &se) || se.Code != goshape.CodeInvalidBase {
		t.Fatalf("expected invalid_base, got %v", err)
	}
	if !errors.Is(err, goshape.ErrSchema) {
		t.Fatalf("schema errors must match ErrSchema")
	}
}

func TestFactoryOptionalField(t *testing.T) {
	s, err := goshape.New("S",
		goshape.Fields(goshape.F("x", goshape.Passthrough)),
		goshape.Optional("x"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := s.Apply(struct{ Other int }{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected silently omitted field, got %#v", out)
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	goshape.MustNew("S", goshape.Fields(goshape.F("bad name", goshape.Passthrough)))
}
