package schema

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/point"
)

func productSchema() Schema {
	return Schema{Fields: map[string]FieldDefinition{
		"name":  {Type: String, Required: true},
		"price": {Type: Integer, Required: true},
		"tags":  {Type: Array, ElementType: String},
		"dims": {Type: Object, Fields: map[string]FieldDefinition{
			"width": {Type: Float, Required: true},
		}},
	}}
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		in   any
		want Type
	}{
		{nil, Null},
		{true, Boolean},
		{"x", String},
		{1, Integer},
		{int64(1), Integer},
		{uint8(1), Integer},
		{1.0, Float},
		{float32(1.5), Float},
		{json.Number("100"), Integer},
		{json.Number("100.0"), Float},
		{json.Number("1e3"), Float},
		{[]any{1}, Array},
		{[]string{"a"}, Array},
		{map[string]any{}, Object},
		{map[string]int{}, Object},
		{map[int]string{}, Unknown},
		{struct{}{}, Unknown},
	}
	for _, tt := range tests {
		if got := DetectType(tt.in); got != tt.want {
			t.Errorf("DetectType(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate_NoFalsePositives(t *testing.T) {
	payload := map[string]any{
		"name":  "shoe",
		"price": 100,
		"tags":  []string{"a", "b"},
		"dims":  map[string]any{"width": 1.5},
		"extra": "ignored",
	}
	if errs := Validate(payload, productSchema(), ""); len(errs) != 0 {
		t.Errorf("Validate() = %v, want no errors", errs)
	}
}

func TestValidate_RequiredMissing(t *testing.T) {
	errs := Validate(map[string]any{"name": nil, "price": "100"}, productSchema(), "")

	var nameErrs int
	for _, e := range errs {
		if e.Field != "name" {
			continue
		}
		nameErrs++
		if e.Code != CodeRequiredFieldMissing {
			t.Errorf("name error code = %s, want %s", e.Code, CodeRequiredFieldMissing)
		}
	}
	if nameErrs != 1 {
		t.Errorf("got %d errors for name, want 1", nameErrs)
	}
}

func TestValidate_TypeMismatch(t *testing.T) {
	errs := Validate(map[string]any{"name": "x", "price": "100"}, productSchema(), "")
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
	}
	e := errs[0]
	if e.Code != CodeTypeMismatch || e.Field != "price" {
		t.Errorf("error = %+v", e)
	}
	if e.Expected != Integer || e.Actual != String {
		t.Errorf("expected/actual = %s/%s, want integer/string", e.Expected, e.Actual)
	}
}

func TestValidate_IntegerVsFloat(t *testing.T) {
	errs := Validate(map[string]any{"name": "x", "price": 100.0}, productSchema(), "")
	if len(errs) != 1 || errs[0].Actual != Float {
		t.Errorf("errors = %v, want one float mismatch", errs)
	}
}

func TestValidate_ArrayElements(t *testing.T) {
	payload := map[string]any{"name": "x", "price": 1, "tags": []any{"ok", 2, "ok", true}}
	errs := Validate(payload, productSchema(), "")

	var fields []string
	for _, e := range errs {
		if e.Code != CodeArrayElementTypeMismatch {
			t.Errorf("unexpected code %s", e.Code)
		}
		fields = append(fields, e.Field)
	}
	want := []string{"tags[1]", "tags[3]"}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("fields = %v, want %v", fields, want)
	}
}

func TestValidate_Nested(t *testing.T) {
	payload := map[string]any{"name": "x", "price": 1, "dims": map[string]any{"width": "wide"}}
	errs := Validate(payload, productSchema(), "")
	if len(errs) != 1 || errs[0].Field != "dims.width" {
		t.Errorf("errors = %v, want dims.width mismatch", errs)
	}
}

func TestValidate_Prefix(t *testing.T) {
	errs := Validate(nil, Schema{Fields: map[string]FieldDefinition{"a": {Type: String, Required: true}}}, "root")
	if len(errs) != 1 || errs[0].Field != "root.a" {
		t.Errorf("errors = %v, want root.a", errs)
	}
}

func TestValidate_NilPayload(t *testing.T) {
	errs := Validate(nil, productSchema(), "")
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2 (name, price): %v", len(errs), errs)
	}
	for _, e := range errs {
		if e.Code != CodeRequiredFieldMissing {
			t.Errorf("code = %s, want %s", e.Code, CodeRequiredFieldMissing)
		}
	}
}

func TestValidate_Idempotent(t *testing.T) {
	payload := map[string]any{"price": "x", "tags": []any{1, 2}, "dims": map[string]any{}}
	first := Validate(payload, productSchema(), "")
	for i := 0; i < 5; i++ {
		if got := Validate(payload, productSchema(), ""); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}

func TestValidatePoints(t *testing.T) {
	good, _ := point.New(point.StringID("ok"), []float32{1}, map[string]any{"name": "a", "price": 1})
	bad, _ := point.New(point.StringID("p1"), []float32{1}, map[string]any{"price": "100"})

	records := ValidatePoints([]point.Point{good, bad}, productSchema())
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	r := records[0]
	if r.Index != 1 || r.ID.String() != "p1" {
		t.Errorf("record = index %d id %s, want 1/p1", r.Index, r.ID)
	}
	if len(r.Errors) != 2 {
		t.Fatalf("got %d errors, want 2", len(r.Errors))
	}
	if r.Errors[0].Code != CodeRequiredFieldMissing || r.Errors[1].Code != CodeTypeMismatch {
		t.Errorf("codes = %s, %s", r.Errors[0].Code, r.Errors[1].Code)
	}
}

func TestSchemaValidationError(t *testing.T) {
	err := error(&SchemaValidationError{
		Collection: "products",
		Records: []RecordErrors{{Index: 0, ID: point.StringID("p1"), Errors: []ValidationError{
			{Field: "name", Code: CodeRequiredFieldMissing, Message: "Required field 'name' is missing"},
		}}},
	})
	if !errors.Is(err, domain.ErrSchemaValidation) {
		t.Error("expected ErrSchemaValidation")
	}
	if !strings.Contains(err.Error(), "p1") {
		t.Errorf("message = %q, want point id", err.Error())
	}
}

func TestSchema_Check(t *testing.T) {
	if err := productSchema().Check(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []Schema{
		{Fields: map[string]FieldDefinition{"a": {Type: "text"}}},
		{Fields: map[string]FieldDefinition{"a": {Type: String, ElementType: String}}},
		{Fields: map[string]FieldDefinition{"a": {Type: Array, ElementType: "x"}}},
		{Fields: map[string]FieldDefinition{"a": {Type: Array, Fields: map[string]FieldDefinition{"b": {Type: String}}}}},
		{Fields: map[string]FieldDefinition{"a": {Type: Object, Fields: map[string]FieldDefinition{"b": {Type: "bad"}}}}},
	}
	for i, s := range bad {
		if err := s.Check(); err == nil {
			t.Errorf("schema %d: expected error", i)
		}
	}
}

func TestParseEnforcement(t *testing.T) {
	if e, err := ParseEnforcement(""); err != nil || e != Off {
		t.Errorf("ParseEnforcement(\"\") = %q, %v; want off", e, err)
	}
	if e, err := ParseEnforcement("strict"); err != nil || e != Strict {
		t.Errorf("ParseEnforcement(strict) = %q, %v", e, err)
	}
	if _, err := ParseEnforcement("loud"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestSchema_Clone(t *testing.T) {
	orig := Schema{Fields: map[string]FieldDefinition{
		"title": {Type: String, Required: true},
		"meta": {Type: Object, Fields: map[string]FieldDefinition{
			"views": {Type: Integer},
		}},
	}}
	c := orig.Clone()
	c.Fields["title"] = FieldDefinition{Type: Integer}
	c.Fields["meta"].Fields["views"] = FieldDefinition{Type: Float}

	if orig.Fields["title"].Type != String {
		t.Errorf("title type = %q, want %q", orig.Fields["title"].Type, String)
	}
	if orig.Fields["meta"].Fields["views"].Type != Integer {
		t.Errorf("meta.views type = %q, want %q", orig.Fields["meta"].Fields["views"].Type, Integer)
	}
	if (Schema{}).Clone().Fields != nil {
		t.Error("clone of an empty schema should keep nil fields")
	}
}
