package point

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNew_Valid(t *testing.T) {
	p, err := New(StringID("p1"), []float32{0.1, 0.2, 0.3}, map[string]any{"name": "shoe"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID().String() != "p1" {
		t.Errorf("ID() = %q", p.ID())
	}
	if p.Dimension() != 3 {
		t.Errorf("Dimension() = %d, want 3", p.Dimension())
	}
	if p.Payload()["name"] != "shoe" {
		t.Errorf("Payload() = %v", p.Payload())
	}
}

func TestNew_CopiesInputs(t *testing.T) {
	vec := []float32{1, 2}
	payload := map[string]any{"k": "v"}

	p, _ := New(IntID(7), vec, payload)

	// Mutating the caller's copies must not affect the point
	vec[0] = 99
	payload["k"] = "mutated"

	if p.Vector()[0] != 1 {
		t.Error("vector mutation leaked into point")
	}
	if p.Payload()["k"] != "v" {
		t.Error("payload mutation leaked into point")
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		id     ID
		vector []float32
	}{
		{"empty id", StringID(""), []float32{1}},
		{"blank id", StringID("  \t"), []float32{1}},
		{"empty vector", StringID("a"), nil},
		{"NaN", StringID("a"), []float32{float32(math.NaN())}},
		{"Inf", StringID("a"), []float32{float32(math.Inf(1))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.id, tt.vector, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNew_ZeroIntIDIsValid(t *testing.T) {
	if _, err := New(IntID(0), []float32{1}, nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFromMap(t *testing.T) {
	p, err := FromMap(map[string]any{
		"id":      42,
		"vector":  []any{1, 2.5, json.Number("3")},
		"payload": map[string]any{"a": 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.ID().IsInt() || p.ID().Int() != 42 {
		t.Errorf("ID() = %v, want integer 42", p.ID().Value())
	}
	want := []float32{1, 2.5, 3}
	for i, v := range want {
		if p.Vector()[i] != v {
			t.Errorf("Vector()[%d] = %v, want %v", i, p.Vector()[i], v)
		}
	}
}

func TestFromMap_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
	}{
		{"missing id", map[string]any{"vector": []float64{1}}},
		{"bad id type", map[string]any{"id": true, "vector": []float64{1}}},
		{"fractional id", map[string]any{"id": 1.5, "vector": []float64{1}}},
		{"missing vector", map[string]any{"id": "a"}},
		{"bad vector element", map[string]any{"id": "a", "vector": []any{"x"}}},
		{"bad payload", map[string]any{"id": "a", "vector": []float64{1}, "payload": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromMap(tt.in); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestID_JSON(t *testing.T) {
	b, err := json.Marshal([]ID{StringID("a"), IntID(5)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `["a",5]` {
		t.Errorf("marshal = %s, want [\"a\",5]", b)
	}

	var ids []ID
	if err := json.Unmarshal(b, &ids); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ids[0].String() != "a" || ids[0].IsInt() {
		t.Errorf("ids[0] = %v", ids[0].Value())
	}
	if !ids[1].IsInt() || ids[1].Int() != 5 {
		t.Errorf("ids[1] = %v", ids[1].Value())
	}
}

func TestParseID_IntegerKinds(t *testing.T) {
	tests := []struct {
		in   any
		want int64
	}{
		{int(1), 1},
		{int8(-2), -2},
		{int16(3), 3},
		{int32(4), 4},
		{int64(5), 5},
		{uint(6), 6},
		{uint8(7), 7},
		{uint16(8), 8},
		{uint32(9), 9},
		{uint64(10), 10},
		{float64(11), 11},
		{json.Number("12"), 12},
		{float64(-(1 << 62)), -(1 << 62)},
	}
	for _, tt := range tests {
		id, err := ParseID(tt.in)
		if err != nil {
			t.Errorf("ParseID(%T %v): unexpected error: %v", tt.in, tt.in, err)
			continue
		}
		if !id.IsInt() || id.Int() != tt.want {
			t.Errorf("ParseID(%T %v) = %v, want %d", tt.in, tt.in, id, tt.want)
		}
	}
}

func TestParseID_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"fraction", 1.5},
		{"float above int64", 1e19},
		{"float at 2^63", float64(math.MaxInt64)},
		{"float below int64", -1e19},
		{"infinity", math.Inf(1)},
		{"NaN", math.NaN()},
		{"uint64 above int64", uint64(math.MaxInt64) + 1},
		{"fractional json number", json.Number("1.5")},
		{"bool", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if id, err := ParseID(tt.in); err == nil {
				t.Errorf("ParseID(%v) = %v, want error", tt.in, id)
			}
		})
	}
}
