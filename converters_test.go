package aetherfy

import (
	"errors"
	"strings"
	"testing"
)

func TestToInternalPoints(t *testing.T) {
	pts, err := toInternalPoints([]Point{
		{ID: "a", Vector: []float32{1, 2}, Payload: map[string]any{"k": "v"}},
		{ID: 7, Vector: []float32{3, 4}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pts) != 2 {
		t.Fatalf("len = %d, want 2", len(pts))
	}
	if pts[0].ID().String() != "a" || pts[0].Payload()["k"] != "v" {
		t.Errorf("point[0] = %v/%v, want a/{k:v}", pts[0].ID(), pts[0].Payload())
	}
	if !pts[1].ID().IsInt() || pts[1].ID().Int() != 7 {
		t.Errorf("point[1] id = %v, want integer 7", pts[1].ID())
	}
}

func TestToInternalPoints_ReportsIndex(t *testing.T) {
	_, err := toInternalPoints([]Point{
		{ID: "a", Vector: []float32{1}},
		{ID: true, Vector: []float32{1}},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "point 1") {
		t.Errorf("error = %q, want the failing index", err)
	}
}

func TestToInternalIDs(t *testing.T) {
	ids, err := toInternalIDs([]any{"x", int64(3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids[0].String() != "x" || ids[1].Int() != 3 {
		t.Errorf("ids = %v, want [x 3]", ids)
	}

	if _, err := toInternalIDs(nil); !errors.Is(err, ErrValidation) {
		t.Errorf("empty ids: expected ErrValidation, got %v", err)
	}
}

func TestToInternalFilter(t *testing.T) {
	lo, hi := 1.0, 9.0
	expr, err := toInternalFilter(&Filter{
		Must:    []Condition{{Key: "lang", Match: "en"}},
		Should:  []Condition{{Key: "views", Range: &Range{GTE: &lo, LT: &hi}}},
		MustNot: []Condition{{Key: "draft", Match: true}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(expr.Must()) != 1 || expr.Must()[0].Match() != "en" {
		t.Errorf("must = %v, want lang=en", expr.Must())
	}
	r := expr.Should()[0].Range()
	if r == nil || *r.GTE() != 1 || *r.LT() != 9 {
		t.Errorf("should range = %v, want [1, 9)", r)
	}
	if !expr.MustNot()[0].IsMatch() {
		t.Error("must_not should be a match condition")
	}

	empty, err := toInternalFilter(nil)
	if err != nil || !empty.IsEmpty() {
		t.Errorf("nil filter = %v, %v; want empty expression", empty, err)
	}
}

func TestToInternalFilter_Invalid(t *testing.T) {
	lo := 1.0
	tests := []struct {
		name string
		f    *Filter
		want string
	}{
		{"missing key", &Filter{Must: []Condition{{Match: "x"}}}, "filter must"},
		{"float match", &Filter{Should: []Condition{{Key: "k", Match: 1.5}}}, "filter should"},
		{"empty range", &Filter{MustNot: []Condition{{Key: "k", Range: &Range{}}}}, "filter must_not"},
		{"gt and gte", &Filter{Must: []Condition{{Key: "k", Range: &Range{GT: &lo, GTE: &lo}}}}, "filter must"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := toInternalFilter(tt.f)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want %q", err, tt.want)
			}
		})
	}
}

func TestToInternalSearch_WrapsValidation(t *testing.T) {
	_, err := toInternalSearch(SearchRequest{Vector: []float32{1}, Filter: &Filter{Must: []Condition{{Key: "k"}}}})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	req, err := toInternalSearch(SearchRequest{Vector: []float32{1}, Limit: 5, WithPayload: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Limit() != 5 || !req.WithPayload() {
		t.Errorf("limit=%d payload=%v, want 5/true", req.Limit(), req.WithPayload())
	}
}
