package collection

import (
	"strings"
	"testing"
)

func TestParseDistance(t *testing.T) {
	tests := []struct {
		in   string
		want Distance
	}{
		{"cosine", Cosine},
		{"Cosine", Cosine},
		{"EUCLIDEAN", Euclidean},
		{"euclid", Euclidean},
		{"dot", Dot},
		{" Manhattan ", Manhattan},
	}
	for _, tt := range tests {
		got, err := ParseDistance(tt.in)
		if err != nil {
			t.Errorf("ParseDistance(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDistance(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDistance_Invalid(t *testing.T) {
	_, err := ParseDistance("hamming")
	if err == nil {
		t.Fatal("expected error for unknown metric")
	}
	if !strings.Contains(err.Error(), "hamming") {
		t.Errorf("error = %q, want metric name in message", err)
	}
}

func TestValidateName(t *testing.T) {
	valid := []string{"products", "my-collection_1", "a.b", strings.Repeat("x", MaxNameLength)}
	for _, n := range valid {
		if err := ValidateName(n); err != nil {
			t.Errorf("ValidateName(%q): unexpected error: %v", n, err)
		}
	}

	invalid := []string{"", "   ", "a/b", `a\b`, "a?b", "a%b", "a*b", "a:b", "a|b", `a"b`, "a<b", "a>b",
		strings.Repeat("x", MaxNameLength+1)}
	for _, n := range invalid {
		if err := ValidateName(n); err == nil {
			t.Errorf("ValidateName(%q): expected error", n)
		}
	}
}

func TestNewVectorConfig(t *testing.T) {
	cfg, err := NewVectorConfig(384, Cosine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Size() != 384 {
		t.Errorf("Size() = %d, want 384", cfg.Size())
	}
	if cfg.Distance() != Cosine {
		t.Errorf("Distance() = %q, want Cosine", cfg.Distance())
	}

	if _, err := NewVectorConfig(0, Cosine); err == nil {
		t.Error("expected error for zero size")
	}
	if _, err := NewVectorConfig(3, "cosine"); err == nil {
		t.Error("expected error for non-normalized distance")
	}
}
