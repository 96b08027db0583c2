// Package search holds the vector similarity query and its hits.
package search

import (
	"fmt"
	"math"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/filter"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/point"
)

// Search parameter limits.
const (
	DefaultLimit = 10
	MaxLimit     = 1000
)

// Request is a validated similarity query.
type Request struct {
	vector         []float32
	limit          int
	offset         int
	filter         filter.Expression
	withPayload    bool
	withVector     bool
	scoreThreshold *float64
}

// Params are the caller-supplied query options.
type Params struct {
	Limit          int
	Offset         int
	Filter         filter.Expression
	WithPayload    bool
	WithVector     bool
	ScoreThreshold *float64
}

// New validates and normalizes search parameters.
// Defaults: limit=10. Limit is clamped to MaxLimit.
func New(vector []float32, p Params) (Request, error) {
	if len(vector) == 0 {
		return Request{}, fmt.Errorf("query vector is required")
	}
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Request{}, fmt.Errorf("query vector[%d] is not a finite number", i)
		}
	}
	if p.Offset < 0 {
		return Request{}, fmt.Errorf("offset must be non-negative, got %d", p.Offset)
	}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Request{
		vector:         append([]float32(nil), vector...),
		limit:          limit,
		offset:         p.Offset,
		filter:         p.Filter,
		withPayload:    p.WithPayload,
		withVector:     p.WithVector,
		scoreThreshold: p.ScoreThreshold,
	}, nil
}

// Vector returns the query vector.
func (r *Request) Vector() []float32 { return r.vector }

// Limit returns the maximum number of hits.
func (r *Request) Limit() int { return r.limit }

// Offset returns the number of hits to skip.
func (r *Request) Offset() int { return r.offset }

// Filter returns the payload filter.
func (r *Request) Filter() filter.Expression { return r.filter }

// WithPayload reports whether payloads are returned.
func (r *Request) WithPayload() bool { return r.withPayload }

// WithVector reports whether vectors are returned.
func (r *Request) WithVector() bool { return r.withVector }

// ScoreThreshold returns the minimum score (nil when unset).
func (r *Request) ScoreThreshold() *float64 { return r.scoreThreshold }

// Hit is a single search result.
type Hit struct {
	ID      point.ID
	Score   float64
	Payload map[string]any
	Vector  []float32
}
