package aetherfy

import (
	"context"
	"fmt"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
)

// TypedCollection is a struct-mapped view of a collection.
// The payload schema is inferred from T's struct tags at construction time.
type TypedCollection[T any] struct {
	name   string
	client *Client
	meta   *structMeta
}

// Hit is a typed search result.
type Hit[T any] struct {
	Item  T
	Score float64
}

// NewTypedCollection creates a typed handle for the named collection.
// T must be a struct with an `aetherfy:",id"` and an `aetherfy:",vector"` field.
func NewTypedCollection[T any](client *Client, name string) (*TypedCollection[T], error) {
	meta, err := parseStruct[T]()
	if err != nil {
		return nil, fmt.Errorf("typed collection %q: %w", name, err)
	}
	return &TypedCollection[T]{name: name, client: client, meta: meta}, nil
}

// Schema returns the payload schema inferred from T.
func (tc *TypedCollection[T]) Schema() Schema {
	return tc.meta.schema()
}

// ApplySchema stores the inferred schema on the collection and returns its version.
func (tc *TypedCollection[T]) ApplySchema(ctx context.Context, enforcement Enforcement) (string, error) {
	return tc.client.Schemas(tc.name).Set(ctx, tc.Schema(), enforcement)
}

// Upsert writes items as points.
func (tc *TypedCollection[T]) Upsert(ctx context.Context, items ...T) error {
	points := make([]Point, len(items))
	for i := range items {
		points[i] = tc.meta.toPoint(items[i])
	}
	return tc.client.Points(tc.name).Upsert(ctx, points)
}

// Get retrieves one item by ID.
func (tc *TypedCollection[T]) Get(ctx context.Context, id any) (T, error) {
	var zero T
	records, err := tc.client.Points(tc.name).Retrieve(ctx, []any{id}, true, true)
	if err != nil {
		return zero, fmt.Errorf("get: %w", err)
	}
	if len(records) == 0 {
		return zero, fmt.Errorf("get: point %v: %w", id, domain.ErrNotFound)
	}
	return tc.decode(records[0])
}

// Delete removes items by ID.
func (tc *TypedCollection[T]) Delete(ctx context.Context, ids ...any) error {
	return tc.client.Points(tc.name).Delete(ctx, ids)
}

// Search returns the items closest to vector.
func (tc *TypedCollection[T]) Search(ctx context.Context, vector []float32, limit int, f *Filter) ([]Hit[T], error) {
	results, err := tc.client.Points(tc.name).Search(ctx, SearchRequest{
		Vector:      vector,
		Limit:       limit,
		Filter:      f,
		WithPayload: true,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]Hit[T], len(results))
	for i, r := range results {
		item, err := tc.decode(Record{ID: r.ID, Vector: r.Vector, Payload: r.Payload})
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		hits[i] = Hit[T]{Item: item, Score: r.Score}
	}
	return hits, nil
}

func (tc *TypedCollection[T]) decode(r Record) (T, error) {
	var zero T
	v, err := tc.meta.fromRecord(r)
	if err != nil {
		return zero, fmt.Errorf("decode point %v: %w", r.ID, err)
	}
	item, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("decode point %v: type assertion failed", r.ID)
	}
	return item, nil
}
