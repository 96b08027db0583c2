package aetherfy

import (
	"context"
	"fmt"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/collection"
)

// PointService reads and writes points of a single collection.
type PointService struct {
	collection string
	client     *Client
}

// Upsert validates points against the collection's schemas and writes them.
//
// Vector lengths must match the collection dimensionality
// (*DimensionMismatchError). With a strict payload schema, every offending
// point is reported in one *SchemaValidationError and nothing is written;
// warn mode logs violations and writes anyway. Writes carry the schema
// version; if it is stale the schemas are refreshed and the write is retried
// once, failing with ErrSchemaChanged if it is still rejected.
func (s *PointService) Upsert(ctx context.Context, points []Point) (err error) {
	ctx, done := s.client.obs.start(ctx, "points.upsert", s.collection)
	defer done(&err)

	if err = collection.ValidateName(s.collection); err != nil {
		return fmt.Errorf("upsert: %w: %w", domain.ErrValidation, err)
	}
	internal, err := toInternalPoints(points)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return s.client.upsertSvc.Upsert(ctx, s.collection, internal)
}

// UpsertTexts embeds each text with the client's embedder and upserts the
// resulting points. Requires WithEmbedder, WithOpenAIEmbedder or an
// embedding section in the config file.
func (s *PointService) UpsertTexts(ctx context.Context, texts []TextPoint) (err error) {
	ctx, done := s.client.obs.start(ctx, "points.upsert_texts", s.collection)
	defer done(&err)

	if s.client.embedder == nil {
		return fmt.Errorf("upsert texts: %w (use WithEmbedder)", domain.ErrEmbedderNotConfigured)
	}
	if len(texts) == 0 {
		return fmt.Errorf("upsert texts: %w: points list cannot be empty", domain.ErrValidation)
	}

	input := make([]string, len(texts))
	for i, t := range texts {
		if t.Text == "" {
			return fmt.Errorf("upsert texts: %w: point %d: text is required", domain.ErrValidation, i)
		}
		input[i] = t.Text
	}

	res, err := domain.EmbedAll(ctx, s.client.embedder, input)
	if err != nil {
		return fmt.Errorf("upsert texts: %w", err)
	}

	points := make([]Point, len(texts))
	for i, t := range texts {
		points[i] = Point{ID: t.ID, Vector: res.Embeddings[i], Payload: t.Payload}
	}
	internal, err := toInternalPoints(points)
	if err != nil {
		return fmt.Errorf("upsert texts: %w", err)
	}
	return s.client.upsertSvc.Upsert(ctx, s.collection, internal)
}

// Delete removes points by ID.
func (s *PointService) Delete(ctx context.Context, ids []any) (err error) {
	ctx, done := s.client.obs.start(ctx, "points.delete", s.collection)
	defer done(&err)

	internal, err := toInternalIDs(ids)
	if err != nil {
		return fmt.Errorf("delete points: %w", err)
	}
	if err = s.client.points.DeletePoints(ctx, s.collection, internal); err != nil {
		return fmt.Errorf("delete points: %w", err)
	}
	return nil
}

// DeleteByFilter removes every point matching f. An empty filter is rejected.
func (s *PointService) DeleteByFilter(ctx context.Context, f Filter) (err error) {
	ctx, done := s.client.obs.start(ctx, "points.delete_by_filter", s.collection)
	defer done(&err)

	expr, err := toInternalFilter(&f)
	if err != nil {
		return fmt.Errorf("delete points: %w: %w", domain.ErrValidation, err)
	}
	if expr.IsEmpty() {
		return fmt.Errorf("delete points: %w: filter cannot be empty", domain.ErrValidation)
	}
	if err = s.client.points.DeletePointsByFilter(ctx, s.collection, expr); err != nil {
		return fmt.Errorf("delete points: %w", err)
	}
	return nil
}

// Retrieve fetches points by ID. Missing IDs are omitted from the result.
func (s *PointService) Retrieve(
	ctx context.Context, ids []any, withPayload, withVector bool,
) (_ []Record, err error) {
	ctx, done := s.client.obs.start(ctx, "points.retrieve", s.collection)
	defer done(&err)

	internal, err := toInternalIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("retrieve points: %w", err)
	}
	records, err := s.client.points.RetrievePoints(ctx, s.collection, internal, withPayload, withVector)
	if err != nil {
		return nil, fmt.Errorf("retrieve points: %w", err)
	}
	return fromRecords(records), nil
}

// Search returns the points most similar to req.Vector.
func (s *PointService) Search(ctx context.Context, req SearchRequest) (_ []SearchResult, err error) {
	ctx, done := s.client.obs.start(ctx, "points.search", s.collection)
	defer done(&err)

	return s.search(ctx, req)
}

// SearchText embeds text with the client's embedder and searches with it.
// req.Vector is ignored.
func (s *PointService) SearchText(
	ctx context.Context, text string, req SearchRequest,
) (_ []SearchResult, err error) {
	ctx, done := s.client.obs.start(ctx, "points.search_text", s.collection)
	defer done(&err)

	if s.client.embedder == nil {
		return nil, fmt.Errorf("search text: %w (use WithEmbedder)", domain.ErrEmbedderNotConfigured)
	}
	if text == "" {
		return nil, fmt.Errorf("search text: %w: query text is required", domain.ErrValidation)
	}
	res, err := s.client.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("search text: %w", err)
	}
	req.Vector = res.Embedding
	return s.search(ctx, req)
}

func (s *PointService) search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	r, err := toInternalSearch(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	hits, err := s.client.points.Search(ctx, s.collection, r)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return fromHits(hits), nil
}

// Count returns the number of points matching f (all points when f is nil).
// exact=false lets the service answer from an estimate.
func (s *PointService) Count(ctx context.Context, f *Filter, exact bool) (_ int64, err error) {
	ctx, done := s.client.obs.start(ctx, "points.count", s.collection)
	defer done(&err)

	expr, err := toInternalFilter(f)
	if err != nil {
		return 0, fmt.Errorf("count points: %w: %w", domain.ErrValidation, err)
	}
	n, err := s.client.points.Count(ctx, s.collection, expr, exact)
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return n, nil
}

