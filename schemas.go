package aetherfy

import (
	"context"
	"fmt"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/collection"
)

// SchemaService manages the payload schema of a single collection.
// Every change drops the client's cached schemas for the collection.
type SchemaService struct {
	collection string
	svc        schemaUseCase
	obs        *observer
}

// Get returns the payload schema, or nil if the collection has none.
// The answer, including absence, is cached until Refresh or ClearSchemaCache.
func (s *SchemaService) Get(ctx context.Context) (_ *SchemaInfo, err error) {
	ctx, done := s.obs.start(ctx, "schema.get", s.collection)
	defer done(&err)

	if err = s.validName(); err != nil {
		return nil, err
	}

	return s.svc.Get(ctx, s.collection)
}

// Set creates or replaces the payload schema and returns its new version.
// An empty enforcement mode means EnforcementOff.
func (s *SchemaService) Set(ctx context.Context, sc Schema, enforcement Enforcement) (_ string, err error) {
	ctx, done := s.obs.start(ctx, "schema.set", s.collection)
	defer done(&err)

	if err = s.validName(); err != nil {
		return "", err
	}

	return s.svc.Set(ctx, s.collection, sc, enforcement)
}

// Delete removes the payload schema.
func (s *SchemaService) Delete(ctx context.Context) (err error) {
	ctx, done := s.obs.start(ctx, "schema.delete", s.collection)
	defer done(&err)

	if err = s.validName(); err != nil {
		return err
	}

	return s.svc.Delete(ctx, s.collection)
}

// Refresh drops the cached schema and fetches it again.
func (s *SchemaService) Refresh(ctx context.Context) (_ *SchemaInfo, err error) {
	ctx, done := s.obs.start(ctx, "schema.refresh", s.collection)
	defer done(&err)

	if err = s.validName(); err != nil {
		return nil, err
	}

	return s.svc.Refresh(ctx, s.collection)
}

// Analyze asks the service to infer a schema from up to sampleSize existing
// payloads. sampleSize <= 0 means 1000.
func (s *SchemaService) Analyze(ctx context.Context, sampleSize int) (_ AnalysisResult, err error) {
	ctx, done := s.obs.start(ctx, "schema.analyze", s.collection)
	defer done(&err)

	if err = s.validName(); err != nil {
		return AnalysisResult{}, err
	}

	res, err := s.svc.Analyze(ctx, s.collection, sampleSize)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("collection %q: %w", s.collection, err)
	}
	return res, nil
}

func (s *SchemaService) validName() error {
	if err := collection.ValidateName(s.collection); err != nil {
		return fmt.Errorf("schema: %w: %w", domain.ErrValidation, err)
	}
	return nil
}
