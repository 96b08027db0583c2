// Package schema manages collection payload schemas and keeps the shared
// schema caches consistent with every change.
package schema

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
	domschema "github.com/aetherfy/aetherfy-vectors-go/internal/domain/schema"
	"github.com/aetherfy/aetherfy-vectors-go/internal/schemacache"
)

// DefaultSampleSize is the number of points Analyze inspects by default.
const DefaultSampleSize = 1000

// Service handles payload schema CRUD.
type Service struct {
	repo     Repository
	payloads PayloadCache
	vectors  VectorCache
	logger   *zap.Logger
}

// New creates a schema service.
func New(repo Repository, payloads PayloadCache, vectors VectorCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, payloads: payloads, vectors: vectors, logger: logger}
}

// Get returns the collection's payload schema, or nil when it has none.
// Results, including absence, are served from the cache once known.
func (s *Service) Get(ctx context.Context, name string) (*domschema.Definition, error) {
	switch l := s.payloads.Lookup(name); l.State {
	case schemacache.Known:
		return toDefinition(l.Entry), nil
	case schemacache.KnownAbsent:
		return nil, nil
	}

	def, err := s.repo.FetchPayloadSchema(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		s.payloads.MarkAbsent(name)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schema: %w", err)
	}

	if !def.Enforcement.IsValid() {
		def.Enforcement = domschema.Off
	}
	s.payloads.Put(name, schemacache.PayloadEntry{Schema: def.Schema, ETag: def.ETag, Enforcement: def.Enforcement})
	return &def, nil
}

// Set creates or replaces the payload schema and returns its new ETag.
// An empty enforcement mode means off. Both cache entries are dropped so the
// next write picks up the new version.
func (s *Service) Set(
	ctx context.Context, name string, sc domschema.Schema, enforcement domschema.Enforcement,
) (string, error) {
	if enforcement == "" {
		enforcement = domschema.Off
	}
	if !enforcement.IsValid() {
		return "", fmt.Errorf("%w: invalid enforcement mode %q: must be off, warn or strict",
			domain.ErrValidation, enforcement)
	}
	if err := sc.Check(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	etag, err := s.repo.PutPayloadSchema(ctx, name, sc, enforcement)
	s.invalidate(name)
	if err != nil {
		return "", fmt.Errorf("set schema: %w", err)
	}

	s.logger.Info("payload schema updated",
		zap.String("collection", name),
		zap.String("enforcement", string(enforcement)),
		zap.String("etag", etag),
	)
	return etag, nil
}

// Delete removes the payload schema and drops both cache entries.
func (s *Service) Delete(ctx context.Context, name string) error {
	err := s.repo.DeletePayloadSchema(ctx, name)
	s.invalidate(name)
	if err != nil {
		return fmt.Errorf("delete schema: %w", err)
	}
	return nil
}

// Refresh drops the cached schema and fetches it again.
func (s *Service) Refresh(ctx context.Context, name string) (*domschema.Definition, error) {
	s.payloads.Clear(name)
	return s.Get(ctx, name)
}

// Analyze asks the service to infer a schema from existing payloads.
// A non-positive sample size uses DefaultSampleSize.
func (s *Service) Analyze(ctx context.Context, name string, sampleSize int) (domschema.AnalysisResult, error) {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	res, err := s.repo.AnalyzeSchema(ctx, name, sampleSize)
	if err != nil {
		return domschema.AnalysisResult{}, fmt.Errorf("analyze schema: %w", err)
	}
	return res, nil
}

func (s *Service) invalidate(name string) {
	s.payloads.Clear(name)
	s.vectors.Clear(name)
}

func toDefinition(e schemacache.PayloadEntry) *domschema.Definition {
	return &domschema.Definition{Schema: e.Schema, ETag: e.ETag, Enforcement: e.Enforcement}
}
