// Package upsert validates point batches against cached collection schemas
// and writes them under an optimistic-concurrency precondition.
package upsert

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/point"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/schema"
	"github.com/aetherfy/aetherfy-vectors-go/internal/logger"
	"github.com/aetherfy/aetherfy-vectors-go/internal/metrics"
	"github.com/aetherfy/aetherfy-vectors-go/internal/schemacache"
)

// Precondition outcomes recorded in metrics.
const (
	outcomeRecovered     = "recovered"
	outcomeSchemaChanged = "schema_changed"
	outcomeRevalidation  = "revalidation_failed"
	outcomeError         = "error"
)

// Service runs the upsert protocol. Safe for concurrent use.
type Service struct {
	transport Transport
	vectors   VectorCache
	payloads  PayloadCache
	metrics   *metrics.Set
	logger    *zap.Logger
	fetches   singleflight.Group
}

// New creates an upsert service.
func New(t Transport, vectors VectorCache, payloads PayloadCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{transport: t, vectors: vectors, payloads: payloads, logger: logger}
}

// WithMetrics records schema violations and precondition outcomes into m.
func (s *Service) WithMetrics(m *metrics.Set) *Service {
	s.metrics = m
	return s
}

// Upsert validates points and writes them to the collection.
//
// Vector dimensions are always checked against the collection. Payloads are
// checked when the collection has a payload schema with enforcement warn or
// strict; strict violations abort with *schema.SchemaValidationError before
// any write. A write rejected for a stale schema version is recovered once
// after refreshing both schemas; a second rejection returns domain.ErrSchemaChanged.
func (s *Service) Upsert(ctx context.Context, name string, points []point.Point) error {
	log := s.requestLogger(ctx, name)

	if len(points) == 0 {
		return fmt.Errorf("%w: points list cannot be empty", domain.ErrValidation)
	}

	vec, err := s.vectorSchema(ctx, name)
	if err != nil {
		return err
	}
	if err := checkDimensions(points, vec.Dimension); err != nil {
		return err
	}

	payload, err := s.payloadSchema(ctx, name, log)
	if err != nil {
		return err
	}
	if err := s.validate(name, points, payload, log); err != nil {
		return err
	}

	err = s.transport.SubmitUpsert(ctx, name, points, concurrencyToken(payload, vec))
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrPreconditionFailed) {
		return err
	}
	return s.recover(ctx, name, points, log)
}

// requestLogger prefers the request-scoped logger, which already carries
// the collection field.
func (s *Service) requestLogger(ctx context.Context, name string) *zap.Logger {
	if logger.HasLogger(ctx) {
		return logger.FromContext(ctx, s.logger)
	}
	return s.logger.With(zap.String("collection", name))
}

// recover handles a write rejected for a stale token: both cache entries are
// dropped, the schemas are fetched again, the batch is revalidated and
// submitted exactly once more.
func (s *Service) recover(ctx context.Context, name string, points []point.Point, log *zap.Logger) error {
	log.Info("schema version changed, refreshing before retry")
	s.vectors.Clear(name)
	s.payloads.Clear(name)

	payload := s.fetchPayload(ctx, name, log)
	if err := s.validate(name, points, payload, log); err != nil {
		s.metrics.IncPrecondition(outcomeRevalidation)
		return err
	}

	var vec schemacache.VectorEntry
	if payload.State != schemacache.Known || payload.Entry.ETag == "" {
		// The payload schema offers no token; the collection version is the fallback.
		fresh, err := s.fetchVector(ctx, name)
		if err != nil {
			s.metrics.IncPrecondition(outcomeError)
			return err
		}
		if err := checkDimensions(points, fresh.Dimension); err != nil {
			s.metrics.IncPrecondition(outcomeRevalidation)
			return err
		}
		vec = fresh
	}

	err := s.transport.SubmitUpsert(ctx, name, points, concurrencyToken(payload, vec))
	switch {
	case err == nil:
		s.metrics.IncPrecondition(outcomeRecovered)
		return nil
	case errors.Is(err, domain.ErrPreconditionFailed):
		s.metrics.IncPrecondition(outcomeSchemaChanged)
		s.vectors.Clear(name)
		s.payloads.Clear(name)
		log.Warn("schema changed again during retry", zap.Error(err))
		return fmt.Errorf("upsert into %q: %w", name, domain.ErrSchemaChanged)
	default:
		s.metrics.IncPrecondition(outcomeError)
		return err
	}
}

// vectorSchema returns the cached vector schema, fetching it on a miss.
func (s *Service) vectorSchema(ctx context.Context, name string) (schemacache.VectorEntry, error) {
	if e, ok := s.vectors.Get(name); ok {
		return e, nil
	}
	v, err := s.shared(ctx, "vector/"+name, func(ctx context.Context) (any, error) {
		return s.fetchVector(ctx, name)
	})
	if err != nil {
		return schemacache.VectorEntry{}, err
	}
	return v.(schemacache.VectorEntry), nil
}

// shared runs fetch once per key across concurrent callers. The fetch
// ignores the cancellation of whichever caller started it; each caller
// stops waiting when its own context ends. The transport bounds every
// attempt with its own timeout.
func (s *Service) shared(
	ctx context.Context, key string, fetch func(ctx context.Context) (any, error),
) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.fetches.DoChan(key, func() (any, error) {
		return fetch(detached)
	})
	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for %s schema: %w", key, ctx.Err())
	}
}

func (s *Service) fetchVector(ctx context.Context, name string) (schemacache.VectorEntry, error) {
	md, err := s.transport.FetchCollectionMetadata(ctx, name)
	if err != nil {
		return schemacache.VectorEntry{}, fmt.Errorf("resolve vector schema: %w", err)
	}
	e := schemacache.VectorEntry{
		Dimension: md.Vectors.Size(),
		Distance:  md.Vectors.Distance(),
		ETag:      md.ETag,
	}
	s.vectors.Put(name, e)
	return e, nil
}

// payloadSchema resolves the payload schema to Known or KnownAbsent. It
// fails only when ctx ends while waiting for the fetch.
func (s *Service) payloadSchema(ctx context.Context, name string, log *zap.Logger) (schemacache.Lookup, error) {
	if l := s.payloads.Lookup(name); l.State != schemacache.Unknown {
		return l, nil
	}
	v, err := s.shared(ctx, "payload/"+name, func(ctx context.Context) (any, error) {
		return s.fetchPayload(ctx, name, log), nil
	})
	if err != nil {
		return schemacache.Lookup{}, err
	}
	return v.(schemacache.Lookup), nil
}

// fetchPayload never fails: a missing schema is cached as absent, and any
// other fetch error is treated as absent for this call only.
func (s *Service) fetchPayload(ctx context.Context, name string, log *zap.Logger) schemacache.Lookup {
	def, err := s.transport.FetchPayloadSchema(ctx, name)
	switch {
	case err == nil:
		e := schemacache.PayloadEntry{Schema: def.Schema, ETag: def.ETag, Enforcement: def.Enforcement}
		if !e.Enforcement.IsValid() {
			e.Enforcement = schema.Off
		}
		s.payloads.Put(name, e)
		return schemacache.Lookup{State: schemacache.Known, Entry: e}
	case errors.Is(err, domain.ErrNotFound):
		s.payloads.MarkAbsent(name)
	default:
		log.Warn("payload schema fetch failed, skipping payload validation", zap.Error(err))
	}
	return schemacache.Lookup{State: schemacache.KnownAbsent}
}

// validate runs the payload gate. Only strict enforcement returns an error.
func (s *Service) validate(name string, points []point.Point, l schemacache.Lookup, log *zap.Logger) error {
	if l.State != schemacache.Known || l.Entry.Enforcement == schema.Off {
		return nil
	}

	records := schema.ValidatePoints(points, l.Entry.Schema)
	if len(records) == 0 {
		return nil
	}
	s.countViolations(l.Entry.Enforcement, records)

	if l.Entry.Enforcement == schema.Strict {
		return &schema.SchemaValidationError{Collection: name, Records: records}
	}
	for _, r := range records {
		for _, e := range r.Errors {
			log.Warn("payload schema violation",
				zap.Int("index", r.Index),
				zap.Stringer("id", r.ID),
				zap.String("field", e.Field),
				zap.String("code", e.Code),
				zap.String("message", e.Message),
			)
		}
	}
	return nil
}

func (s *Service) countViolations(enforcement schema.Enforcement, records []schema.RecordErrors) {
	if s.metrics == nil {
		return
	}
	byCode := make(map[string]int)
	for _, r := range records {
		for _, e := range r.Errors {
			byCode[e.Code]++
		}
	}
	for code, n := range byCode {
		s.metrics.AddViolations(string(enforcement), code, n)
	}
}

// checkDimensions requires a non-empty vector of the collection's
// dimensionality on every point. A zero dimension skips the length check.
func checkDimensions(points []point.Point, dim int) error {
	for i := range points {
		got := points[i].Dimension()
		if got == 0 {
			return fmt.Errorf("%w: point %d has no vector", domain.ErrValidation, i)
		}
		if dim > 0 && got != dim {
			return domain.NewDimensionMismatch(i, dim, got)
		}
	}
	return nil
}

// concurrencyToken prefers the payload schema ETag over the collection version.
func concurrencyToken(payload schemacache.Lookup, vec schemacache.VectorEntry) string {
	if payload.State == schemacache.Known && payload.Entry.ETag != "" {
		return payload.Entry.ETag
	}
	return vec.ETag
}
