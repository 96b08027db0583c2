// Package metrics defines the Prometheus collectors of the client.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "aetherfy"
	subsystem = "sdk"
)

// Set holds every collector the client records into. A nil *Set records nothing.
type Set struct {
	Operations       *prometheus.CounterVec   // operation, status
	OperationLatency *prometheus.HistogramVec // operation
	HTTPRequests     *prometheus.CounterVec   // method, route, status
	HTTPLatency      *prometheus.HistogramVec // method, route
	CacheLookups     *prometheus.CounterVec   // cache, result
	Retries          *prometheus.CounterVec   // method, route
	SchemaViolations *prometheus.CounterVec   // enforcement, code
	Preconditions    *prometheus.CounterVec   // outcome
	Embedding        *EmbeddingSet
}

// New creates the collectors and registers them with reg.
// Collectors already registered by another client are reused.
func New(reg prometheus.Registerer) (*Set, error) {
	s := &Set{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operations_total",
			Help:      "Total SDK operations by type and status.",
		}, []string{"operation", "status"}),
		OperationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests sent to the service.",
		}, []string{"method", "route", "status"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "schema_cache_lookups_total",
			Help:      "Schema cache lookups by cache and result.",
		}, []string{"cache", "result"}), // "vector"/"payload", "hit"/"miss"/"absent"
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "retries_total",
			Help:      "Retried write requests.",
		}, []string{"method", "route"}),
		SchemaViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "schema_violations_total",
			Help:      "Payload schema violations found before writes.",
		}, []string{"enforcement", "code"}),
		Preconditions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "precondition_failures_total",
			Help:      "Writes rejected for a stale schema version, by recovery outcome.",
		}, []string{"outcome"}), // "recovered" / "schema_changed" / "revalidation_failed" / "error"
		Embedding: newEmbeddingSet(),
	}

	collectors := []*prometheus.CounterVec{
		s.Operations, s.HTTPRequests, s.CacheLookups, s.Retries, s.SchemaViolations, s.Preconditions,
		s.Embedding.Requests, s.Embedding.Tokens, s.Embedding.Errors,
	}
	for i := range collectors {
		if err := RegisterOrReuse(reg, &collectors[i]); err != nil {
			return nil, err
		}
	}
	s.Operations, s.HTTPRequests, s.CacheLookups = collectors[0], collectors[1], collectors[2]
	s.Retries, s.SchemaViolations, s.Preconditions = collectors[3], collectors[4], collectors[5]
	s.Embedding.Requests, s.Embedding.Tokens, s.Embedding.Errors = collectors[6], collectors[7], collectors[8]

	for _, h := range []**prometheus.HistogramVec{&s.OperationLatency, &s.HTTPLatency, &s.Embedding.Latency} {
		if err := RegisterOrReuse(reg, h); err != nil {
			return nil, err
		}
	}
	if err := RegisterOrReuse(reg, &s.Embedding.BudgetRemaining); err != nil {
		return nil, err
	}
	return s, nil
}

// RegisterOrReuse registers a collector or reuses an existing one.
func RegisterOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("aetherfy: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("aetherfy: register metric: %w", err)
	}
	return nil
}

// CacheLookupVec returns the cache lookup counter, nil-safe.
func (s *Set) CacheLookupVec() *prometheus.CounterVec {
	if s == nil {
		return nil
	}
	return s.CacheLookups
}

// ObserveOperation records one public operation.
func (s *Set) ObserveOperation(op string, seconds float64, failed bool) {
	if s == nil {
		return
	}
	status := "ok"
	if failed {
		status = "error"
	}
	s.Operations.WithLabelValues(op, status).Inc()
	s.OperationLatency.WithLabelValues(op).Observe(seconds)
}

// IncRetry counts one retried request.
func (s *Set) IncRetry(method, route string) {
	if s == nil {
		return
	}
	s.Retries.WithLabelValues(method, route).Inc()
}

// AddViolations counts schema violations by code.
func (s *Set) AddViolations(enforcement, code string, n int) {
	if s == nil || n == 0 {
		return
	}
	s.SchemaViolations.WithLabelValues(enforcement, code).Add(float64(n))
}

// IncPrecondition counts a precondition failure by recovery outcome.
func (s *Set) IncPrecondition(outcome string) {
	if s == nil {
		return
	}
	s.Preconditions.WithLabelValues(outcome).Inc()
}

// EmbeddingMetrics returns the embedding collectors, nil-safe.
func (s *Set) EmbeddingMetrics() *EmbeddingSet {
	if s == nil {
		return nil
	}
	return s.Embedding
}
