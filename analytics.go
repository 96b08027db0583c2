package aetherfy

import (
	"context"
	"fmt"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/analytics"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/collection"
)

// DefaultTopCollections is the default size of the top collections report.
const DefaultTopCollections = 10

// AnalyticsService reads service performance and usage reports.
// An empty TimeRange means LastDay.
type AnalyticsService struct {
	api analyticsAPI
	obs *observer
}

// Performance returns the global performance report. An empty region covers all regions.
func (s *AnalyticsService) Performance(
	ctx context.Context, tr TimeRange, region string,
) (_ PerformanceAnalytics, err error) {
	ctx, done := s.obs.start(ctx, "analytics.performance", "")
	defer done(&err)

	tr, err = parseTimeRange(tr)
	if err != nil {
		return PerformanceAnalytics{}, err
	}
	return s.api.Performance(ctx, tr, region)
}

// RegionPerformance returns metrics for each region.
func (s *AnalyticsService) RegionPerformance(ctx context.Context, tr TimeRange) (_ RegionPerformance, err error) {
	ctx, done := s.obs.start(ctx, "analytics.regions", "")
	defer done(&err)

	tr, err = parseTimeRange(tr)
	if err != nil {
		return nil, err
	}
	return s.api.RegionPerformance(ctx, tr)
}

// Cache returns the cache performance report.
func (s *AnalyticsService) Cache(ctx context.Context, tr TimeRange) (_ CacheAnalytics, err error) {
	ctx, done := s.obs.start(ctx, "analytics.cache", "")
	defer done(&err)

	tr, err = parseTimeRange(tr)
	if err != nil {
		return nil, err
	}
	return s.api.CacheAnalytics(ctx, tr)
}

// Collection returns one collection's report.
func (s *AnalyticsService) Collection(
	ctx context.Context, name string, tr TimeRange,
) (_ CollectionAnalytics, err error) {
	ctx, done := s.obs.start(ctx, "analytics.collection", name)
	defer done(&err)

	if err = collection.ValidateName(name); err != nil {
		return CollectionAnalytics{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	tr, err = parseTimeRange(tr)
	if err != nil {
		return CollectionAnalytics{}, err
	}
	return s.api.CollectionAnalytics(ctx, name, tr)
}

// Usage returns account usage against plan limits.
func (s *AnalyticsService) Usage(ctx context.Context) (_ UsageStats, err error) {
	ctx, done := s.obs.start(ctx, "analytics.usage", "")
	defer done(&err)

	return s.api.Usage(ctx)
}

// TopCollections ranks collections by metric. limit <= 0 means DefaultTopCollections.
func (s *AnalyticsService) TopCollections(
	ctx context.Context, metric TopMetric, tr TimeRange, limit int,
) (_ []CollectionAnalytics, err error) {
	ctx, done := s.obs.start(ctx, "analytics.top_collections", "")
	defer done(&err)

	if metric == "" {
		metric = ByRequests
	}
	if !metric.IsValid() {
		return nil, fmt.Errorf("%w: invalid metric %q: must be requests, latency or storage",
			domain.ErrValidation, metric)
	}
	tr, err = parseTimeRange(tr)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultTopCollections
	}
	return s.api.TopCollections(ctx, metric, tr, limit)
}

func parseTimeRange(tr TimeRange) (TimeRange, error) {
	parsed, err := analytics.ParseTimeRange(string(tr))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	return parsed, nil
}
