package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/analytics"
)

// Performance reads the global performance report. GET analytics/performance.
// An empty region covers all regions.
func (c *Client) Performance(ctx context.Context, tr analytics.TimeRange, region string) (analytics.Performance, error) {
	q := url.Values{"time_range": []string{string(tr)}}
	if region != "" {
		q.Set("region", region)
	}
	var out analytics.Performance
	if err := c.getJSON(ctx, "analytics/performance", nil, q, &out); err != nil {
		return analytics.Performance{}, fmt.Errorf("performance analytics: %w", err)
	}
	return out, nil
}

// RegionPerformance reads per-region metrics. GET analytics/regions.
func (c *Client) RegionPerformance(ctx context.Context, tr analytics.TimeRange) (analytics.RegionPerformance, error) {
	q := url.Values{"time_range": []string{string(tr)}}
	var out analytics.RegionPerformance
	if err := c.getJSON(ctx, "analytics/regions", nil, q, &out); err != nil {
		return nil, fmt.Errorf("region analytics: %w", err)
	}
	return out, nil
}

// CacheAnalytics reads the cache performance report. GET analytics/cache.
func (c *Client) CacheAnalytics(ctx context.Context, tr analytics.TimeRange) (analytics.Cache, error) {
	q := url.Values{"time_range": []string{string(tr)}}
	var out analytics.Cache
	if err := c.getJSON(ctx, "analytics/cache", nil, q, &out); err != nil {
		return nil, fmt.Errorf("cache analytics: %w", err)
	}
	return out, nil
}

// CollectionAnalytics reads one collection's report.
// GET analytics/collections/{name}.
func (c *Client) CollectionAnalytics(
	ctx context.Context, name string, tr analytics.TimeRange,
) (analytics.Collection, error) {
	q := url.Values{"time_range": []string{string(tr)}}
	var out analytics.Collection
	if err := c.getJSON(ctx, "analytics/collections/{name}", []string{name}, q, &out); err != nil {
		return analytics.Collection{}, fmt.Errorf("collection analytics %q: %w", name, err)
	}
	return out, nil
}

// Usage reads account usage against plan limits. GET analytics/usage.
func (c *Client) Usage(ctx context.Context) (analytics.Usage, error) {
	var out analytics.Usage
	if err := c.getJSON(ctx, "analytics/usage", nil, nil, &out); err != nil {
		return analytics.Usage{}, fmt.Errorf("usage analytics: %w", err)
	}
	return out, nil
}

// TopCollections ranks collections by metric. GET analytics/collections/top.
func (c *Client) TopCollections(
	ctx context.Context, metric analytics.TopMetric, tr analytics.TimeRange, limit int,
) ([]analytics.Collection, error) {
	q := url.Values{
		"metric":     []string{string(metric)},
		"time_range": []string{string(tr)},
		"limit":      []string{strconv.Itoa(limit)},
	}
	var out struct {
		Collections []analytics.Collection `json:"collections"`
	}
	if err := c.getJSON(ctx, "analytics/collections/top", nil, q, &out); err != nil {
		return nil, fmt.Errorf("top collections: %w", err)
	}
	return out.Collections, nil
}

func (c *Client) getJSON(ctx context.Context, route string, params []string, q url.Values, out any) error {
	resp, err := c.send(ctx, request{method: http.MethodGet, route: route, params: params, query: q})
	if err != nil {
		return err
	}
	return decode(resp, route, out)
}
