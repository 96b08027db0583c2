// Package analytics holds the service's performance and usage reports.
package analytics

import "fmt"

// TimeRange is the aggregation window of a report.
type TimeRange string

// Time range constants.
const (
	LastHour  TimeRange = "1h"
	LastDay   TimeRange = "24h"
	LastWeek  TimeRange = "7d"
	LastMonth TimeRange = "30d"
)

// ParseTimeRange returns LastDay for an empty range.
func ParseTimeRange(s string) (TimeRange, error) {
	switch tr := TimeRange(s); tr {
	case "":
		return LastDay, nil
	case LastHour, LastDay, LastWeek, LastMonth:
		return tr, nil
	default:
		return "", fmt.Errorf("invalid time range %q: must be 1h, 24h, 7d or 30d", s)
	}
}

// TopMetric orders the top collections report.
type TopMetric string

// Top collection metrics.
const (
	ByRequests TopMetric = "requests"
	ByLatency  TopMetric = "latency"
	ByStorage  TopMetric = "storage"
)

// IsValid checks if the metric is supported.
func (m TopMetric) IsValid() bool {
	return m == ByRequests || m == ByLatency || m == ByStorage
}

// Performance is the global performance report.
type Performance struct {
	CacheHitRate      float64                       `json:"cache_hit_rate"`
	AvgLatencyMS      float64                       `json:"avg_latency_ms"`
	RequestsPerSecond float64                       `json:"requests_per_second"`
	ActiveRegions     []string                      `json:"active_regions"`
	RegionPerformance map[string]map[string]float64 `json:"region_performance"`
	TotalRequests     *int64                        `json:"total_requests,omitempty"`
	ErrorRate         *float64                      `json:"error_rate,omitempty"`
}

// RegionPerformance maps each region to its named metrics
// (latency, request rate and so on).
type RegionPerformance map[string]map[string]float64

// Cache is the cache performance report. Its shape is defined by the
// service; numbers decode as json.Number.
type Cache map[string]any

// Collection is the per-collection report.
type Collection struct {
	CollectionName     string   `json:"collection_name"`
	TotalPoints        int64    `json:"total_points"`
	SearchRequests     int64    `json:"search_requests"`
	AvgSearchLatencyMS float64  `json:"avg_search_latency_ms"`
	CacheHitRate       float64  `json:"cache_hit_rate"`
	TopRegions         []string `json:"top_regions"`
	StorageSizeMB      *float64 `json:"storage_size_mb,omitempty"`
}

// Usage is the account usage against plan limits.
type Usage struct {
	CurrentCollections  int64   `json:"current_collections"`
	MaxCollections      int64   `json:"max_collections"`
	CurrentPoints       int64   `json:"current_points"`
	MaxPoints           int64   `json:"max_points"`
	RequestsThisMonth   int64   `json:"requests_this_month"`
	MaxRequestsPerMonth int64   `json:"max_requests_per_month"`
	StorageUsedMB       float64 `json:"storage_used_mb"`
	MaxStorageMB        float64 `json:"max_storage_mb"`
	PlanName            string  `json:"plan_name"`
}

// CollectionsPercent returns collection usage in percent (0 when unlimited).
func (u Usage) CollectionsPercent() float64 { return percent(float64(u.CurrentCollections), float64(u.MaxCollections)) }

// PointsPercent returns point usage in percent.
func (u Usage) PointsPercent() float64 { return percent(float64(u.CurrentPoints), float64(u.MaxPoints)) }

// RequestsPercent returns monthly request usage in percent.
func (u Usage) RequestsPercent() float64 {
	return percent(float64(u.RequestsThisMonth), float64(u.MaxRequestsPerMonth))
}

// StoragePercent returns storage usage in percent.
func (u Usage) StoragePercent() float64 { return percent(u.StorageUsedMB, u.MaxStorageMB) }

func percent(cur, maxVal float64) float64 {
	if maxVal <= 0 {
		return 0
	}
	return cur / maxVal * 100
}
