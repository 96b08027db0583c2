package aetherfy

import (
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/analytics"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/collection"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/schema"
)

// Distance is the similarity metric of a collection.
type Distance string

// Distance constants. Create also accepts any casing and "euclid".
const (
	Cosine    Distance = "Cosine"
	Euclidean Distance = "Euclidean"
	Dot       Distance = "Dot"
	Manhattan Distance = "Manhattan"
)

// VectorConfig is the vector schema of a collection.
type VectorConfig struct {
	Size     int
	Distance Distance
}

// CollectionInfo is what the service reports about a collection.
// SchemaVersion is the vector schema's concurrency token, empty if not reported.
type CollectionInfo struct {
	Name          string
	Vectors       VectorConfig
	PointsCount   int64
	Status        string
	SchemaVersion string
}

// Point is a vector record to write. ID is a non-empty string or an integer.
type Point struct {
	ID      any
	Vector  []float32
	Payload map[string]any
}

// TextPoint is a record whose vector is computed from Text by the client's embedder.
type TextPoint struct {
	ID      any
	Text    string
	Payload map[string]any
}

// Record is a point read back from a collection.
// Vector and Payload are nil unless requested.
type Record struct {
	ID      any
	Vector  []float32
	Payload map[string]any
}

// Filter selects points by payload. All Must conditions, at least one Should
// condition (when present) and no MustNot condition must hold.
type Filter struct {
	Must    []Condition
	Should  []Condition
	MustNot []Condition
}

// Condition matches one payload key, either exactly (Match) or by Range.
type Condition struct {
	Key   string
	Match any
	Range *Range
}

// Range bounds a numeric payload value. Nil bounds are open.
type Range struct {
	GT  *float64
	GTE *float64
	LT  *float64
	LTE *float64
}

// SearchRequest configures a similarity search.
// Limit defaults to 10 and is capped at 1000.
type SearchRequest struct {
	Vector         []float32
	Limit          int
	Offset         int
	Filter         *Filter
	WithPayload    bool
	WithVector     bool
	ScoreThreshold *float64
}

// SearchResult is one search hit.
type SearchResult struct {
	ID      any
	Score   float64
	Payload map[string]any
	Vector  []float32
}

// Payload schema types.
type (
	// Schema is the payload contract of a collection.
	Schema = schema.Schema
	// FieldDefinition describes one payload field.
	FieldDefinition = schema.FieldDefinition
	// FieldType is the declared type of a payload field.
	FieldType = schema.Type
	// Enforcement controls how violations are handled on writes.
	Enforcement = schema.Enforcement
	// SchemaInfo is a stored payload schema with its version token.
	SchemaInfo = schema.Definition
	// AnalysisResult is the service's inference over existing payloads.
	AnalysisResult = schema.AnalysisResult
)

// Payload field types.
const (
	FieldNull    = schema.Null
	FieldBoolean = schema.Boolean
	FieldInteger = schema.Integer
	FieldFloat   = schema.Float
	FieldString  = schema.String
	FieldArray   = schema.Array
	FieldObject  = schema.Object
)

// Enforcement modes.
const (
	EnforcementOff    = schema.Off
	EnforcementWarn   = schema.Warn
	EnforcementStrict = schema.Strict
)

// Analytics report types.
type (
	// TimeRange is the aggregation window of a report.
	TimeRange = analytics.TimeRange
	// TopMetric orders the top collections report.
	TopMetric = analytics.TopMetric
	// PerformanceAnalytics is the global performance report.
	PerformanceAnalytics = analytics.Performance
	// RegionPerformance maps each region to its named metrics.
	RegionPerformance = analytics.RegionPerformance
	// CacheAnalytics is the cache performance report.
	CacheAnalytics = analytics.Cache
	// CollectionAnalytics is one collection's report.
	CollectionAnalytics = analytics.Collection
	// UsageStats is account usage against plan limits.
	UsageStats = analytics.Usage
)

// Time ranges and top collection metrics.
const (
	LastHour  = analytics.LastHour
	LastDay   = analytics.LastDay
	LastWeek  = analytics.LastWeek
	LastMonth = analytics.LastMonth

	ByRequests = analytics.ByRequests
	ByLatency  = analytics.ByLatency
	ByStorage  = analytics.ByStorage
)

func fromMetadata(m collection.Metadata) CollectionInfo {
	return CollectionInfo{
		Name: m.Name,
		Vectors: VectorConfig{
			Size:     m.Vectors.Size(),
			Distance: Distance(m.Vectors.Distance()),
		},
		PointsCount:   m.PointsCount,
		Status:        m.Status,
		SchemaVersion: m.ETag,
	}
}
