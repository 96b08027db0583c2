package collection

import (
	"fmt"
	"strings"
)

// MaxNameLength is the maximum collection name length.
const MaxNameLength = 255

const invalidNameChars = `/\?%*:|"<>`

// Distance is the similarity metric of a collection.
type Distance string

// Distance constants use the server's wire spelling.
const (
	Cosine    Distance = "Cosine"
	Euclidean Distance = "Euclidean"
	Dot       Distance = "Dot"
	Manhattan Distance = "Manhattan"
)

var distanceAliases = map[string]Distance{
	"cosine":    Cosine,
	"euclidean": Euclidean,
	"euclid":    Euclidean,
	"dot":       Dot,
	"manhattan": Manhattan,
}

// IsValid checks if the distance metric is supported.
func (d Distance) IsValid() bool {
	switch d {
	case Cosine, Euclidean, Dot, Manhattan:
		return true
	default:
		return false
	}
}

// ParseDistance normalizes a case-insensitive metric name ("cosine", "Euclid", ...).
func ParseDistance(s string) (Distance, error) {
	if d, ok := distanceAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("invalid distance metric %q: must be one of Cosine, Euclidean, Dot, Manhattan", s)
}

// ValidateName checks a collection name.
// Name: non-blank, at most 255 chars, none of / \ ? % * : | " < >.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("collection name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("collection name must be %d characters or less", MaxNameLength)
	}
	if strings.ContainsAny(name, invalidNameChars) {
		return fmt.Errorf("collection name %q contains invalid characters", name)
	}
	return nil
}

// VectorConfig is the vector schema of a collection (immutable value object).
type VectorConfig struct {
	size     int
	distance Distance
}

// NewVectorConfig validates and creates a VectorConfig.
// Size must be positive; distance must be a supported metric.
func NewVectorConfig(size int, distance Distance) (VectorConfig, error) {
	if size <= 0 {
		return VectorConfig{}, fmt.Errorf("vector size must be positive, got %d", size)
	}
	if !distance.IsValid() {
		return VectorConfig{}, fmt.Errorf("invalid distance metric %q", distance)
	}
	return VectorConfig{size: size, distance: distance}, nil
}

// ReconstructVectorConfig creates a VectorConfig without validation (response hydration).
func ReconstructVectorConfig(size int, distance Distance) VectorConfig {
	return VectorConfig{size: size, distance: distance}
}

// Size returns the vector dimensionality.
func (c VectorConfig) Size() int { return c.size }

// Distance returns the similarity metric.
func (c VectorConfig) Distance() Distance { return c.distance }

// Metadata is what the service reports about a collection.
type Metadata struct {
	Name        string
	Vectors     VectorConfig
	ETag        string // schema_version; empty when the server sends none
	PointsCount int64
	Status      string
}
