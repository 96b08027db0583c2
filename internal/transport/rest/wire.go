package rest

import (
	"encoding/json"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/point"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/schema"
)

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type collectionInfo struct {
	Name   string `json:"name"`
	Config struct {
		Params struct {
			Vectors vectorParams `json:"vectors"`
		} `json:"params"`
	} `json:"config"`
	PointsCount json.Number `json:"points_count"`
	Status      string      `json:"status"`
	// Some list responses put the vector config at the top level.
	Vectors *vectorParams `json:"vectors"`
}

type collectionResponse struct {
	Result        *collectionInfo `json:"result"`
	SchemaVersion string          `json:"schema_version"`
	collectionInfo
}

type collectionsResponse struct {
	Collections []collectionInfo `json:"collections"`
	Result      *struct {
		Collections []collectionInfo `json:"collections"`
	} `json:"result"`
}

type createCollectionRequest struct {
	Name    string       `json:"name"`
	Vectors vectorParams `json:"vectors"`
}

type schemaResponse struct {
	Schema          schema.Schema `json:"schema"`
	EnforcementMode string        `json:"enforcement_mode"`
	ETag            string        `json:"etag"`
}

type putSchemaRequest struct {
	Schema          schema.Schema      `json:"schema"`
	EnforcementMode schema.Enforcement `json:"enforcement_mode"`
}

type putSchemaResponse struct {
	ETag string `json:"etag"`
}

type analyzeRequest struct {
	SampleSize int `json:"sample_size"`
}

type wirePoint struct {
	ID      point.ID       `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload,omitempty"`
}

type upsertRequest struct {
	Points []wirePoint `json:"points"`
}

type deleteRequest struct {
	Points []point.ID     `json:"points,omitempty"`
	Filter map[string]any `json:"filter,omitempty"`
}

type retrieveRequest struct {
	IDs         []point.ID `json:"ids"`
	WithPayload bool       `json:"with_payload"`
	WithVector  bool       `json:"with_vector"`
}

type retrieveResponse struct {
	Result []wirePoint `json:"result"`
}

type searchRequest struct {
	Vector         []float32      `json:"vector"`
	Limit          int            `json:"limit"`
	Offset         int            `json:"offset"`
	WithPayload    bool           `json:"with_payload"`
	WithVector     bool           `json:"with_vector"`
	Filter         map[string]any `json:"filter,omitempty"`
	ScoreThreshold *float64       `json:"score_threshold,omitempty"`
}

type scoredPoint struct {
	ID      point.ID       `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
	Vector  []float32      `json:"vector"`
}

type searchResponse struct {
	Result []scoredPoint `json:"result"`
}

type countRequest struct {
	Exact  bool           `json:"exact"`
	Filter map[string]any `json:"filter,omitempty"`
}

type countResponse struct {
	Count  *int64 `json:"count"`
	Result *struct {
		Count int64 `json:"count"`
	} `json:"result"`
}
