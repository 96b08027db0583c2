package schema

import (
	"context"

	domschema "github.com/aetherfy/aetherfy-vectors-go/internal/domain/schema"
	"github.com/aetherfy/aetherfy-vectors-go/internal/schemacache"
)

// Repository is the remote schema API.
type Repository interface {
	FetchPayloadSchema(ctx context.Context, name string) (domschema.Definition, error)
	PutPayloadSchema(ctx context.Context, name string, s domschema.Schema, enforcement domschema.Enforcement) (string, error)
	DeletePayloadSchema(ctx context.Context, name string) error
	AnalyzeSchema(ctx context.Context, name string, sampleSize int) (domschema.AnalysisResult, error)
}

// PayloadCache is the payload schema cache shared with the upsert path.
type PayloadCache interface {
	Lookup(name string) schemacache.Lookup
	Put(name string, e schemacache.PayloadEntry)
	MarkAbsent(name string)
	Clear(name string)
}

// VectorCache is the vector schema cache shared with the upsert path.
type VectorCache interface {
	Clear(name string)
}
