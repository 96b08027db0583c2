package upsert

import (
	"context"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/collection"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/point"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/schema"
	"github.com/aetherfy/aetherfy-vectors-go/internal/schemacache"
)

// Transport is the remote side of an upsert. SubmitUpsert is expected to
// retry transient failures itself; the two fetches are never retried.
type Transport interface {
	FetchCollectionMetadata(ctx context.Context, name string) (collection.Metadata, error)
	FetchPayloadSchema(ctx context.Context, name string) (schema.Definition, error)
	SubmitUpsert(ctx context.Context, name string, points []point.Point, etag string) error
}

// VectorCache caches collection vector schemas.
type VectorCache interface {
	Get(name string) (schemacache.VectorEntry, bool)
	Put(name string, e schemacache.VectorEntry)
	Clear(name string)
}

// PayloadCache caches payload schemas and confirmed absence.
type PayloadCache interface {
	Lookup(name string) schemacache.Lookup
	Put(name string, e schemacache.PayloadEntry)
	MarkAbsent(name string)
	Clear(name string)
}
