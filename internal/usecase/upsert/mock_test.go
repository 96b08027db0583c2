package upsert

import (
	"context"
	"sync"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/collection"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/point"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/schema"
)

type submission struct {
	points []point.Point
	etag   string
}

type mockTransport struct {
	mu sync.Mutex

	metadataFn func(name string) (collection.Metadata, error)
	schemaFn   func(name string) (schema.Definition, error)
	// submitErrs are returned by successive SubmitUpsert calls; nil once exhausted.
	submitErrs []error

	// metadataGate, when set, holds FetchCollectionMetadata until it is
	// closed or the request context ends; metadataStarted is signalled on entry.
	metadataGate    chan struct{}
	metadataStarted chan struct{}

	metadataCalls int
	schemaCalls   int
	submissions   []submission
}

func (m *mockTransport) FetchCollectionMetadata(ctx context.Context, name string) (collection.Metadata, error) {
	m.mu.Lock()
	m.metadataCalls++
	m.mu.Unlock()
	if m.metadataGate != nil {
		if m.metadataStarted != nil {
			select {
			case m.metadataStarted <- struct{}{}:
			default:
			}
		}
		select {
		case <-m.metadataGate:
		case <-ctx.Done():
			return collection.Metadata{}, ctx.Err()
		}
	}
	return m.metadataFn(name)
}

func (m *mockTransport) FetchPayloadSchema(_ context.Context, name string) (schema.Definition, error) {
	m.mu.Lock()
	m.schemaCalls++
	m.mu.Unlock()
	return m.schemaFn(name)
}

func (m *mockTransport) SubmitUpsert(_ context.Context, _ string, points []point.Point, etag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions = append(m.submissions, submission{points: points, etag: etag})
	if len(m.submitErrs) == 0 {
		return nil
	}
	err := m.submitErrs[0]
	m.submitErrs = m.submitErrs[1:]
	return err
}

func metadata(size int, etag string) func(string) (collection.Metadata, error) {
	return func(name string) (collection.Metadata, error) {
		return collection.Metadata{
			Name:    name,
			Vectors: collection.ReconstructVectorConfig(size, collection.Cosine),
			ETag:    etag,
		}, nil
	}
}

func definition(s schema.Schema, enforcement schema.Enforcement, etag string) func(string) (schema.Definition, error) {
	return func(string) (schema.Definition, error) {
		return schema.Definition{Schema: s, ETag: etag, Enforcement: enforcement}, nil
	}
}

func failing[T any](err error) func(string) (T, error) {
	return func(string) (T, error) {
		var zero T
		return zero, err
	}
}
