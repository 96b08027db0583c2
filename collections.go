package aetherfy

import (
	"context"
	"errors"
	"fmt"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/collection"
)

// CollectionService manages collections.
type CollectionService struct {
	client *Client
}

// Create creates a collection. The distance name is case-insensitive.
// Cached schemas of a previous collection with the same name are dropped.
func (s *CollectionService) Create(ctx context.Context, name string, vectors VectorConfig) (err error) {
	ctx, done := s.client.obs.start(ctx, "collection.create", name)
	defer done(&err)

	if err = collection.ValidateName(name); err != nil {
		return fmt.Errorf("create collection: %w: %w", domain.ErrValidation, err)
	}
	distance, err := collection.ParseDistance(string(vectors.Distance))
	if err != nil {
		return fmt.Errorf("create collection: %w: %w", domain.ErrValidation, err)
	}
	cfg, err := collection.NewVectorConfig(vectors.Size, distance)
	if err != nil {
		return fmt.Errorf("create collection: %w: %w", domain.ErrValidation, err)
	}

	err = s.client.collections.CreateCollection(ctx, name, cfg)
	s.client.ClearSchemaCache(name)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Get retrieves collection metadata by name.
func (s *CollectionService) Get(ctx context.Context, name string) (_ CollectionInfo, err error) {
	ctx, done := s.client.obs.start(ctx, "collection.get", name)
	defer done(&err)

	if err = collection.ValidateName(name); err != nil {
		return CollectionInfo{}, fmt.Errorf("get collection: %w: %w", domain.ErrValidation, err)
	}
	meta, err := s.client.collections.FetchCollectionMetadata(ctx, name)
	if err != nil {
		return CollectionInfo{}, fmt.Errorf("get collection: %w", err)
	}
	return fromMetadata(meta), nil
}

// List returns all collections.
func (s *CollectionService) List(ctx context.Context) (_ []CollectionInfo, err error) {
	ctx, done := s.client.obs.start(ctx, "collection.list", "")
	defer done(&err)

	metas, err := s.client.collections.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	out := make([]CollectionInfo, len(metas))
	for i, m := range metas {
		out[i] = fromMetadata(m)
	}
	return out, nil
}

// Exists reports whether the collection exists.
func (s *CollectionService) Exists(ctx context.Context, name string) (_ bool, err error) {
	ctx, done := s.client.obs.start(ctx, "collection.exists", name)
	defer done(&err)

	if err = collection.ValidateName(name); err != nil {
		return false, fmt.Errorf("collection exists: %w: %w", domain.ErrValidation, err)
	}
	_, err = s.client.collections.FetchCollectionMetadata(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("collection exists: %w", err)
	}
	return true, nil
}

// Delete removes a collection and its cached schemas.
func (s *CollectionService) Delete(ctx context.Context, name string) (err error) {
	ctx, done := s.client.obs.start(ctx, "collection.delete", name)
	defer done(&err)

	if err = collection.ValidateName(name); err != nil {
		return fmt.Errorf("delete collection: %w: %w", domain.ErrValidation, err)
	}
	err = s.client.collections.DeleteCollection(ctx, name)
	s.client.ClearSchemaCache(name)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}
