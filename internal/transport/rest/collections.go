package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/collection"
)

// FetchCollectionMetadata reads a collection's vector config and schema version.
// GET collections/{name}. Never retried.
func (c *Client) FetchCollectionMetadata(ctx context.Context, name string) (collection.Metadata, error) {
	resp, err := c.send(ctx, request{method: http.MethodGet, route: "collections/{name}", params: []string{name}})
	if err != nil {
		return collection.Metadata{}, fmt.Errorf("get collection %q: %w", name, err)
	}

	var body collectionResponse
	if err := decode(resp, "collections/{name}", &body); err != nil {
		return collection.Metadata{}, err
	}

	info := body.collectionInfo
	if body.Result != nil {
		info = *body.Result
	}
	md := toMetadata(info)
	if md.Name == "" {
		md.Name = name
	}
	md.ETag = body.SchemaVersion
	return md, nil
}

// ListCollections returns every collection. GET collections.
func (c *Client) ListCollections(ctx context.Context) ([]collection.Metadata, error) {
	resp, err := c.send(ctx, request{method: http.MethodGet, route: "collections"})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	var body collectionsResponse
	if err := decode(resp, "collections", &body); err != nil {
		return nil, err
	}
	infos := body.Collections
	if len(infos) == 0 && body.Result != nil {
		infos = body.Result.Collections
	}

	out := make([]collection.Metadata, 0, len(infos))
	for _, info := range infos {
		out = append(out, toMetadata(info))
	}
	return out, nil
}

// CreateCollection creates a collection. POST collections.
func (c *Client) CreateCollection(ctx context.Context, name string, cfg collection.VectorConfig) error {
	body := createCollectionRequest{
		Name:    name,
		Vectors: vectorParams{Size: cfg.Size(), Distance: string(cfg.Distance())},
	}
	if _, err := c.send(ctx, request{method: http.MethodPost, route: "collections", body: body}); err != nil {
		return fmt.Errorf("create collection %q: %w", name, err)
	}
	return nil
}

// DeleteCollection deletes a collection. DELETE collections/{name}.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	_, err := c.send(ctx, request{method: http.MethodDelete, route: "collections/{name}", params: []string{name}})
	if err != nil {
		return fmt.Errorf("delete collection %q: %w", name, err)
	}
	return nil
}

func toMetadata(info collectionInfo) collection.Metadata {
	vp := info.Config.Params.Vectors
	if vp.Size == 0 && info.Vectors != nil {
		vp = *info.Vectors
	}
	dist, err := collection.ParseDistance(vp.Distance)
	if err != nil {
		// Unknown metrics are kept verbatim; the size still gates writes.
		dist = collection.Distance(vp.Distance)
	}
	count, _ := info.PointsCount.Int64()
	return collection.Metadata{
		Name:        info.Name,
		Vectors:     collection.ReconstructVectorConfig(vp.Size, dist),
		PointsCount: count,
		Status:      info.Status,
	}
}
