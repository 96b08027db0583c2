package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/filter"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/point"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/search"
)

// SubmitUpsert writes points. PUT collections/{name}/points.
// A non-empty etag is sent as If-Match.
func (c *Client) SubmitUpsert(ctx context.Context, name string, points []point.Point, etag string) error {
	body := upsertRequest{Points: make([]wirePoint, len(points))}
	for i := range points {
		body.Points[i] = wirePoint{ID: points[i].ID(), Vector: points[i].Vector(), Payload: points[i].Payload()}
	}

	var header http.Header
	if etag != "" {
		header = http.Header{"If-Match": []string{etag}}
	}
	_, err := c.send(ctx, request{
		method: http.MethodPut,
		route:  "collections/{name}/points",
		params: []string{name},
		body:   body,
		header: header,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points into %q: %w", len(points), name, err)
	}
	return nil
}

// DeletePoints removes points by ID. POST collections/{name}/points/delete.
func (c *Client) DeletePoints(ctx context.Context, name string, ids []point.ID) error {
	return c.deletePoints(ctx, name, deleteRequest{Points: ids})
}

// DeletePointsByFilter removes every point matching expr.
func (c *Client) DeletePointsByFilter(ctx context.Context, name string, expr filter.Expression) error {
	return c.deletePoints(ctx, name, deleteRequest{Filter: expr.Wire()})
}

func (c *Client) deletePoints(ctx context.Context, name string, body deleteRequest) error {
	_, err := c.send(ctx, request{
		method: http.MethodPost,
		route:  "collections/{name}/points/delete",
		params: []string{name},
		body:   body,
	})
	if err != nil {
		return fmt.Errorf("delete points from %q: %w", name, err)
	}
	return nil
}

// RetrievePoints fetches points by ID. POST collections/{name}/points.
func (c *Client) RetrievePoints(
	ctx context.Context, name string, ids []point.ID, withPayload, withVector bool,
) ([]point.Record, error) {
	resp, err := c.send(ctx, request{
		method: http.MethodPost,
		route:  "collections/{name}/points",
		params: []string{name},
		body:   retrieveRequest{IDs: ids, WithPayload: withPayload, WithVector: withVector},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve points from %q: %w", name, err)
	}

	var out retrieveResponse
	if err := decode(resp, "collections/{name}/points", &out); err != nil {
		return nil, err
	}
	records := make([]point.Record, len(out.Result))
	for i, p := range out.Result {
		records[i] = point.Record{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}
	return records, nil
}

// Search runs a similarity search. POST collections/{name}/points/search.
func (c *Client) Search(ctx context.Context, name string, req search.Request) ([]search.Hit, error) {
	body := searchRequest{
		Vector:         req.Vector(),
		Limit:          req.Limit(),
		Offset:         req.Offset(),
		WithPayload:    req.WithPayload(),
		WithVector:     req.WithVector(),
		Filter:         req.Filter().Wire(),
		ScoreThreshold: req.ScoreThreshold(),
	}
	resp, err := c.send(ctx, request{
		method: http.MethodPost,
		route:  "collections/{name}/points/search",
		params: []string{name},
		body:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", name, err)
	}

	var out searchResponse
	if err := decode(resp, "collections/{name}/points/search", &out); err != nil {
		return nil, err
	}
	hits := make([]search.Hit, len(out.Result))
	for i, p := range out.Result {
		hits[i] = search.Hit{ID: p.ID, Score: p.Score, Payload: p.Payload, Vector: p.Vector}
	}
	return hits, nil
}

// Count returns the number of points matching expr (all points when empty).
// POST collections/{name}/points/count.
func (c *Client) Count(ctx context.Context, name string, expr filter.Expression, exact bool) (int64, error) {
	resp, err := c.send(ctx, request{
		method: http.MethodPost,
		route:  "collections/{name}/points/count",
		params: []string{name},
		body:   countRequest{Exact: exact, Filter: expr.Wire()},
	})
	if err != nil {
		return 0, fmt.Errorf("count points in %q: %w", name, err)
	}

	var out countResponse
	if err := decode(resp, "collections/{name}/points/count", &out); err != nil {
		return 0, err
	}
	switch {
	case out.Count != nil:
		return *out.Count, nil
	case out.Result != nil:
		return out.Result.Count, nil
	default:
		return 0, nil
	}
}
