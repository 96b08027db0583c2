package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/schema"
)

// FetchPayloadSchema reads a collection's payload schema. GET schema/{name}.
// Any 404 is reported as domain.ErrSchemaNotFound.
func (c *Client) FetchPayloadSchema(ctx context.Context, name string) (schema.Definition, error) {
	resp, err := c.send(ctx, request{method: http.MethodGet, route: "schema/{name}", params: []string{name}})
	if err != nil {
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			apiErr.Kind = domain.ErrSchemaNotFound
		}
		return schema.Definition{}, fmt.Errorf("get schema %q: %w", name, err)
	}

	var body schemaResponse
	if err := decode(resp, "schema/{name}", &body); err != nil {
		return schema.Definition{}, err
	}

	enforcement, err := schema.ParseEnforcement(body.EnforcementMode)
	if err != nil {
		return schema.Definition{}, fmt.Errorf("get schema %q: %w", name, err)
	}
	etag := body.ETag
	if etag == "" {
		etag = unquoteETag(resp.header.Get("ETag"))
	}
	return schema.Definition{Schema: body.Schema, ETag: etag, Enforcement: enforcement}, nil
}

// PutPayloadSchema creates or replaces a payload schema and returns its new ETag.
// PUT schema/{name}.
func (c *Client) PutPayloadSchema(
	ctx context.Context, name string, s schema.Schema, enforcement schema.Enforcement,
) (string, error) {
	body := putSchemaRequest{Schema: s, EnforcementMode: enforcement}
	resp, err := c.send(ctx, request{method: http.MethodPut, route: "schema/{name}", params: []string{name}, body: body})
	if err != nil {
		return "", fmt.Errorf("set schema %q: %w", name, err)
	}

	var out putSchemaResponse
	if err := decode(resp, "schema/{name}", &out); err != nil {
		return "", err
	}
	if out.ETag == "" {
		out.ETag = unquoteETag(resp.header.Get("ETag"))
	}
	return out.ETag, nil
}

// DeletePayloadSchema removes a payload schema. DELETE schema/{name}.
func (c *Client) DeletePayloadSchema(ctx context.Context, name string) error {
	_, err := c.send(ctx, request{method: http.MethodDelete, route: "schema/{name}", params: []string{name}})
	if err != nil {
		return fmt.Errorf("delete schema %q: %w", name, err)
	}
	return nil
}

// AnalyzeSchema samples existing payloads and suggests a schema.
// POST schema/{name}/analyze.
func (c *Client) AnalyzeSchema(ctx context.Context, name string, sampleSize int) (schema.AnalysisResult, error) {
	resp, err := c.send(ctx, request{
		method: http.MethodPost,
		route:  "schema/{name}/analyze",
		params: []string{name},
		body:   analyzeRequest{SampleSize: sampleSize},
	})
	if err != nil {
		return schema.AnalysisResult{}, fmt.Errorf("analyze schema %q: %w", name, err)
	}

	var out schema.AnalysisResult
	if err := decode(resp, "schema/{name}/analyze", &out); err != nil {
		return schema.AnalysisResult{}, err
	}
	return out, nil
}

// unquoteETag strips the weak prefix and quotes of an ETag header.
func unquoteETag(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "W/")
	return strings.Trim(v, `"`)
}
