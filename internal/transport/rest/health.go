package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
)

// Ping checks that the service answers. GET health.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.send(ctx, request{method: http.MethodGet, route: "health"})
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	var out struct {
		Status string `json:"status"`
	}
	if err := decode(resp, "health", &out); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if out.Status != "" && out.Status != "ok" && out.Status != "healthy" {
		return fmt.Errorf("ping: service reports %q: %w", out.Status, domain.ErrServiceUnavailable)
	}
	return nil
}
