package aetherfy

import (
	"context"
	"fmt"

	healthuc "github.com/aetherfy/aetherfy-vectors-go/internal/usecase/health"
)

// Health status values.
const (
	HealthOK       = string(healthuc.Healthy)
	HealthDegraded = string(healthuc.Degraded)
	HealthError    = string(healthuc.Unhealthy)
)

// HealthStatus is the result of a health check.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component name to "ok" or "error"
}

// Healthy reports whether every component passed.
func (h HealthStatus) Healthy() bool { return h.Status == HealthOK }

// Health checks the vectors service and, when configured, the embedding
// provider. A failing provider degrades the status; a failing service
// makes it "error".
func (c *Client) Health(ctx context.Context) HealthStatus {
	ctx, done := c.obs.start(ctx, "health", "")
	r := c.healthSvc.Check(ctx)

	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	var err error
	if r.Status == healthuc.Unhealthy {
		err = fmt.Errorf("health: %w", ErrServiceUnavailable)
	}
	done(&err)
	return HealthStatus{Status: string(r.Status), Checks: checks}
}
