package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

type routeKey struct{}

// WithRoute tags a request context with its route template
// (e.g. "collections/{name}/points") to keep label cardinality bounded.
func WithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

// RouteFromContext returns the route template, or "unknown".
func RouteFromContext(ctx context.Context) string {
	if r, ok := ctx.Value(routeKey{}).(string); ok && r != "" {
		return r
	}
	return "unknown"
}

// RoundTripper records request duration and count for every request sent through next.
// Transport failures are counted with status "error".
func RoundTripper(next http.RoundTripper, s *Set) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if s == nil {
		return next
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(req)

		route := RouteFromContext(req.Context())
		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		s.HTTPLatency.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
		s.HTTPRequests.WithLabelValues(req.Method, route, status).Inc()
		return resp, err //nolint:wrapcheck // delegating to underlying RoundTripper
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
