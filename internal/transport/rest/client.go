// Package rest is the HTTP transport to the aetherfy vectors service.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/aetherfy/aetherfy-vectors-go/internal/auth"
	"github.com/aetherfy/aetherfy-vectors-go/internal/metrics"
	"github.com/aetherfy/aetherfy-vectors-go/internal/retry"
	"github.com/aetherfy/aetherfy-vectors-go/internal/version"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 1 << 20

// Config holds the transport settings.
// Timeout applies per attempt. A nil Limiter disables client-side throttling.
// Retry wraps POST, PUT and DELETE requests; nil disables retries.
type Config struct {
	Endpoint   string
	Key        auth.Key
	Timeout    time.Duration
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Retry      *retry.Executor
	Metrics    *metrics.Set
	Logger     *zap.Logger
	UserAgent  string
}

// Client sends requests to the service. Safe for concurrent use.
type Client struct {
	base      *url.URL
	key       auth.Key
	timeout   time.Duration
	http      *http.Client
	limiter   *rate.Limiter
	retry     *retry.Executor
	metrics   *metrics.Set
	logger    *zap.Logger
	userAgent string
}

// New creates a transport client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", cfg.Endpoint, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q must use http or https", cfg.Endpoint)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	// Instrument a copy so the caller's client is left untouched.
	instrumented := *hc
	instrumented.Transport = metrics.RoundTripper(hc.Transport, cfg.Metrics)

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}

	return &Client{
		base:      base,
		key:       cfg.Key,
		timeout:   cfg.Timeout,
		http:      &instrumented,
		limiter:   cfg.Limiter,
		retry:     cfg.Retry,
		metrics:   cfg.Metrics,
		logger:    logger,
		userAgent: ua,
	}, nil
}

// request describes one API call.
type request struct {
	method string
	route  string   // template, e.g. "collections/{name}/points"
	params []string // path parameters in template order
	query  url.Values
	body   any
	header http.Header
}

// response is a successful reply.
type response struct {
	status int
	header http.Header
	body   []byte
}

// send executes req, retrying write verbs through the executor.
func (c *Client) send(ctx context.Context, req request) (response, error) {
	path, err := buildPath(req.route, req.params...)
	if err != nil {
		return response{}, err
	}

	var payload []byte
	if req.body != nil {
		payload, err = json.Marshal(req.body)
		if err != nil {
			return response{}, fmt.Errorf("encode %s request: %w", req.route, err)
		}
	}

	ctx = metrics.WithRoute(ctx, req.route)
	attempt := func(ctx context.Context) (response, error) {
		return c.once(ctx, req, path, payload)
	}

	if c.retry == nil || !isWrite(req.method) {
		return attempt(ctx)
	}

	ex := *c.retry
	ex.OnRetry = func(n int, err error, delay time.Duration) {
		c.metrics.IncRetry(req.method, req.route)
		c.logger.Warn("retrying request",
			zap.String("method", req.method),
			zap.String("route", req.route),
			zap.Int("attempt", n+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		if c.retry.OnRetry != nil {
			c.retry.OnRetry(n, err, delay)
		}
	}
	return retry.Run(ctx, &ex, attempt)
}

func (c *Client) once(ctx context.Context, req request, path string, payload []byte) (response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return response{}, fmt.Errorf("rate limiter: %w", err)
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ref, err := url.Parse(path)
	if err != nil {
		return response{}, fmt.Errorf("build %s url: %w", req.route, err)
	}
	u := c.base.ResolveReference(ref)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return response{}, fmt.Errorf("build %s request: %w", req.route, err)
	}

	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	c.key.Apply(httpReq.Header)
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return response{}, classifyTransport(ctx, req.route, c.timeout, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return response{}, classifyTransport(ctx, req.route, c.timeout, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return response{}, classifyStatus(resp.StatusCode, resp.Header, data)
	}
	return response{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

// decode unmarshals a response body; an empty body leaves out untouched.
func decode(resp response, route string, out any) error {
	if len(bytes.TrimSpace(resp.body)) == 0 || out == nil {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(resp.body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", route, err)
	}
	return nil
}

func isWrite(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodDelete
}

// buildPath substitutes {placeholders} in order, escaping each value as a
// simple-style path parameter.
func buildPath(route string, params ...string) (string, error) {
	var b strings.Builder
	rest := route
	for _, p := range params {
		open := strings.IndexByte(rest, '{')
		end := strings.IndexByte(rest, '}')
		if open < 0 || end < open {
			return "", fmt.Errorf("route %q has fewer placeholders than parameters", route)
		}
		name := rest[open+1 : end]
		styled, err := runtime.StyleParamWithLocation("simple", false, name, runtime.ParamLocationPath, p)
		if err != nil {
			return "", fmt.Errorf("path parameter %s: %w", name, err)
		}
		b.WriteString(rest[:open])
		b.WriteString(styled)
		rest = rest[end+1:]
	}
	if strings.IndexByte(rest, '{') >= 0 {
		return "", fmt.Errorf("route %q has unfilled placeholders", route)
	}
	b.WriteString(rest)
	return b.String(), nil
}
