package aetherfy

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	configFile string

	apiKey     string
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	userAgent  string

	retryPolicy *RetryPolicy
	retryable   func(error) bool

	rateLimit float64
	burst     int

	embedder Embedder
	openAI   *OpenAIConfig
	budget   *EmbeddingBudget

	logger         *zap.Logger
	metricsReg     prometheus.Registerer
	tracerProvider trace.TracerProvider
}

// RetryPolicy controls backoff for write requests.
// Delay before retry i is min(BaseDelay*2^i, MaxDelay) scaled by a random
// factor in [0.5, 1.0). MaxRetries 0 disables retries.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// BudgetAction is what happens once the embedding token budget is spent.
type BudgetAction string

// Budget actions.
const (
	BudgetWarn   BudgetAction = "warn"
	BudgetReject BudgetAction = "reject"
)

// EmbeddingBudget caps embedding tokens per UTC day and month.
// Zero limits are unlimited; an empty action rejects.
type EmbeddingBudget struct {
	DailyTokens   int64
	MonthlyTokens int64
	Action        BudgetAction
}

// WithConfigFile loads settings from a YAML file. Other options override it.
func WithConfigFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.configFile = path
	})
}

// WithAPIKey sets the API key. Without it the key is read from
// AETHERFY_API_KEY, then AETHERFY_VECTORS_API_KEY.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = key
	})
}

// WithEndpoint sets the service base URL.
// Default: https://vectors.aetherfy.com.
func WithEndpoint(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.endpoint = url
	})
}

// WithTimeout sets the per-request timeout. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithHTTPClient sets the HTTP client used for API calls.
// Its transport is wrapped for metrics; the client itself is not modified.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return optionFunc(func(c *clientConfig) {
		c.userAgent = ua
	})
}

// WithRetryPolicy sets the backoff for write requests.
// Default: 3 retries, 1s base delay, 30s cap.
func WithRetryPolicy(p RetryPolicy) Option {
	return optionFunc(func(c *clientConfig) {
		c.retryPolicy = &p
	})
}

// WithRetryable overrides which errors are retried.
// Default: service unavailable, timeouts, network errors, and rate limits
// carrying a retry-after hint.
func WithRetryable(fn func(error) bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.retryable = fn
	})
}

// WithRateLimit throttles requests on the client side.
// rps <= 0 disables throttling (default). A burst below 1 is raised to 1.
func WithRateLimit(rps float64, burst int) Option {
	return optionFunc(func(c *clientConfig) {
		c.rateLimit = rps
		c.burst = burst
	})
}

// WithEmbedder sets the text embedding provider used by UpsertTexts and SearchText.
// It takes precedence over an embedding section in the config file.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithEmbeddingBudget caps tokens spent on embeddings by this client.
func WithEmbeddingBudget(b EmbeddingBudget) Option {
	return optionFunc(func(c *clientConfig) {
		c.budget = &b
	})
}

// WithLogger enables structured logging for SDK operations.
// Default: the logging section of the config file, else no logging.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operations, HTTP requests, schema
// cache, retries, embeddings) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// WithTracerProvider sets the OpenTelemetry provider for operation spans.
// Default: the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return optionFunc(func(c *clientConfig) {
		c.tracerProvider = tp
	})
}
