package aetherfy

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/aetherfy/aetherfy-vectors-go/internal/auth"
	"github.com/aetherfy/aetherfy-vectors-go/internal/config"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/analytics"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/collection"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/filter"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/point"
	domschema "github.com/aetherfy/aetherfy-vectors-go/internal/domain/schema"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/search"
	"github.com/aetherfy/aetherfy-vectors-go/internal/logger"
	"github.com/aetherfy/aetherfy-vectors-go/internal/metrics"
	"github.com/aetherfy/aetherfy-vectors-go/internal/retry"
	"github.com/aetherfy/aetherfy-vectors-go/internal/schemacache"
	"github.com/aetherfy/aetherfy-vectors-go/internal/transport/openai"
	"github.com/aetherfy/aetherfy-vectors-go/internal/transport/rest"
	embeddinguc "github.com/aetherfy/aetherfy-vectors-go/internal/usecase/embedding"
	healthuc "github.com/aetherfy/aetherfy-vectors-go/internal/usecase/health"
	schemauc "github.com/aetherfy/aetherfy-vectors-go/internal/usecase/schema"
	upsertuc "github.com/aetherfy/aetherfy-vectors-go/internal/usecase/upsert"
)

// Internal interfaces for substitution in tests.
type collectionAPI interface {
	FetchCollectionMetadata(ctx context.Context, name string) (collection.Metadata, error)
	ListCollections(ctx context.Context) ([]collection.Metadata, error)
	CreateCollection(ctx context.Context, name string, cfg collection.VectorConfig) error
	DeleteCollection(ctx context.Context, name string) error
}

type pointAPI interface {
	DeletePoints(ctx context.Context, name string, ids []point.ID) error
	DeletePointsByFilter(ctx context.Context, name string, expr filter.Expression) error
	RetrievePoints(ctx context.Context, name string, ids []point.ID, withPayload, withVector bool) ([]point.Record, error)
	Search(ctx context.Context, name string, req search.Request) ([]search.Hit, error)
	Count(ctx context.Context, name string, expr filter.Expression, exact bool) (int64, error)
}

type analyticsAPI interface {
	Performance(ctx context.Context, tr analytics.TimeRange, region string) (analytics.Performance, error)
	RegionPerformance(ctx context.Context, tr analytics.TimeRange) (analytics.RegionPerformance, error)
	CacheAnalytics(ctx context.Context, tr analytics.TimeRange) (analytics.Cache, error)
	CollectionAnalytics(ctx context.Context, name string, tr analytics.TimeRange) (analytics.Collection, error)
	Usage(ctx context.Context) (analytics.Usage, error)
	TopCollections(
		ctx context.Context, metric analytics.TopMetric, tr analytics.TimeRange, limit int,
	) ([]analytics.Collection, error)
}

type upsertUseCase interface {
	Upsert(ctx context.Context, name string, points []point.Point) error
}

type schemaUseCase interface {
	Get(ctx context.Context, name string) (*domschema.Definition, error)
	Set(ctx context.Context, name string, s domschema.Schema, enforcement domschema.Enforcement) (string, error)
	Delete(ctx context.Context, name string) error
	Refresh(ctx context.Context, name string) (*domschema.Definition, error)
	Analyze(ctx context.Context, name string, sampleSize int) (domschema.AnalysisResult, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

type schemaCache interface {
	Clear(name string)
	ClearAll()
}

// Client is the aetherfy vectors SDK entry point. Safe for concurrent use.
type Client struct {
	collections collectionAPI
	points      pointAPI
	analytics   analyticsAPI
	upsertSvc   upsertUseCase
	schemaSvc   schemaUseCase
	caches      []schemaCache
	embedder    domain.Embedder
	healthSvc   healthUseCase
	obs         *observer
}

// New creates a Client. No request is sent until the first operation.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	fc, err := loadConfig(cfg.configFile)
	if err != nil {
		return nil, err
	}

	apiKey := cfg.apiKey
	if apiKey == "" {
		apiKey = fc.APIKey
	}
	key, err := auth.Resolve(apiKey)
	if err != nil {
		return nil, fmt.Errorf("aetherfy: %w", err)
	}

	log := cfg.logger
	if log == nil {
		log, err = logger.NewLogger(fc.Logging.Format, fc.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("aetherfy: %w", err)
		}
	}

	var m *metrics.Set
	if cfg.metricsReg != nil {
		m, err = metrics.New(cfg.metricsReg)
		if err != nil {
			return nil, err
		}
	}

	transport, err := rest.New(rest.Config{
		Endpoint:   firstNonEmpty(cfg.endpoint, fc.Endpoint),
		Key:        key,
		Timeout:    timeout(cfg, &fc),
		HTTPClient: cfg.httpClient,
		Limiter:    limiter(cfg, &fc),
		Retry:      executor(cfg, &fc),
		Metrics:    m,
		Logger:     log,
		UserAgent:  cfg.userAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("aetherfy: %w", err)
	}

	vectors := schemacache.NewVectorStore(m.CacheLookupVec())
	payloads := schemacache.NewPayloadStore(m.CacheLookupVec())

	embedder, checker := buildEmbedder(cfg, fc.Embedding, m, log)

	log.Debug("client created",
		zap.String("endpoint", firstNonEmpty(cfg.endpoint, fc.Endpoint)),
		zap.Stringer("api_key", key),
	)

	return &Client{
		collections: transport,
		points:      transport,
		analytics:   transport,
		upsertSvc:   upsertuc.New(transport, vectors, payloads, log).WithMetrics(m),
		schemaSvc:   schemauc.New(transport, payloads, vectors, log),
		caches:      []schemaCache{vectors, payloads},
		embedder:    embedder,
		healthSvc:   healthuc.New(transport, checker, log),
		obs:         newObserver(log, m, cfg.tracerProvider),
	}, nil
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		var fc config.Config
		fc.ApplyDefaults()
		return fc, nil
	}
	fc, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("aetherfy: %w", err)
	}
	return fc, nil
}

func timeout(cfg *clientConfig, fc *config.Config) time.Duration {
	if cfg.timeout > 0 {
		return cfg.timeout
	}
	return fc.Timeout()
}

func limiter(cfg *clientConfig, fc *config.Config) *rate.Limiter {
	rps, burst := fc.RateLimit.RPS, fc.RateLimit.Burst
	if cfg.rateLimit != 0 {
		rps, burst = cfg.rateLimit, cfg.burst
	}
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), max(burst, 1))
}

func executor(cfg *clientConfig, fc *config.Config) *retry.Executor {
	p := retry.Policy{
		MaxRetries: *fc.Retry.MaxRetries,
		BaseDelay:  fc.BaseDelay(),
		MaxDelay:   fc.MaxDelay(),
	}
	if cfg.retryPolicy != nil {
		p = retry.Policy{
			MaxRetries: cfg.retryPolicy.MaxRetries,
			BaseDelay:  cfg.retryPolicy.BaseDelay,
			MaxDelay:   cfg.retryPolicy.MaxDelay,
		}
	}
	ex := retry.New(p)
	ex.Retryable = cfg.retryable
	return ex
}

// buildEmbedder picks WithEmbedder, then WithOpenAIEmbedder, then the config
// file, and wraps the result with the token budget. Nil when none is set.
// The checker is the provider health check, nil when the provider has none.
func buildEmbedder(
	cfg *clientConfig, ec config.EmbeddingConfig, m *metrics.Set, log *zap.Logger,
) (domain.Embedder, healthuc.EmbeddingChecker) {
	if cfg.openAI != nil {
		ec.Provider = "openai"
		ec.APIKey = cfg.openAI.APIKey
		ec.BaseURL = cfg.openAI.BaseURL
		ec.Model = cfg.openAI.Model
		ec.Dimensions = cfg.openAI.Dimensions
		ec.Instruction = cfg.openAI.Instruction
	}

	var inner domain.Embedder
	var checker healthuc.EmbeddingChecker
	provider := ec.Provider
	switch {
	case cfg.embedder != nil:
		inner = adaptEmbedder(cfg.embedder)
		provider = "custom"
		if hc, ok := cfg.embedder.(healthuc.EmbeddingChecker); ok {
			checker = hc
		}
	case ec.Enabled():
		oa := openai.NewEmbedder(&openai.Config{
			APIKey:     firstNonEmpty(ec.APIKey, os.Getenv("OPENAI_API_KEY")),
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Provider:   provider,
			Metrics:    m.EmbeddingMetrics(),
			Logger:     log,
		})
		inner, checker = oa, oa
		if ec.Instruction != "" {
			inner = domain.NewInstructionEmbedder(inner, ec.Instruction)
		}
	default:
		return nil, nil
	}

	budget := embeddinguc.Budget{
		Daily:   ec.Budget.DailyTokens,
		Monthly: ec.Budget.MonthlyTokens,
		Action:  embeddinguc.BudgetAction(ec.Budget.Action),
	}
	if cfg.budget != nil {
		budget = embeddinguc.Budget{
			Daily:   cfg.budget.DailyTokens,
			Monthly: cfg.budget.MonthlyTokens,
			Action:  embeddinguc.BudgetAction(cfg.budget.Action),
		}
	}
	var tracker embeddinguc.BudgetChecker
	if budget.Daily > 0 || budget.Monthly > 0 {
		tracker = embeddinguc.NewBudgetTracker(provider, budget, log)
	}
	return embeddinguc.NewBudgetedEmbedder(inner, provider, tracker, m.EmbeddingMetrics(), log), checker
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Collections returns the collection management service.
func (c *Client) Collections() *CollectionService {
	return &CollectionService{client: c}
}

// Points returns the point service for a given collection.
func (c *Client) Points(collection string) *PointService {
	return &PointService{collection: collection, client: c}
}

// Schemas returns the payload schema service for a given collection.
func (c *Client) Schemas(collection string) *SchemaService {
	return &SchemaService{collection: collection, svc: c.schemaSvc, obs: c.obs}
}

// Analytics returns the analytics service.
func (c *Client) Analytics() *AnalyticsService {
	return &AnalyticsService{api: c.analytics, obs: c.obs}
}

// ClearSchemaCache drops the cached vector and payload schemas of a
// collection, or of every collection when name is empty.
func (c *Client) ClearSchemaCache(name string) {
	for _, cache := range c.caches {
		if name == "" {
			cache.ClearAll()
		} else {
			cache.Clear(name)
		}
	}
}
