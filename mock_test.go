package aetherfy

import (
	"context"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/analytics"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/collection"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/filter"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/point"
	domschema "github.com/aetherfy/aetherfy-vectors-go/internal/domain/schema"
	"github.com/aetherfy/aetherfy-vectors-go/internal/domain/search"
	healthuc "github.com/aetherfy/aetherfy-vectors-go/internal/usecase/health"
)

// --- collectionAPI mock ---

type mockCollections struct {
	fetchFn  func(ctx context.Context, name string) (collection.Metadata, error)
	listFn   func(ctx context.Context) ([]collection.Metadata, error)
	createFn func(ctx context.Context, name string, cfg collection.VectorConfig) error
	deleteFn func(ctx context.Context, name string) error
}

func (m *mockCollections) FetchCollectionMetadata(ctx context.Context, name string) (collection.Metadata, error) {
	return m.fetchFn(ctx, name)
}

func (m *mockCollections) ListCollections(ctx context.Context) ([]collection.Metadata, error) {
	return m.listFn(ctx)
}

func (m *mockCollections) CreateCollection(ctx context.Context, name string, cfg collection.VectorConfig) error {
	return m.createFn(ctx, name, cfg)
}

func (m *mockCollections) DeleteCollection(ctx context.Context, name string) error {
	return m.deleteFn(ctx, name)
}

// --- pointAPI mock ---

type mockPoints struct {
	deleteFn         func(ctx context.Context, name string, ids []point.ID) error
	deleteByFilterFn func(ctx context.Context, name string, expr filter.Expression) error
	retrieveFn       func(ctx context.Context, name string, ids []point.ID, withPayload, withVector bool) ([]point.Record, error)
	searchFn         func(ctx context.Context, name string, req search.Request) ([]search.Hit, error)
	countFn          func(ctx context.Context, name string, expr filter.Expression, exact bool) (int64, error)
}

func (m *mockPoints) DeletePoints(ctx context.Context, name string, ids []point.ID) error {
	return m.deleteFn(ctx, name, ids)
}

func (m *mockPoints) DeletePointsByFilter(ctx context.Context, name string, expr filter.Expression) error {
	return m.deleteByFilterFn(ctx, name, expr)
}

func (m *mockPoints) RetrievePoints(
	ctx context.Context, name string, ids []point.ID, withPayload, withVector bool,
) ([]point.Record, error) {
	return m.retrieveFn(ctx, name, ids, withPayload, withVector)
}

func (m *mockPoints) Search(ctx context.Context, name string, req search.Request) ([]search.Hit, error) {
	return m.searchFn(ctx, name, req)
}

func (m *mockPoints) Count(ctx context.Context, name string, expr filter.Expression, exact bool) (int64, error) {
	return m.countFn(ctx, name, expr, exact)
}

// --- analyticsAPI mock ---

type mockAnalytics struct {
	performanceFn func(ctx context.Context, tr analytics.TimeRange, region string) (analytics.Performance, error)
	regionsFn     func(ctx context.Context, tr analytics.TimeRange) (analytics.RegionPerformance, error)
	cacheFn       func(ctx context.Context, tr analytics.TimeRange) (analytics.Cache, error)
	collectionFn  func(ctx context.Context, name string, tr analytics.TimeRange) (analytics.Collection, error)
	usageFn       func(ctx context.Context) (analytics.Usage, error)
	topFn         func(
		ctx context.Context, metric analytics.TopMetric, tr analytics.TimeRange, limit int,
	) ([]analytics.Collection, error)
}

func (m *mockAnalytics) Performance(
	ctx context.Context, tr analytics.TimeRange, region string,
) (analytics.Performance, error) {
	return m.performanceFn(ctx, tr, region)
}

func (m *mockAnalytics) RegionPerformance(
	ctx context.Context, tr analytics.TimeRange,
) (analytics.RegionPerformance, error) {
	return m.regionsFn(ctx, tr)
}

func (m *mockAnalytics) CacheAnalytics(ctx context.Context, tr analytics.TimeRange) (analytics.Cache, error) {
	return m.cacheFn(ctx, tr)
}

func (m *mockAnalytics) CollectionAnalytics(
	ctx context.Context, name string, tr analytics.TimeRange,
) (analytics.Collection, error) {
	return m.collectionFn(ctx, name, tr)
}

func (m *mockAnalytics) Usage(ctx context.Context) (analytics.Usage, error) {
	return m.usageFn(ctx)
}

func (m *mockAnalytics) TopCollections(
	ctx context.Context, metric analytics.TopMetric, tr analytics.TimeRange, limit int,
) ([]analytics.Collection, error) {
	return m.topFn(ctx, metric, tr, limit)
}

// --- upsertUseCase mock ---

type mockUpsert struct {
	upsertFn func(ctx context.Context, name string, points []point.Point) error
}

func (m *mockUpsert) Upsert(ctx context.Context, name string, points []point.Point) error {
	return m.upsertFn(ctx, name, points)
}

// --- schemaUseCase mock ---

type mockSchemas struct {
	getFn     func(ctx context.Context, name string) (*domschema.Definition, error)
	setFn     func(ctx context.Context, name string, s domschema.Schema, e domschema.Enforcement) (string, error)
	deleteFn  func(ctx context.Context, name string) error
	refreshFn func(ctx context.Context, name string) (*domschema.Definition, error)
	analyzeFn func(ctx context.Context, name string, sampleSize int) (domschema.AnalysisResult, error)
}

func (m *mockSchemas) Get(ctx context.Context, name string) (*domschema.Definition, error) {
	return m.getFn(ctx, name)
}

func (m *mockSchemas) Set(
	ctx context.Context, name string, s domschema.Schema, e domschema.Enforcement,
) (string, error) {
	return m.setFn(ctx, name, s, e)
}

func (m *mockSchemas) Delete(ctx context.Context, name string) error {
	return m.deleteFn(ctx, name)
}

func (m *mockSchemas) Refresh(ctx context.Context, name string) (*domschema.Definition, error) {
	return m.refreshFn(ctx, name)
}

func (m *mockSchemas) Analyze(ctx context.Context, name string, sampleSize int) (domschema.AnalysisResult, error) {
	return m.analyzeFn(ctx, name, sampleSize)
}

// --- schemaCache mock ---

type mockCache struct {
	cleared    []string
	clearedAll int
}

func (m *mockCache) Clear(name string) { m.cleared = append(m.cleared, name) }

func (m *mockCache) ClearAll() { m.clearedAll++ }

// --- domain.Embedder mock ---

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return m.embedFn(ctx, text)
}

// newTestClient builds a Client around mocks. Nil fields stay nil.
func newTestClient(c *Client) *Client {
	if c.obs == nil {
		c.obs = newObserver(nil, nil, nil)
	}
	return c
}

func nopUpsert(context.Context, string, []point.Point) error { return nil }

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }
