package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
	"github.com/aetherfy/aetherfy-vectors-go/internal/metrics"
)

// DefaultMaxBatchSize is the largest number of texts sent in one provider call.
const DefaultMaxBatchSize = 256

// BudgetChecker enforces a token budget.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// BudgetedEmbedder checks the budget before every provider call and records
// spent tokens after it. Batches are split into chunks of at most maxBatch
// texts and the budget is rechecked between chunks.
type BudgetedEmbedder struct {
	inner    domain.Embedder
	provider string
	budget   BudgetChecker
	metrics  *metrics.EmbeddingSet
	logger   *zap.Logger
	maxBatch int
}

// NewBudgetedEmbedder wraps inner. A nil budget only chunks and logs.
func NewBudgetedEmbedder(
	inner domain.Embedder, provider string, budget BudgetChecker,
	m *metrics.EmbeddingSet, logger *zap.Logger,
) *BudgetedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BudgetedEmbedder{
		inner:    inner,
		provider: provider,
		budget:   budget,
		metrics:  m,
		logger:   logger,
		maxBatch: DefaultMaxBatchSize,
	}
}

// WithMaxBatchSize overrides the chunk size.
func (e *BudgetedEmbedder) WithMaxBatchSize(n int) *BudgetedEmbedder {
	if n > 0 {
		e.maxBatch = n
	}
	return e
}

// Embed vectorizes one text.
func (e *BudgetedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := e.check(ctx); err != nil {
		return domain.EmbeddingResult{}, err
	}

	res, err := e.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	e.record(res.TotalTokens)
	return res, nil
}

// BatchEmbed vectorizes texts in input order.
func (e *BudgetedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}

	for offset := 0; offset < len(texts); offset += e.maxBatch {
		if err := e.check(ctx); err != nil {
			return domain.BatchEmbeddingResult{}, err
		}

		chunk := texts[offset:min(offset+e.maxBatch, len(texts))]
		res, err := domain.EmbedAll(ctx, e.inner, chunk)
		if err != nil {
			e.logger.Warn("batch embedding failed",
				zap.String("provider", e.provider),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}
		e.record(res.TotalTokens)

		out.Embeddings = append(out.Embeddings, res.Embeddings...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}

	e.logger.Debug("batch embedding completed",
		zap.String("provider", e.provider),
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("total_tokens", out.TotalTokens),
	)
	return out, nil
}

func (e *BudgetedEmbedder) check(ctx context.Context) error {
	if e.budget == nil {
		return nil
	}
	if err := e.budget.Check(ctx); err != nil {
		e.logger.Warn("embedding rejected by token budget",
			zap.String("provider", e.provider),
			zap.Error(err),
		)
		return fmt.Errorf("budget check: %w", err)
	}
	return nil
}

func (e *BudgetedEmbedder) record(tokens int) {
	if e.budget == nil || tokens <= 0 {
		return
	}
	e.budget.Record(int64(tokens))
	e.metrics.SetBudgetRemaining(e.provider, e.budget.RemainingDaily(), e.budget.RemainingMonthly())
}
