// Package embedding guards text embedders with a client-side token budget.
package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
)

// BudgetAction defines behavior when the token budget is exhausted.
type BudgetAction string

const (
	// BudgetWarn logs a warning but lets the request through.
	BudgetWarn BudgetAction = "warn"
	// BudgetReject fails the request with domain.ErrEmbeddingQuotaExceeded.
	BudgetReject BudgetAction = "reject"
)

// Budget caps embedding tokens per UTC day and month. Zero means unlimited.
type Budget struct {
	Daily   int64
	Monthly int64
	Action  BudgetAction
}

// BudgetTracker counts consumed tokens in memory.
// Counters reset when the UTC day or month rolls over.
type BudgetTracker struct {
	mu             sync.Mutex
	dailyUsed      int64
	monthlyUsed    int64
	budget         Budget
	provider       string
	lastDayReset   time.Time
	lastMonthReset time.Time
	now            func() time.Time
	logger         *zap.Logger
}

// NewBudgetTracker creates a tracker. An empty action means reject.
func NewBudgetTracker(provider string, b Budget, logger *zap.Logger) *BudgetTracker {
	if b.Action == "" {
		b.Action = BudgetReject
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &BudgetTracker{budget: b, provider: provider, now: time.Now, logger: logger}
	now := t.now().UTC()
	t.lastDayReset = truncateToDay(now)
	t.lastMonthReset = truncateToMonth(now)
	return t
}

// Check reports whether a new request may spend tokens.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.resetIfNeeded()

	dailyExceeded := b.budget.Daily > 0 && b.dailyUsed >= b.budget.Daily
	monthlyExceeded := b.budget.Monthly > 0 && b.monthlyUsed >= b.budget.Monthly
	if !dailyExceeded && !monthlyExceeded {
		return nil
	}

	if b.budget.Action == BudgetReject {
		return fmt.Errorf("%w: provider %s: used %d/%d today, %d/%d this month",
			domain.ErrEmbeddingQuotaExceeded, b.provider,
			b.dailyUsed, b.budget.Daily, b.monthlyUsed, b.budget.Monthly)
	}

	b.logger.Warn("embedding token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("daily_limit", b.budget.Daily),
		zap.Int64("monthly_used", b.monthlyUsed),
		zap.Int64("monthly_limit", b.budget.Monthly),
	)
	return nil
}

// Record adds consumed tokens.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.resetIfNeeded()
	b.dailyUsed += tokens
	b.monthlyUsed += tokens
}

// RemainingDaily returns tokens left today (-1 if unlimited).
func (b *BudgetTracker) RemainingDaily() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.resetIfNeeded()
	return remaining(b.budget.Daily, b.dailyUsed)
}

// RemainingMonthly returns tokens left this month (-1 if unlimited).
func (b *BudgetTracker) RemainingMonthly() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.resetIfNeeded()
	return remaining(b.budget.Monthly, b.monthlyUsed)
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(limit-used, 0)
}

func (b *BudgetTracker) resetIfNeeded() {
	now := b.now().UTC()
	if today := truncateToDay(now); today.After(b.lastDayReset) {
		b.dailyUsed = 0
		b.lastDayReset = today
	}
	if month := truncateToMonth(now); month.After(b.lastMonthReset) {
		b.monthlyUsed = 0
		b.lastMonthReset = month
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
