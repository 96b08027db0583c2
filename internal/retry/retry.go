// Package retry runs operations with jittered exponential backoff.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
)

// Default policy values.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
	DefaultMaxDelay   = 30 * time.Second
)

// Policy bounds the number of attempts and the backoff delays.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultPolicy returns 3 retries, 1s base delay and a 30s cap.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay, MaxDelay: DefaultMaxDelay}
}

// Backoff returns the un-jittered delay after failed attempt i (0-based):
// min(BaseDelay * 2^i, MaxDelay).
func (p Policy) Backoff(i int) time.Duration {
	d := p.BaseDelay
	for n := 0; n < i; n++ {
		if d >= p.MaxDelay || d > p.MaxDelay/2 {
			return p.MaxDelay
		}
		d *= 2
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Executor retries an operation while its error is retryable.
// Zero delays fall back to the defaults. Nil funcs fall back to
// domain.IsRetryable, a context-aware timer sleep and a uniform jitter in [0.5, 1.0).
type Executor struct {
	Policy    Policy
	Retryable func(error) bool
	Sleep     func(ctx context.Context, d time.Duration) error
	Jitter    func() float64
	// OnRetry is called before each backoff sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// New creates an executor with the given policy and the default predicate.
func New(p Policy) *Executor {
	return &Executor{Policy: p}
}

// Do runs op up to MaxRetries+1 times. The last error is returned as is.
// If ctx is cancelled during a backoff sleep, the last error is joined with ctx.Err().
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	retryable := e.Retryable
	if retryable == nil {
		retryable = domain.IsRetryable
	}
	maxRetries := e.Policy.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries || !retryable(err) {
			return err
		}

		delay := e.Delay(attempt)
		if e.OnRetry != nil {
			e.OnRetry(attempt, err, delay)
		}
		if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
			return errors.Join(err, sleepErr)
		}
	}
}

// Run is Do for operations returning a value.
func Run[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := e.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// Delay returns the jittered delay after failed attempt i.
func (e *Executor) Delay(i int) time.Duration {
	p := e.Policy
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	j := 0.5 + rand.Float64()/2
	if e.Jitter != nil {
		j = e.Jitter()
	}
	return time.Duration(float64(p.Backoff(i)) * j)
}

func (e *Executor) sleep(ctx context.Context, d time.Duration) error {
	if e.Sleep != nil {
		return e.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
