package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/HSousa1987/Lavandaria-sub001/internal/logging"
	"github.com/HSousa1987/Lavandaria-sub001/internal/telemetry"
)

// Retry defaults used when RetryConfig fields are zero.
const (
	DefaultRetryAttempts  = 3
	DefaultRetryBaseDelay = 50 * time.Millisecond
)

// RetryConfig bounds how hard RetryingBackend tries before giving up.
type RetryConfig struct {
	// Attempts is the total number of tries, including the first.
	Attempts  int
	BaseDelay time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts <= 0 {
		c.Attempts = DefaultRetryAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultRetryBaseDelay
	}
	return c
}

// RetryingBackend retries transient failures of the wrapped backend with
// exponential backoff. ErrNotFound is never retried. Once attempts run out
// the error wraps ErrStoreUnavailable.
type RetryingBackend struct {
	next    Backend
	cfg     RetryConfig
	logger  logging.Logger
	metrics *telemetry.GatewayMetrics
}

// NewRetryingBackend decorates next. logger and metrics may be nil.
func NewRetryingBackend(next Backend, cfg RetryConfig, logger logging.Logger, metrics *telemetry.GatewayMetrics) *RetryingBackend {
	if logger == nil {
		logger = logging.Discard()
	}
	return &RetryingBackend{next: next, cfg: cfg.withDefaults(), logger: logger, metrics: metrics}
}

func (b *RetryingBackend) do(ctx context.Context, op string, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(uint64(b.cfg.Attempts-1), retry.NewExponential(b.cfg.BaseDelay))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			b.metrics.RecordSessionRetry(ctx, op)
		}
		err := fn(ctx)
		if err == nil || errors.Is(err, ErrNotFound) {
			return err
		}
		b.logger.Warn(ctx, "session store call failed", "operation", op, "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}

	b.metrics.RecordSessionUnavailable(ctx, op)
	return fmt.Errorf("%w: %s after %d attempts: %v", ErrStoreUnavailable, op, attempt, err)
}

func (b *RetryingBackend) Put(ctx context.Context, rec *Record) error {
	return b.do(ctx, "put", func(ctx context.Context) error {
		return b.next.Put(ctx, rec)
	})
}

func (b *RetryingBackend) Get(ctx context.Context, tokenHash string) (*Record, error) {
	var rec *Record
	err := b.do(ctx, "get", func(ctx context.Context) error {
		var err error
		rec, err = b.next.Get(ctx, tokenHash)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (b *RetryingBackend) Touch(ctx context.Context, tokenHash string, expiresAt time.Time) (bool, error) {
	var ok bool
	err := b.do(ctx, "touch", func(ctx context.Context) error {
		var err error
		ok, err = b.next.Touch(ctx, tokenHash, expiresAt)
		return err
	})
	return ok, err
}

func (b *RetryingBackend) Delete(ctx context.Context, tokenHash string) error {
	return b.do(ctx, "delete", func(ctx context.Context) error {
		return b.next.Delete(ctx, tokenHash)
	})
}

func (b *RetryingBackend) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := b.do(ctx, "delete_expired", func(ctx context.Context) error {
		var err error
		n, err = b.next.DeleteExpired(ctx, now)
		return err
	})
	return n, err
}

// Ping is not retried; readiness should report the first failure.
func (b *RetryingBackend) Ping(ctx context.Context) error {
	return b.next.Ping(ctx)
}
