// Package embedding holds provider-agnostic embedding decorators.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adidev/chatbot/internal/domain"
)

// DefaultMaxRetries is the number of retries after the initial attempt.
const DefaultMaxRetries = 2

// DefaultRetryBackoff is the delay before the first retry; it doubles per attempt.
const DefaultRetryBackoff = 500 * time.Millisecond

// RetryingEmbedder retries transient provider failures with doubling backoff.
// Context cancellation and non-transient errors (auth, malformed input) are
// surfaced immediately.
type RetryingEmbedder struct {
	inner      domain.Embedder
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// NewRetryingEmbedder wraps an embedder with bounded retries.
func NewRetryingEmbedder(inner domain.Embedder, maxRetries int, backoff time.Duration, logger *zap.Logger) *RetryingEmbedder {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	return &RetryingEmbedder{inner: inner, maxRetries: maxRetries, backoff: backoff, logger: logger}
}

// Embed delegates to the inner embedder, retrying transient failures.
func (r *RetryingEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var result domain.EmbeddingResult
	err := r.do(ctx, func() error {
		var innerErr error
		result, innerErr = r.inner.Embed(ctx, text)
		return innerErr
	})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return result, nil
}

// BatchEmbed delegates to the inner embedder, retrying the whole batch on
// transient failures.
func (r *RetryingEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	var result domain.BatchEmbeddingResult
	err := r.do(ctx, func() error {
		var innerErr error
		if be, ok := r.inner.(domain.BatchEmbedder); ok {
			result, innerErr = be.BatchEmbed(ctx, texts)
		} else {
			result, innerErr = domain.BatchFallback(ctx, r.inner, texts)
		}
		return innerErr
	})
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	return result, nil
}

// HealthCheck delegates without retries.
func (r *RetryingEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := r.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (r *RetryingEmbedder) do(ctx context.Context, call func() error) error {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			delay := r.backoff << (attempt - 1)
			r.logger.Warn("Retrying embedding request",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return fmt.Errorf("embed retry: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		lastErr = call()
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("after %d retries: %w", r.maxRetries, lastErr)
}

// IsTransient reports whether a provider error is worth retrying.
// Cancellations are never transient. Typed provider errors carry the HTTP
// status and classify themselves; untyped provider failures count as
// transient network errors.
func IsTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return pe.Transient()
	}
	return errors.Is(err, domain.ErrEmbeddingProvider)
}
