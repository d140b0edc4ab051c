package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonathan/seo-content-machine/internal/logging"
	"github.com/jonathan/seo-content-machine/internal/metrics"
)

// RetryPolicy controls how failed generation calls are retried. The wait
// before retry n (from 1) is Base * 2^(n-1), clamped to [MinWait, MaxWait].
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	MinWait     time.Duration
	MaxWait     time.Duration
}

// DefaultRetryPolicy is three attempts; both retries wait 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Base:        time.Second,
		MinWait:     4 * time.Second,
		MaxWait:     10 * time.Second,
	}
}

// Wait returns the pause before retry n, counting from 1.
func (p RetryPolicy) Wait(n int) time.Duration {
	wait := p.Base
	for i := 1; i < n && wait < p.MaxWait; i++ {
		wait *= 2
	}
	if p.MaxWait > 0 {
		wait = min(wait, p.MaxWait)
	}
	return max(wait, p.MinWait)
}

// clampedBackOff feeds RetryPolicy.Wait to backoff.RetryNotify.
type clampedBackOff struct {
	policy RetryPolicy
	retry  int
}

func (b *clampedBackOff) NextBackOff() time.Duration {
	b.retry++
	return b.policy.Wait(b.retry)
}

func (b *clampedBackOff) Reset() { b.retry = 0 }

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(&clampedBackOff{policy: p}, uint64(attempts-1)), ctx)
}

// RetryingClient wraps a Client and retries failed calls with clamped
// exponential backoff.
// Invalid requests and context cancellation are returned immediately.
type RetryingClient struct {
	inner  Client
	policy RetryPolicy
}

// NewRetryingClient wraps inner with the given policy.
func NewRetryingClient(inner Client, policy RetryPolicy) *RetryingClient {
	return &RetryingClient{inner: inner, policy: policy}
}

// GenerateContent calls the wrapped client with retries.
func (c *RetryingClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.do(ctx, tier, func() (string, error) {
		return c.inner.GenerateContent(ctx, prompt, tier)
	})
}

// GenerateJSON calls the wrapped client with retries.
func (c *RetryingClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.do(ctx, tier, func() (string, error) {
		return c.inner.GenerateJSON(ctx, prompt, tier)
	})
}

// GetModel delegates to the wrapped client.
func (c *RetryingClient) GetModel(tier ModelTier) string {
	return c.inner.GetModel(tier)
}

// Close delegates to the wrapped client.
func (c *RetryingClient) Close() error {
	return c.inner.Close()
}

func (c *RetryingClient) do(ctx context.Context, tier ModelTier, call func() (string, error)) (string, error) {
	logger := logging.Component("llm")
	var result string
	attempt := 0

	op := func() error {
		attempt++
		text, err := call()
		if err == nil {
			result = text
			return nil
		}
		err = classifyError(err)
		if !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		metrics.LLMRetries.Inc()
		logger.Warn().Err(err).
			Str("tier", string(tier)).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("LLM call failed, retrying")
	}

	if err := backoff.RetryNotify(op, c.policy.backOff(ctx), notify); err != nil {
		metrics.LLMRequests.WithLabelValues(string(tier), metrics.OutcomeFailure).Inc()
		return "", err
	}
	metrics.LLMRequests.WithLabelValues(string(tier), metrics.OutcomeSuccess).Inc()
	return result, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}
