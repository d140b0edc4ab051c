package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Base: time.Millisecond, MaxWait: 2 * time.Millisecond}
}

func TestRetryingClient_SucceedsAfterRateLimit(t *testing.T) {
	calls := 0
	mock := &MockClient{GenerateContentFunc: func(context.Context, string, ModelTier) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("googleapi: Error 429: Resource exhausted")
		}
		return "article", nil
	}}

	client := NewRetryingClient(mock, fastPolicy())
	text, err := client.GenerateContent(context.Background(), "write", TierAdvanced)

	require.NoError(t, err)
	assert.Equal(t, "article", text)
	assert.Equal(t, 3, calls)
}

func TestRetryingClient_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	mock := &MockClient{GenerateJSONFunc: func(context.Context, string, ModelTier) (string, error) {
		calls++
		return "", errors.New("googleapi: Error 503: unavailable")
	}}

	client := NewRetryingClient(mock, fastPolicy())
	_, err := client.GenerateJSON(context.Background(), "outline", TierStandard)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, ServerError, apiErr.Kind)
}

func TestRetryingClient_RetriesUnknownErrors(t *testing.T) {
	calls := 0
	mock := &MockClient{GenerateContentFunc: func(context.Context, string, ModelTier) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("connection reset by peer")
		}
		return "ok", nil
	}}

	text, err := NewRetryingClient(mock, fastPolicy()).GenerateContent(context.Background(), "p", TierLite)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 2, calls)
}

func TestRetryingClient_InvalidRequestIsPermanent(t *testing.T) {
	calls := 0
	mock := &MockClient{GenerateContentFunc: func(context.Context, string, ModelTier) (string, error) {
		calls++
		return "", errors.New("googleapi: Error 403: API key not valid")
	}}

	_, err := NewRetryingClient(mock, fastPolicy()).GenerateContent(context.Background(), "p", TierLite)
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, InvalidRequest, apiErr.Kind)
}

func TestRetryingClient_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	mock := &MockClient{GenerateContentFunc: func(context.Context, string, ModelTier) (string, error) {
		calls++
		cancel()
		return "", context.Canceled
	}}

	_, err := NewRetryingClient(mock, fastPolicy()).GenerateContent(ctx, "p", TierLite)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 4*time.Second, p.Wait(1))
	assert.Equal(t, 4*time.Second, p.Wait(2), "2s is raised to the 4s floor")
	assert.Equal(t, 4*time.Second, p.Wait(3))
	assert.Equal(t, 8*time.Second, p.Wait(4))
	assert.Equal(t, 10*time.Second, p.Wait(5))
	assert.Equal(t, 10*time.Second, p.Wait(30))
}

func TestRetryPolicy_BackOffSchedule(t *testing.T) {
	b := DefaultRetryPolicy().backOff(context.Background())

	assert.Equal(t, 4*time.Second, b.NextBackOff())
	assert.Equal(t, 4*time.Second, b.NextBackOff())
	assert.Equal(t, backoff.Stop, b.NextBackOff(), "three attempts allow two retries")

	b.Reset()
	assert.Equal(t, 4*time.Second, b.NextBackOff())
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		msg  string
		kind ErrorKind
	}{
		{"Error 429: quota", RateLimited},
		{"rpc error: Resource exhausted", RateLimited},
		{"Error 500: internal", ServerError},
		{"Error 400: bad request", InvalidRequest},
		{"something odd", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			var apiErr *APIError
			require.True(t, errors.As(classifyError(errors.New(tt.msg)), &apiErr))
			assert.Equal(t, tt.kind, apiErr.Kind)
		})
	}
	assert.Nil(t, classifyError(nil))
}
