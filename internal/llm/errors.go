package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	// RateLimited is a quota or 429 response.
	RateLimited ErrorKind = "rate_limited"
	// ServerError is a 500/503 from the provider.
	ServerError ErrorKind = "server_error"
	// InvalidRequest covers bad requests and auth failures; never retried.
	InvalidRequest ErrorKind = "invalid_request"
	// Unknown is anything else.
	Unknown ErrorKind = "unknown"
)

// APIError is returned by clients for failed generation calls.
type APIError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("llm %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("llm %s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether another attempt may succeed.
func (e *APIError) Retryable() bool {
	return e.Kind != InvalidRequest
}

// classifyError maps a provider error onto an APIError by inspecting its message.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "429") || strings.Contains(lower, "resource exhausted") || strings.Contains(lower, "resourceexhausted"):
		return &APIError{Kind: RateLimited, Message: "rate limit exceeded", Cause: err}
	case strings.Contains(msg, "500") || strings.Contains(msg, "503"):
		return &APIError{Kind: ServerError, Message: "server error", Cause: err}
	case strings.Contains(msg, "400") || strings.Contains(msg, "401") || strings.Contains(msg, "403"):
		return &APIError{Kind: InvalidRequest, Message: "request rejected", Cause: err}
	default:
		return &APIError{Kind: Unknown, Message: "generation failed", Cause: err}
	}
}
