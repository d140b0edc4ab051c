package fetch

import (
	"errors"
	"fmt"
)

// ErrBrowserUnavailable means the headless browser could not be started.
// The fallback chain stops trying the browser tier once it sees this error.
var ErrBrowserUnavailable = errors.New("headless browser unavailable")

// Error represents an error during URL fetching.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
