package sitemap

import "fmt"

// Error is a failure to read or parse a sitemap.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sitemap error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("sitemap error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
