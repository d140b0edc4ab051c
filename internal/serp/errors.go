package serp

import "fmt"

// Error is a failure of one search tier.
type Error struct {
	Tier    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("search error (%s): %s: %v", e.Tier, e.Message, e.Cause)
	}
	return fmt.Sprintf("search error (%s): %s", e.Tier, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
