package project

import "fmt"

// Error is a failure of a brand workspace operation.
type Error struct {
	Brand   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("project %q: %s: %v", e.Brand, e.Message, e.Cause)
	}
	return fmt.Sprintf("project %q: %s", e.Brand, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
