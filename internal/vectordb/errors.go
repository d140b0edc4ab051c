package vectordb

import "fmt"

// Error is a failure of the page index.
type Error struct {
	Collection string
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vectordb error (%s): %s: %v", e.Collection, e.Message, e.Cause)
	}
	return fmt.Sprintf("vectordb error (%s): %s", e.Collection, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
