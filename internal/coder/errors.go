package coder

import "fmt"

// Error is a failure to transform article HTML.
type Error struct {
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("coder %s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("coder %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
