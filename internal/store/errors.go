package store

import (
	"errors"
	"fmt"
)

// Error is a persistence failure the service layer knows how to translate.
// Anything else a store returns is an infrastructure error.
type Error struct {
	kind    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels survive WithMessage.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.kind == t.kind
	}
	return false
}

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{kind: e.kind, Message: msg, Err: e.Err}
}

// WithMessagef returns a new error with a formatted message.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{kind: e.kind, Message: e.Message, Err: err}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		kind:    "not_found",
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		kind:    "already_exists",
		Message: "resource already exists",
	}

	ErrInvalidInput = &Error{
		kind:    "invalid_input",
		Message: "invalid input",
	}
)
