// Package apperror defines the error kinds shared by the repositories,
// services and HTTP handlers. Handlers translate a Kind into a status code;
// everything without a Kind is treated as an unhandled failure.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindInsufficientStock
	KindInvalidState
	KindAuth
	KindConflict
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindInvalidState:
		return "invalid_state"
	case KindAuth:
		return "auth"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is an application error carrying a Kind and a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newf(KindForbidden, format, args...)
}

func InsufficientStock(format string, args ...interface{}) *Error {
	return newf(KindInsufficientStock, format, args...)
}

func InvalidState(format string, args ...interface{}) *Error {
	return newf(KindInvalidState, format, args...)
}

func Auth(format string, args ...interface{}) *Error {
	return newf(KindAuth, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newf(KindConflict, format, args...)
}

// Unavailable marks a dependency that is not configured or not reachable.
func Unavailable(err error, format string, args ...interface{}) *Error {
	e := newf(KindUnavailable, format, args...)
	e.Err = err
	return e
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
