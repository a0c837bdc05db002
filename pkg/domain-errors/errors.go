// Package domainerrors defines coded errors for the titlechain domain.
//
// Stores return sentinel errors (pkg/platform/sentinel) for infrastructure
// facts; services translate those into domain errors with a stable code that
// transports can map to a status. Validation failures are created here
// directly at the trust boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of domain error. The set is closed; transports
// switch over it exhaustively.
type Code string

const (
	CodeValidation   Code = "validation_error"
	CodeBadRequest   Code = "bad_request"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal_error"
)

// Error is a domain error with a stable machine-readable code and a
// human-readable message. The message is safe to show to API clients except
// for CodeInternal, where transports must suppress it.
type Error struct {
	Code    Code
	Message string
	wrapped error
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(cause error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, wrapped: cause}
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return e.Message + ": " + e.wrapped.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.wrapped
}

// CodeOf extracts the domain error code from err, walking the wrap chain.
// Unrecognized errors report CodeInternal so callers fail closed.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
