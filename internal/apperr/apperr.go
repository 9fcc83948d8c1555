// Package apperr defines the error taxonomy the core returns to its
// callers. Every rejection is recoverable by the caller; only
// unexpected store failures surface as Internal.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	Unauthenticated
	Forbidden
	NotFound
	InvariantViolation
	Validation
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case InvariantViolation:
		return http.StatusConflict
	case Validation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Unauthed(msg string) *Error  { return New(Unauthenticated, msg) }
func Forbid(msg string) *Error    { return New(Forbidden, msg) }
func NotFoundf(msg string) *Error { return New(NotFound, msg) }
func Invariant(msg string) *Error { return New(InvariantViolation, msg) }
func Invalid(msg string) *Error   { return New(Validation, msg) }

// Wrap marks an unexpected store failure as Internal, preserving the
// cause for logs.
func Wrap(err error, msg string) *Error {
	return &Error{Kind: Internal, Message: msg, Err: err}
}

// Status maps any error to an HTTP status code; non-taxonomy errors
// surface as 500.
func Status(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status()
	}
	return http.StatusInternalServerError
}

// KindOf extracts the kind of err; non-taxonomy errors are Internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
