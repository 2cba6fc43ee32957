package domain

import (
	"errors" // Error handling
	"fmt"    // Error wrapping
)

// ErrorKind classifies a failure for the caller
type ErrorKind string

const (
	KindValidation ErrorKind = "validation" // Malformed or missing input
	KindConflict   ErrorKind = "conflict"   // State or uniqueness violation
	KindAuth       ErrorKind = "auth"       // Missing, invalid or expired credentials
	KindForbidden  ErrorKind = "forbidden"  // Authenticated but not allowed
	KindNotFound   ErrorKind = "not_found"  // Referenced entity does not exist
	KindPayment    ErrorKind = "payment"    // Payment capture failed
)

// Error is a classified failure returned by services
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error // Underlying cause, never shown to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is checks
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrForbidden  = &Error{Kind: KindForbidden}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrPayment    = &Error{Kind: KindPayment}
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation builds a validation error
func Validation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

// Conflict builds a conflict error
func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

// Unauthenticated builds an auth error
func Unauthenticated(format string, args ...any) *Error {
	return newError(KindAuth, format, args...)
}

// Forbidden builds a forbidden error
func Forbidden(format string, args ...any) *Error {
	return newError(KindForbidden, format, args...)
}

// NotFound builds a not-found error
func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

// PaymentFailed wraps a payment collaborator failure
func PaymentFailed(err error, format string, args ...any) *Error {
	e := newError(KindPayment, format, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of err, or "" if err is not classified
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
