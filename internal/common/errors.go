// Package common defines shared constants and sentinel errors used across
// the server and the CLI client. Callers should use errors.Is / errors.As to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorConflict      = errors.New("conflict")
	ErrorValidation    = errors.New("validation error")
	ErrorConfiguration = errors.New("configuration error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)

// ConstraintViolation is returned by repositories when an insert hits a
// uniqueness constraint. Field is the logical column name ("email",
// "username", "token"), Value the offending input.
type ConstraintViolation struct {
	Field string
	Value string
}

func (e *ConstraintViolation) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%v: %s already exists", ErrorConflict, e.Field)
	}
	return fmt.Sprintf("%v: %s %q already exists", ErrorConflict, e.Field, e.Value)
}

func (e *ConstraintViolation) Unwrap() error { return ErrorConflict }

// PublicError pairs a sentinel kind with a message that is safe to show to
// the client. The transport layer only ever exposes Message.
type PublicError struct {
	Kind    error
	Message string
}

func (e *PublicError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *PublicError) Unwrap() error { return e.Kind }

// NewPublicError builds a PublicError of the given kind.
func NewPublicError(kind error, format string, args ...any) *PublicError {
	return &PublicError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// PublicMessage returns the client-safe text for err: the message of a
// PublicError in the chain, or the text of the matching sentinel.
func PublicMessage(err error) string {
	var pe *PublicError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	for _, s := range []error{ErrTokenExpired, ErrInvalidToken, ErrorUnauthorized, ErrorNotFound, ErrorConflict, ErrorValidation} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return ErrorInternal.Error()
}
