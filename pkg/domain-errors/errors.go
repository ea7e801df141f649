// Package domainerrors carries the error taxonomy shared by services and the
// HTTP boundary. Stores return sentinel errors; services translate them into
// coded domain errors; transport maps codes to status codes.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeUnauthorized means the presented secret was bad, absent or malformed.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden means the caller authenticated but holds the wrong role or
	// addressed another resource.
	CodeForbidden Code = "forbidden"
	CodeNotFound  Code = "not_found"
	// CodeStateConflict means a transition violates the registration state machine.
	CodeStateConflict Code = "state_conflict"
	// CodeConflict means a write lost an optimistic concurrency race.
	CodeConflict Code = "conflict"
	// CodeStorageFailure means the cache did not confirm a write or delete.
	CodeStorageFailure Code = "storage_failure"
	CodeValidation     Code = "validation_error"
	CodeBadRequest     Code = "bad_request"
	CodeRateLimited    Code = "rate_limited"
	CodeInternal       Code = "internal_error"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
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

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the outermost code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the outermost domain error in err's chain has code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Message returns the client-safe message of the outermost domain error.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}
