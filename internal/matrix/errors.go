package matrix

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy for homeserver calls.
type ErrorCategory string

const (
	// ErrorRequest is a transport failure or a non-2xx answer.
	ErrorRequest ErrorCategory = "request"

	// ErrorMalformedResponse means the homeserver answered with content we could not use.
	// A malformed answer to the final POST may still mean the account exists.
	ErrorMalformedResponse ErrorCategory = "malformed_response"

	// ErrorUnsupportedVersion means the advertised client API version is not supported.
	ErrorUnsupportedVersion ErrorCategory = "unsupported_version"

	// ErrorNotConfigured means the shared secret or URL is missing.
	ErrorNotConfigured ErrorCategory = "not_configured"
)

// ProviderError wraps homeserver failures with a category.
type ProviderError struct {
	Category   ErrorCategory
	Message    string
	Underlying error
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("matrix [%s]: %s: %v", e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("matrix [%s]: %s", e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

func newError(category ErrorCategory, message string, underlying error) *ProviderError {
	return &ProviderError{Category: category, Message: message, Underlying: underlying}
}

// CategoryOf extracts the category, or "" for errors not produced by this package.
func CategoryOf(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ""
}
