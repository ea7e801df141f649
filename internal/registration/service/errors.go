package service

import (
	"errors"

	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
)

// translate maps store sentinels to domain errors. Errors that already carry
// a code pass through unchanged.
func translate(err error, msg string) error {
	var domainErr *dErrors.Error
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "registration not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "registration was modified concurrently, please retry")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeStorageFailure, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
