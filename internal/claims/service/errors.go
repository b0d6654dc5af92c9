package service

import (
	"errors"

	dErrors "opdclaims/pkg/domain-errors"
	"opdclaims/pkg/platform/sentinel"
)

// translate maps store sentinels to domain errors. Errors that already carry
// a domain code pass through.
func translate(err error, entity string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, entity+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, entity+" already exists")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, entity+" store unavailable")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeConflict, entity+" is in an invalid state")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+entity)
}
