package endpoint

import (
	"context"

	"github.com/kbukum/apifire/errors"
	"github.com/kbukum/apifire/validation"
)

// Preflight checks that e may be dispatched. The descriptor is validated
// first, then e.Preflight runs if set. Errors that are not already an
// *errors.AppError are wrapped with errors.ErrCodePreflightFailed.
func Preflight(ctx context.Context, e *Endpoint) error {
	if err := validation.Validate(e); err != nil {
		return err
	}
	if e.Preflight == nil {
		return nil
	}
	if err := e.Preflight(ctx); err != nil {
		if errors.IsAppError(err) {
			return err
		}
		return errors.PreflightFailed(err)
	}
	return nil
}

// recoverError hands err to fn, which may turn it into any result,
// including a success. Without fn the result is a plain failure.
func recoverError[T any](fn func(error) Result[T], err error) Result[T] {
	if fn == nil {
		return Failure[T](err)
	}
	return fn(err)
}
