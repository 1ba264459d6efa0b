package endpoint

import "github.com/kbukum/apifire/errors"

// Result is the outcome of an endpoint call. It holds a value, an error,
// or both when a non-200 response still carried a decodable body.
// The zero Result holds neither and reports errors.ErrCodeInvalidInternalState.
type Result[T any] struct {
	value *T
	err   error
}

// Success returns a Result holding v.
func Success[T any](v T) Result[T] {
	return Result[T]{value: &v}
}

// Failure returns a Result holding err.
func Failure[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// SuccessWithError returns a Result holding both a partial value and the
// error that makes the call a failure.
func SuccessWithError[T any](v T, err error) Result[T] {
	return Result[T]{value: &v, err: err}
}

// FromResponse derives a Result from the value/error pair of a raw
// transport response. Either may be nil.
func FromResponse[T any](value *T, err error) Result[T] {
	return Result[T]{value: value, err: err}
}

// Unwrap collapses the Result into a plain success or failure. It succeeds
// only when there is a value and no error.
func (r Result[T]) Unwrap() (T, error) {
	var zero T
	switch {
	case r.err != nil:
		return zero, r.err
	case r.value == nil:
		return zero, errors.InvalidInternalState()
	default:
		return *r.value, nil
	}
}

// Value returns the value, including the partial value of a failed call.
func (r Result[T]) Value() (T, bool) {
	if r.value == nil {
		var zero T
		return zero, false
	}
	return *r.value, true
}

// Err returns the error Unwrap would return, or nil on success.
func (r Result[T]) Err() error {
	_, err := r.Unwrap()
	return err
}

// IsSuccess reports whether Unwrap would succeed.
func (r Result[T]) IsSuccess() bool {
	return r.err == nil && r.value != nil
}

// IsFailure reports whether Unwrap would fail.
func (r Result[T]) IsFailure() bool {
	return !r.IsSuccess()
}
