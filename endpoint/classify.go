package endpoint

import (
	"net/http"

	"github.com/kbukum/apifire/errors"
	"github.com/kbukum/apifire/session"
)

// Classify maps a status code and an optionally decoded body to a Result.
// The rules apply in order:
//
//  1. 200 with a value succeeds.
//  2. 200 without a value is errors.ErrCodeMalformedBody.
//  3. session.StatusTimeout is errors.ErrCodeTimeout.
//  4. Anything else, including 0 for no status, is
//     errors.ErrCodeNotOkResponse, keeping the value when there is one.
func Classify[T any](statusCode int, value *T) Result[T] {
	switch {
	case statusCode == http.StatusOK && value != nil:
		return Success(*value)
	case statusCode == http.StatusOK:
		return Failure[T](errors.MalformedBody(nil))
	case statusCode == session.StatusTimeout:
		return Failure[T](errors.Timeout())
	case value != nil:
		return SuccessWithError(*value, errors.NotOkResponse(statusCode))
	default:
		return Failure[T](errors.NotOkResponse(statusCode))
	}
}

// ResponseError is the error of a classified failure. It keeps the raw
// response and any decoded value alongside the AppError it wraps.
type ResponseError[T any] struct {
	Err      *errors.AppError
	Response *session.Response
	Value    *T
}

func (e *ResponseError[T]) Error() string { return e.Err.Error() }

func (e *ResponseError[T]) Unwrap() error { return e.Err }

// ServerResponse extracts the ResponseError behind a failed Data call.
func ServerResponse[T any](err error) (*ResponseError[T], bool) {
	var re *ResponseError[T]
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// classifyResponse runs Classify on resp and attaches resp to the failure.
func classifyResponse[T any](resp *session.Response, value *T, decodeErr error) Result[T] {
	r := Classify(resp.StatusCode, value)
	if r.err == nil {
		return r
	}

	appErr, _ := errors.AsAppError(r.err)
	switch {
	case decodeErr != nil && appErr.Code == errors.ErrCodeMalformedBody:
		appErr.WithCause(decodeErr)
	case resp.Err != nil:
		appErr.WithCause(resp.Err)
	}
	r.err = &ResponseError[T]{Err: appErr, Response: resp, Value: value}
	return r
}
