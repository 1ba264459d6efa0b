package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/kbukum/apifire/errors"
	"github.com/kbukum/apifire/session"
)

// PreflightFunc runs before a call is dispatched. A non-nil error aborts
// the call without touching the network.
type PreflightFunc func(ctx context.Context) error

// Authorizer adds credentials to an outgoing request.
type Authorizer interface {
	Authorize(req *session.Request) error
}

// Endpoint describes a single remote endpoint.
type Endpoint struct {
	// URL is the absolute URL that will be requested.
	URL string `validate:"required,http_url"`
	// Method is the HTTP method. Defaults to GET.
	Method string `validate:"omitempty,oneof=GET HEAD POST PUT PATCH DELETE OPTIONS TRACE CONNECT"`
	// Parameters are encoded into the request. Nil values are dropped.
	Parameters map[string]any
	// Headers are added to the request.
	Headers map[string]string
	// Timeout bounds the whole call. Zero uses the pool's default timeout.
	Timeout time.Duration `validate:"gte=0"`
	// Encoding writes Parameters into the request. Defaults to
	// DefaultQueryEncoding for GET and JSONEncoding otherwise.
	Encoding Encoding
	// Preflight is checked before the call is dispatched.
	Preflight PreflightFunc
	// Hooks observe the call in addition to the dispatcher's hooks.
	Hooks CallHooks
	// Executor runs callbacks. Defaults to the dispatcher's executor.
	Executor Executor
	// Auth adds credentials to the request.
	Auth Authorizer
}

func (e *Endpoint) method() string {
	if e.Method == "" {
		return http.MethodGet
	}
	return e.Method
}

func (e *Endpoint) encoding(method string) Encoding {
	if e.Encoding != nil {
		return e.Encoding
	}
	return defaultEncoding(method)
}

// buildRequest assembles the session request for e using method and enc.
func (e *Endpoint) buildRequest(method string, enc Encoding) (*session.Request, error) {
	req := &session.Request{
		Method:   method,
		URL:      e.URL,
		Header:   make(http.Header, len(e.Headers)),
		BodySize: -1,
	}
	for k, v := range e.Headers {
		req.Header.Set(k, v)
	}
	if err := enc.Encode(req, compact(e.Parameters)); err != nil {
		return nil, errors.InvalidEndpoint("unable to encode parameters").WithCause(err)
	}
	if e.Auth != nil {
		if err := e.Auth.Authorize(req); err != nil {
			if errors.IsAppError(err) {
				return nil, err
			}
			return nil, errors.InvalidEndpoint("unable to authorize request").WithCause(err)
		}
	}
	return req, nil
}
