package endpoint

import (
	"context"
	"net/http"

	"github.com/kbukum/apifire/session"
)

// Data is an endpoint whose response body decodes into a T.
type Data[T any] struct {
	Endpoint

	// Decoder decodes the response body. Defaults to JSONDecoder.
	Decoder Decoder[T]
	// TransformResponse replaces Classify for this endpoint. value is nil
	// when the body could not be decoded.
	TransformResponse func(resp *session.Response, value *T) Result[T]
	// TransformError turns the error of every failed call, including
	// preflight failures, into the result callbacks see. It may recover
	// the call with a Success.
	TransformError func(error) Result[T]
	// Listeners are invoked on every call ahead of the call's own callbacks.
	Listeners []Callback[T]
}

// Call dispatches the endpoint. Every callback receives the same result
// exactly once. The returned channel is closed after they have all run.
func (e *Data[T]) Call(ctx context.Context, d *Dispatcher, callbacks ...Callback[T]) <-chan struct{} {
	method := e.method()
	c := &call[T]{
		kind:           KindData,
		endpoint:       &e.Endpoint,
		method:         method,
		encoding:       e.encoding(method),
		finish:         e.finish,
		transformError: e.TransformError,
		coordinator:    NewCoordinator(append(append([]Callback[T](nil), e.Listeners...), callbacks...)...),
	}
	return dispatch(ctx, d, c)
}

// Do calls the endpoint and waits for its result. It must not be called
// from a callback running on the same serial executor.
func (e *Data[T]) Do(ctx context.Context, d *Dispatcher) Result[T] {
	var out Result[T]
	<-e.Call(ctx, d, func(r Result[T]) { out = r })
	return out
}

func (e *Data[T]) finish(resp *session.Response) Result[T] {
	value, decodeErr := e.decode(resp)

	var r Result[T]
	if e.TransformResponse != nil {
		r = e.TransformResponse(resp, value)
	} else {
		r = classifyResponse(resp, value, decodeErr)
	}
	if r.err != nil {
		return recoverError(e.TransformError, r.err)
	}
	return r
}

// decode decodes the body of a received response. Non-200 bodies are
// decoded opportunistically and their decode errors dropped.
func (e *Data[T]) decode(resp *session.Response) (*T, error) {
	if resp.Err != nil || !resp.HasStatus() {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK && len(resp.Body) == 0 {
		return nil, nil
	}
	decoder := e.Decoder
	if decoder == nil {
		decoder = JSONDecoder[T]()
	}
	value, err := decoder(resp.Body)
	if err != nil {
		if resp.StatusCode == http.StatusOK {
			return nil, err
		}
		return nil, nil
	}
	return value, nil
}
