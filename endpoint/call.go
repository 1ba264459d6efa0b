package endpoint

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/apifire/errors"
	"github.com/kbukum/apifire/logger"
	"github.com/kbukum/apifire/session"
)

// call is the kind-independent part of a dispatch.
type call[T any] struct {
	kind     Kind
	endpoint *Endpoint
	method   string
	encoding Encoding

	// prepare adjusts the built request. The returned cleanup, if any, runs
	// after the request has been executed.
	prepare func(req *session.Request) (cleanup func(), err error)
	// finish turns the raw response into the call's result.
	finish func(resp *session.Response) Result[T]
	// transformError turns a preflight failure into the call's result.
	transformError func(error) Result[T]
	// completed runs on the executor before the callbacks, if a request was sent.
	completed func(resp *session.Response)

	coordinator *Coordinator[T]
}

// dispatch runs c in the background and returns a channel closed once
// every callback has run.
func dispatch[T any](ctx context.Context, d *Dispatcher, c *call[T]) <-chan struct{} {
	done := make(chan struct{})
	exec := d.executorFor(c.endpoint)

	if !d.admit() {
		d.log.Warn("Call rejected", logger.Fields(
			logger.FieldKind, string(c.kind),
			logger.FieldURL, c.endpoint.URL,
			"reason", "dispatcher stopped",
		))
		exec.Submit(func() {
			defer close(done)
			c.coordinator.Complete(Failure[T](errors.DispatcherStopped()))
		})
		return done
	}
	go func() {
		defer d.inflight.Done()
		result, resp := c.run(ctx, d)
		exec.Submit(func() {
			defer close(done)
			if resp != nil && c.completed != nil {
				c.completed(resp)
			}
			c.coordinator.Complete(result)
		})
	}()
	return done
}

// run executes the call and returns its result along with the raw
// response, which is nil when preflight failed.
func (c *call[T]) run(ctx context.Context, d *Dispatcher) (Result[T], *session.Response) {
	info := CallInfo{
		ID:     uuid.NewString(),
		Kind:   c.kind,
		Method: c.method,
		URL:    c.endpoint.URL,
	}
	log := d.log.WithFields(logger.Fields(
		logger.FieldCallID, info.ID,
		logger.FieldKind, string(c.kind),
		logger.FieldURL, c.endpoint.URL,
	))

	if err := Preflight(ctx, c.endpoint); err != nil {
		log.Warn("Preflight failed", logger.MergeWithError(nil, err))
		return recoverError(c.transformError, err), nil
	}

	sess := d.pool.Get(c.endpoint.Timeout)
	info.Timeout = sess.Timeout()
	info.Started = time.Now()
	log.Info("Starting call", logger.Fields(
		logger.FieldMethod, c.method,
		logger.FieldTimeout, info.Timeout.String(),
	))

	hooks := d.hooksFor(c.endpoint)
	ctx = hooks.CallStarted(ctx, info)
	resp := c.execute(ctx, d, sess)
	hooks.CallEnded(ctx, info, resp)

	fields := logger.MergeWithDuration(logger.Fields(logger.FieldStatus, resp.StatusCode), resp.Duration)
	log.Debug("Call finished", logger.MergeWithError(fields, resp.Err))

	return c.finish(resp), resp
}

// execute builds and sends the request. Build failures are reported as a
// response carrying only an error.
func (c *call[T]) execute(ctx context.Context, d *Dispatcher, sess session.Session) *session.Response {
	start := time.Now()
	req, err := c.endpoint.buildRequest(c.method, c.encoding)
	if err != nil {
		return &session.Response{Err: err, Duration: time.Since(start)}
	}
	req.TempDir = d.tempDir

	if c.prepare != nil {
		cleanup, err := c.prepare(req)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			return &session.Response{Err: err, Duration: time.Since(start)}
		}
	}
	return sess.Execute(ctx, req)
}
