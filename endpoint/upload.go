package endpoint

import (
	"bytes"
	"context"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kbukum/apifire/errors"
	"github.com/kbukum/apifire/session"
)

// UploadResponse is the raw response to an upload. It is not classified:
// any received status is a successful call.
type UploadResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// Upload is an endpoint that sends a payload with POST. Parameters always
// go into the query string with bracketed arrays and numeric bools.
// Exactly one of Body, File or Form must be set.
type Upload struct {
	Endpoint

	// Body is sent as-is.
	Body []byte
	// File is the path of a file sent as the body.
	File string
	// ContentType of Body or File. Defaults to the file extension's type or
	// application/octet-stream.
	ContentType string
	// Form builds a multipart/form-data body.
	Form func(*FormData)

	// UploadProgress and DownloadProgress run on the executor as bytes move.
	UploadProgress   func(session.Progress)
	DownloadProgress func(session.Progress)
	// Completed runs on the executor once the response arrives, before
	// any callback.
	Completed func(*session.Response)
	// TransformError turns a preflight failure into the call's result.
	TransformError func(error) Result[UploadResponse]
	// Listeners are invoked on every call ahead of the call's own callbacks.
	Listeners []Callback[UploadResponse]
}

// Call dispatches the upload. It panics if the payload is not exactly one
// of Body, File or Form.
func (e *Upload) Call(ctx context.Context, d *Dispatcher, callbacks ...Callback[UploadResponse]) <-chan struct{} {
	e.checkPayload()

	exec := d.executorFor(&e.Endpoint)
	c := &call[UploadResponse]{
		kind:     KindUpload,
		endpoint: &e.Endpoint,
		method:   http.MethodPost,
		encoding: QueryEncoding{},
		prepare: func(req *session.Request) (func(), error) {
			req.UploadProgress = onExecutor(exec, e.UploadProgress)
			req.DownloadProgress = onExecutor(exec, e.DownloadProgress)
			return e.attachPayload(req)
		},
		finish:         e.finish,
		transformError: e.TransformError,
		completed:      e.Completed,
		coordinator:    NewCoordinator(append(append([]Callback[UploadResponse](nil), e.Listeners...), callbacks...)...),
	}
	return dispatch(ctx, d, c)
}

// Do calls the endpoint and waits for its result.
func (e *Upload) Do(ctx context.Context, d *Dispatcher) Result[UploadResponse] {
	var out Result[UploadResponse]
	<-e.Call(ctx, d, func(r Result[UploadResponse]) { out = r })
	return out
}

func (e *Upload) checkPayload() {
	n := 0
	if e.Body != nil {
		n++
	}
	if e.File != "" {
		n++
	}
	if e.Form != nil {
		n++
	}
	if n != 1 {
		panic("endpoint: upload requires exactly one of Body, File or Form")
	}
}

func (e *Upload) attachPayload(req *session.Request) (func(), error) {
	switch {
	case e.Form != nil:
		var form FormData
		e.Form(&form)
		buf, contentType, err := form.encode()
		if err != nil {
			return nil, errors.InvalidEndpoint("unable to encode multipart form").WithCause(err)
		}
		req.Header.Set("Content-Type", contentType)
		req.BodySize = int64(buf.Len())
		req.Body = buf
		return nil, nil

	case e.File != "":
		f, err := os.Open(e.File)
		if err != nil {
			return nil, errors.InvalidEndpoint("unable to open upload file").WithCause(err)
		}
		cleanup := func() { _ = f.Close() }
		info, err := f.Stat()
		if err != nil {
			return cleanup, errors.InvalidEndpoint("unable to stat upload file").WithCause(err)
		}
		req.Header.Set("Content-Type", e.contentType(mime.TypeByExtension(filepath.Ext(e.File))))
		req.BodySize = info.Size()
		req.Body = f
		return cleanup, nil

	default:
		req.Header.Set("Content-Type", e.contentType(""))
		req.BodySize = int64(len(e.Body))
		req.Body = bytes.NewReader(e.Body)
		return nil, nil
	}
}

func (e *Upload) contentType(guess string) string {
	switch {
	case e.ContentType != "":
		return e.ContentType
	case guess != "":
		return guess
	default:
		return "application/octet-stream"
	}
}

func (e *Upload) finish(resp *session.Response) Result[UploadResponse] {
	if resp.Err != nil {
		return Failure[UploadResponse](resp.Err)
	}
	return FromResponse(&UploadResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
		Duration:   resp.Duration,
	}, nil)
}

// onExecutor returns a progress func that runs fn on exec, or nil.
func onExecutor(exec Executor, fn func(session.Progress)) func(session.Progress) {
	if fn == nil {
		return nil
	}
	return func(p session.Progress) {
		exec.Submit(func() { fn(p) })
	}
}
