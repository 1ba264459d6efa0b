package endpoint

import (
	"context"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kbukum/apifire/errors"
	"github.com/kbukum/apifire/session"
)

// DownloadOptions control how a finished download is moved into place.
type DownloadOptions struct {
	// CreateIntermediateDirectories creates missing parent directories.
	CreateIntermediateDirectories bool
	// RemovePreviousFile replaces an existing file at the destination.
	// Without it an existing file fails the download.
	RemovePreviousFile bool
}

// Destination chooses where a downloaded file ends up, given the temporary
// file it was written to and the response headers.
type Destination func(tempPath string, header http.Header) (string, DownloadOptions)

// SuggestedDestination places downloads in dir under the file name from
// the Content-Disposition header, falling back to the temporary file name.
func SuggestedDestination(dir string, opts DownloadOptions) Destination {
	return func(tempPath string, header http.Header) (string, DownloadOptions) {
		name := filepath.Base(tempPath)
		if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
			if fn := filepath.Base(params["filename"]); fn != "." && fn != "/" && fn != "" {
				name = fn
			}
		}
		return filepath.Join(dir, name), opts
	}
}

// DownloadResponse describes a completed download.
type DownloadResponse struct {
	StatusCode int
	Header     http.Header
	// Path is where the body was written.
	Path     string
	Duration time.Duration
}

// Download is an endpoint whose response body is streamed to a file.
// The status code is reported but not classified.
type Download struct {
	Endpoint

	// Destination picks the final path. Nil leaves the file where it was
	// downloaded, in the dispatcher's temporary directory.
	Destination Destination
	// TransformError turns a preflight failure into the call's result.
	TransformError func(error) Result[DownloadResponse]
	// Listeners are invoked on every call ahead of the call's own callbacks.
	Listeners []Callback[DownloadResponse]
}

// Call dispatches the download.
func (e *Download) Call(ctx context.Context, d *Dispatcher, callbacks ...Callback[DownloadResponse]) <-chan struct{} {
	method := e.method()
	c := &call[DownloadResponse]{
		kind:     KindDownload,
		endpoint: &e.Endpoint,
		method:   method,
		encoding: e.encoding(method),
		prepare: func(req *session.Request) (func(), error) {
			req.Download = true
			return nil, nil
		},
		finish:         e.finish,
		transformError: e.TransformError,
		coordinator:    NewCoordinator(append(append([]Callback[DownloadResponse](nil), e.Listeners...), callbacks...)...),
	}
	return dispatch(ctx, d, c)
}

// Do calls the endpoint and waits for its result.
func (e *Download) Do(ctx context.Context, d *Dispatcher) Result[DownloadResponse] {
	var out Result[DownloadResponse]
	<-e.Call(ctx, d, func(r Result[DownloadResponse]) { out = r })
	return out
}

func (e *Download) finish(resp *session.Response) Result[DownloadResponse] {
	if resp.FilePath == "" {
		return FromResponse[DownloadResponse](nil, resp.Err)
	}

	path := resp.FilePath
	if e.Destination != nil {
		target, opts := e.Destination(path, resp.Header)
		if target != "" && target != path {
			if err := moveFile(path, target, opts); err != nil {
				_ = os.Remove(path)
				return Failure[DownloadResponse](err)
			}
			path = target
		}
	}

	return FromResponse(&DownloadResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Path:       path,
		Duration:   resp.Duration,
	}, resp.Err)
}

// moveFile moves src to dst, copying when a rename is not possible.
func moveFile(src, dst string, opts DownloadOptions) error {
	if opts.CreateIntermediateDirectories {
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return errors.DownloadFailed(dst, err)
		}
	}
	if _, err := os.Stat(dst); err == nil {
		if !opts.RemovePreviousFile {
			return errors.DownloadFailed(dst, fs.ErrExist)
		}
		if err := os.Remove(dst); err != nil {
			return errors.DownloadFailed(dst, err)
		}
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		_ = os.Remove(dst)
		return errors.DownloadFailed(dst, err)
	}
	_ = os.Remove(src)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
