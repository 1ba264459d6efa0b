package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kbukum/apifire/errors"
	"github.com/kbukum/apifire/logger"
)

// Options configures sessions created by NewRestySession.
type Options struct {
	// UserAgent is sent with every request that does not set its own.
	UserAgent string
	// Headers are default headers applied to every request.
	Headers map[string]string
	// Transport overrides the HTTP round tripper. Nil uses a clone of
	// http.DefaultTransport.
	Transport http.RoundTripper
	// Logger receives resty's internal diagnostics.
	Logger *logger.Logger
}

// restySession is a Session backed by a resty.Client.
type restySession struct {
	client  *resty.Client
	timeout time.Duration
}

// NewRestySession creates a session whose client enforces timeout on the
// whole exchange, body included.
func NewRestySession(timeout time.Duration, opts Options) Session {
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	c := resty.New().
		SetTransport(transport).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetPreRequestHook(setContentLength)
	if opts.UserAgent != "" {
		c.SetHeader("User-Agent", opts.UserAgent)
	}
	if len(opts.Headers) > 0 {
		c.SetHeaders(opts.Headers)
	}
	if opts.Logger != nil {
		c.SetLogger(restyLogger{log: opts.Logger.WithComponent("resty")})
	}

	return &restySession{client: c, timeout: timeout}
}

func (s *restySession) Timeout() time.Duration { return s.timeout }

// Close releases idle connections held by the underlying client.
func (s *restySession) Close() {
	s.client.GetClient().CloseIdleConnections()
}

// Execute sends req and reads the complete response.
func (s *restySession) Execute(ctx context.Context, req *Request) *Response {
	start := time.Now()
	out := s.execute(ctx, req)
	out.Duration = time.Since(start)
	return out
}

func (s *restySession) execute(ctx context.Context, req *Request) *Response {
	if req.Body != nil && req.BodySize > 0 {
		ctx = context.WithValue(ctx, contentLengthKey{}, req.BodySize)
	}
	r := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)

	if len(req.Header) > 0 {
		r.SetHeaderMultiValues(req.Header)
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetBody(withProgress(req.Body, req.BodySize, req.UploadProgress))
	}

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		if resp != nil && resp.RawBody() != nil {
			_ = resp.RawBody().Close()
		}
		return failure(err)
	}

	raw := resp.RawResponse
	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	out := &Response{StatusCode: raw.StatusCode, Header: raw.Header}
	reader := withProgress(body, raw.ContentLength, req.DownloadProgress)

	if req.Download {
		path, err := saveTemp(req.TempDir, reader)
		if err != nil {
			return bodyFailure(out, err)
		}
		out.FilePath = path
		return out
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return bodyFailure(out, err)
	}
	out.Body = data
	return out
}

type contentLengthKey struct{}

// setContentLength declares the known size of a streamed request body,
// which net/http would otherwise send chunked.
func setContentLength(_ *resty.Client, r *http.Request) error {
	n, ok := r.Context().Value(contentLengthKey{}).(int64)
	if ok && r.Body != nil && r.Body != http.NoBody {
		r.ContentLength = n
	}
	return nil
}

// saveTemp copies r into a new temporary file and returns its path.
func saveTemp(dir string, r io.Reader) (string, error) {
	f, err := os.CreateTemp(dir, "apifire-download-*")
	if err != nil {
		return "", errors.DownloadFailed(dir, err)
	}
	path := f.Name()
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", errors.DownloadFailed(path, err)
	}
	return path, nil
}

// failure builds the response for a call that produced no HTTP status.
func failure(err error) *Response {
	if isTimeout(err) {
		return &Response{StatusCode: StatusTimeout, Err: errors.Timeout().WithCause(err)}
	}
	return &Response{Err: errors.ConnectionFailed(err)}
}

// bodyFailure records a failure that happened after the status line arrived.
// A timeout while receiving the body aborts the call as a whole, so the
// partial status is replaced by the timeout sentinel.
func bodyFailure(out *Response, err error) *Response {
	switch {
	case errors.IsAppError(err):
		out.Err = err
	case isTimeout(err):
		out.StatusCode = StatusTimeout
		out.Err = errors.Timeout().WithCause(err)
	default:
		out.Err = errors.ConnectionFailed(fmt.Errorf("read response body: %w", err))
	}
	return out
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return stderrors.As(err, &ne) && ne.Timeout()
}

// restyLogger routes resty diagnostics through the apifire logger.
type restyLogger struct {
	log *logger.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) { l.log.Error(fmt.Sprintf(format, v...)) }
func (l restyLogger) Warnf(format string, v ...interface{})  { l.log.Warn(fmt.Sprintf(format, v...)) }
func (l restyLogger) Debugf(format string, v ...interface{}) { l.log.Debug(fmt.Sprintf(format, v...)) }
