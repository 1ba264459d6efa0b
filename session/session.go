package session

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"
)

// StatusTimeout is the reserved status reported when the transport gave up
// on timeout before a complete response was received. It never collides
// with a real HTTP status.
const StatusTimeout = -1001

// DefaultTimeout is the timeout of the session every pool is seeded with.
const DefaultTimeout = 15 * time.Second

// Session executes requests under a single, fixed timeout.
// Implementations must be safe for concurrent use.
type Session interface {
	// Timeout returns the timeout the session was configured with.
	Timeout() time.Duration
	// Execute sends req and blocks until the response has been fully received
	// or the transport has failed. It never returns nil.
	Execute(ctx context.Context, req *Request) *Response
	// Close releases idle connections. The session remains usable.
	Close()
}

// Request describes one outbound call on a session.
type Request struct {
	// Method is the HTTP method.
	Method string
	// URL is the absolute target URL. Query is merged into any query it already has.
	URL string
	// Query holds query-string parameters.
	Query url.Values
	// Header holds request headers.
	Header http.Header
	// Body is the request body. Nil sends no body.
	Body io.Reader
	// BodySize is the length of Body in bytes, or -1 if unknown. A positive
	// size is sent as the Content-Length.
	BodySize int64

	// Download streams the response body into a temporary file instead of memory.
	Download bool
	// TempDir is the directory temporary download files are created in.
	// Empty uses os.TempDir.
	TempDir string

	// UploadProgress is invoked as the request body is sent.
	UploadProgress func(Progress)
	// DownloadProgress is invoked as the response body is received.
	DownloadProgress func(Progress)
}

// Response is the raw outcome of an executed Request.
type Response struct {
	// StatusCode is the HTTP status, 0 if none was received, or StatusTimeout.
	StatusCode int
	// Header holds the response headers, if a response was received.
	Header http.Header
	// Body is the response body. Empty for downloads.
	Body []byte
	// FilePath is the temporary file holding the body of a download.
	FilePath string
	// Err is the transport failure, if any. It is always an *errors.AppError.
	Err error
	// Duration is the time spent executing the request.
	Duration time.Duration
}

// HasStatus reports whether a real HTTP status was received.
func (r *Response) HasStatus() bool {
	return r.StatusCode > 0
}
