package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Response classification errors
const (
	// ErrCodeTimeout indicates the transport gave up before any response line arrived.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeMalformedBody indicates a 200 response whose body could not be decoded.
	ErrCodeMalformedBody ErrorCode = "MALFORMED_BODY"
	// ErrCodeNotOkResponse indicates any non-200 outcome, including a missing status.
	ErrCodeNotOkResponse ErrorCode = "NOT_OK_RESPONSE"
)

// Caller-classified errors
const (
	// ErrCodeTokenExpired indicates the credentials used for the call have expired.
	// It is never produced by the classifier, only by error-transform hooks.
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
)

// Dispatch errors
const (
	// ErrCodePreflightFailed indicates the endpoint's preflight validation rejected the call.
	ErrCodePreflightFailed ErrorCode = "PREFLIGHT_FAILED"
	// ErrCodeInvalidEndpoint indicates the endpoint descriptor itself is malformed.
	ErrCodeInvalidEndpoint ErrorCode = "INVALID_ENDPOINT"
	// ErrCodeConnectionFailed indicates a transport failure other than a timeout.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeDownloadFailed indicates the response body could not be written to its destination.
	ErrCodeDownloadFailed ErrorCode = "DOWNLOAD_FAILED"
	// ErrCodeDispatcherStopped indicates a call made after its dispatcher was stopped.
	ErrCodeDispatcherStopped ErrorCode = "DISPATCHER_STOPPED"
)

// Internal errors
const (
	// ErrCodeInvalidInternalState indicates a result was built with neither a value nor an error.
	ErrCodeInvalidInternalState ErrorCode = "INVALID_INTERNAL_STATE"
)
