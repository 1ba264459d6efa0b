package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified error type delivered through endpoint results.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// StatusCode is the HTTP status of the response that produced the error, if any.
	StatusCode int `json:"status_code,omitempty"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Constructors ---

// Timeout creates an error for a call the transport abandoned before a response arrived.
func Timeout() *AppError {
	return &AppError{Code: ErrCodeTimeout, Message: "The request timed out before a response was received."}
}

// MalformedBody creates an error for a successful response whose body could not be decoded.
func MalformedBody(cause error) *AppError {
	return &AppError{
		Code: ErrCodeMalformedBody, Message: "The response body could not be decoded.",
		StatusCode: http.StatusOK, Cause: cause,
	}
}

// NotOkResponse creates an error for a response that was not a 200.
// A zero statusCode means no HTTP status was available.
func NotOkResponse(statusCode int) *AppError {
	msg := "The request failed without an HTTP status."
	if statusCode != 0 {
		msg = fmt.Sprintf("The server responded with HTTP %d.", statusCode)
	}
	return &AppError{Code: ErrCodeNotOkResponse, Message: msg, StatusCode: statusCode}
}

// TokenExpired creates an error for expired credentials.
func TokenExpired() *AppError {
	return &AppError{
		Code: ErrCodeTokenExpired, Message: "The access token has expired.",
		StatusCode: http.StatusUnauthorized,
	}
}

// InvalidInternalState creates an error for a result that holds neither a value nor an error.
func InvalidInternalState() *AppError {
	return &AppError{Code: ErrCodeInvalidInternalState, Message: "The result holds neither a value nor an error."}
}

// PreflightFailed creates an error for a call rejected before dispatch.
func PreflightFailed(cause error) *AppError {
	return &AppError{Code: ErrCodePreflightFailed, Message: "The call was rejected in preflight.", Cause: cause}
}

// InvalidEndpoint creates an error for a malformed endpoint descriptor.
func InvalidEndpoint(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidEndpoint, Message: message}
}

// ConnectionFailed creates an error for a transport failure that was not a timeout.
func ConnectionFailed(cause error) *AppError {
	return &AppError{Code: ErrCodeConnectionFailed, Message: "The request could not be completed.", Cause: cause}
}

// DownloadFailed creates an error for a body that could not be written to disk.
func DownloadFailed(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDownloadFailed, Message: fmt.Sprintf("Unable to write the download to %s.", path),
		Details: map[string]any{"path": path}, Cause: cause,
	}
}

// DispatcherStopped creates an error for a call made after shutdown.
func DispatcherStopped() *AppError {
	return &AppError{Code: ErrCodeDispatcherStopped, Message: "The dispatcher has been stopped."}
}

// --- Inspection ---

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool { return HasCode(err, ErrCodeTimeout) }

// IsMalformedBody checks if an error is a malformed body error.
func IsMalformedBody(err error) bool { return HasCode(err, ErrCodeMalformedBody) }

// IsNotOkResponse checks if an error is a not-ok response error.
func IsNotOkResponse(err error) bool { return HasCode(err, ErrCodeNotOkResponse) }

// IsTokenExpired checks if an error is a token expiry error.
func IsTokenExpired(err error) bool { return HasCode(err, ErrCodeTokenExpired) }

// IsInvalidInternalState checks if an error is an invalid internal state error.
func IsInvalidInternalState(err error) bool { return HasCode(err, ErrCodeInvalidInternalState) }

// IsPreflightFailed checks if an error came from a rejected preflight.
func IsPreflightFailed(err error) bool { return HasCode(err, ErrCodePreflightFailed) }

// IsDispatcherStopped checks if an error rejected a call after shutdown.
func IsDispatcherStopped(err error) bool { return HasCode(err, ErrCodeDispatcherStopped) }

// Is re-exports the standard library errors.Is so callers need a single import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As re-exports the standard library errors.As.
func As(err error, target any) bool { return stderrors.As(err, target) }
