package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error is the structured error returned by every apicall operation.
type Error struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// StatusCode is the HTTP status of a completed request (0 when none completed).
	StatusCode int `json:"status_code,omitempty"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	msg := string(e.Code)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("apicall: %s: %s: %v", msg, e.Message, e.Cause)
	}
	return fmt.Sprintf("apicall: %s: %s", msg, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *Error) WithDetails(details map[string]any) *Error {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// New creates a new Error with automatic retryable detection.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Constructors ---

// Transport wraps a connection-level failure.
func Transport(cause error) *Error {
	return New(ErrCodeTransport, "request failed before a response completed").WithCause(cause)
}

// Timeout wraps a failure caused by the call context expiring.
func Timeout(cause error) *Error {
	return New(ErrCodeTimeout, "request did not complete in time").WithCause(cause)
}

// Status reports a completed request whose status is treated as a failure.
func Status(statusCode int, statusText string) *Error {
	if statusText == "" {
		statusText = http.StatusText(statusCode)
	}
	e := New(ErrCodeStatus, statusText)
	e.StatusCode = statusCode
	return e
}

// Parse wraps a JSON decoding failure of a response body.
func Parse(cause error) *Error {
	return New(ErrCodeParse, "response declared JSON but the body is not valid JSON").WithCause(cause)
}

// Setup wraps a failure that happened while the backend prepared the request.
func Setup(stage string, cause error) *Error {
	return New(ErrCodeSetup, fmt.Sprintf("request setup failed at %s", stage)).
		WithCause(cause).
		WithDetail("stage", stage)
}

// Encode wraps a request body encoding failure.
func Encode(kind string, cause error) *Error {
	return New(ErrCodeEncode, fmt.Sprintf("cannot encode %s body", kind)).
		WithCause(cause).
		WithDetail("body", kind)
}

// InvalidInput creates an error for a single invalid option.
func InvalidInput(field, reason string) *Error {
	e := New(ErrCodeInvalidInput, fmt.Sprintf("Invalid input: %s", reason))
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation creates an error for aggregated validation failures.
func Validation(message string) *Error {
	return New(ErrCodeInvalidInput, message)
}

// --- Predicates ---

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func hasCode(err error, code ErrorCode) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// IsTransport checks if an error is a transport failure.
func IsTransport(err error) bool { return hasCode(err, ErrCodeTransport) }

// IsTimeout checks if an error is a timeout.
func IsTimeout(err error) bool { return hasCode(err, ErrCodeTimeout) }

// IsStatus checks if an error is a non-2xx completion treated as failure.
func IsStatus(err error) bool { return hasCode(err, ErrCodeStatus) }

// IsParse checks if an error is a body parse failure.
func IsParse(err error) bool { return hasCode(err, ErrCodeParse) }

// IsSetup checks if an error is a backend setup failure.
func IsSetup(err error) bool { return hasCode(err, ErrCodeSetup) }

// IsEncode checks if an error is a body encoding failure.
func IsEncode(err error) bool { return hasCode(err, ErrCodeEncode) }

// IsValidation checks if an error is an invalid-input error.
func IsValidation(err error) bool { return hasCode(err, ErrCodeInvalidInput) }

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	e, ok := As(err)
	return ok && e.Retryable
}

// StatusCodeOf returns the HTTP status carried by err, or 0.
func StatusCodeOf(err error) int {
	if e, ok := As(err); ok {
		return e.StatusCode
	}
	return 0
}
