package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Transport errors (retryable by the caller if it wants to)
const (
	// ErrCodeTransport indicates a connection-level failure (refused, reset, DNS, TLS).
	ErrCodeTransport ErrorCode = "TRANSPORT_FAILED"
	// ErrCodeTimeout indicates the call context expired before completion.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Completion errors
const (
	// ErrCodeStatus indicates a completed request whose status the backend treats as failure.
	ErrCodeStatus ErrorCode = "HTTP_STATUS"
	// ErrCodeParse indicates a response body declared as JSON could not be parsed.
	ErrCodeParse ErrorCode = "BODY_PARSE"
)

// Request errors
const (
	// ErrCodeSetup indicates the backend could not set the request up.
	ErrCodeSetup ErrorCode = "SETUP_FAILED"
	// ErrCodeEncode indicates the request body could not be encoded.
	ErrCodeEncode ErrorCode = "ENCODE_FAILED"
	// ErrCodeInvalidInput indicates the caller supplied invalid options.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTransport: true,
	ErrCodeTimeout:   true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
