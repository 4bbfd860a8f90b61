package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Iteration errors
const (
	// ErrCodeStore indicates the record store failed a count or find call.
	ErrCodeStore ErrorCode = "STORE_ERROR"
	// ErrCodeWork indicates a work function reported a failure.
	ErrCodeWork ErrorCode = "WORK_ERROR"
	// ErrCodeCanceled indicates the caller canceled the operation.
	ErrCodeCanceled ErrorCode = "CANCELED"
)

// Availability errors (retryable)
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
)

// Resource errors
const (
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Validation errors
const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Internal errors
const (
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeStore:              true,
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeDatabaseError:      true,
	ErrCodeWork:               false,
	ErrCodeCanceled:           false,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
