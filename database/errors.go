package database

import (
	"context"
	stderrors "errors"
	"strings"

	"gorm.io/gorm"

	"github.com/kbukum/pageiter/errors"
)

// IsConnectionError checks if a database error is a connection error
// that might be resolved by retrying.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err, []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"no route to host",
		"network is unreachable",
		"connection closed",
		"connection lost",
		"driver: bad connection",
		"invalid connection",
		"database is closed",
	})
}

// IsRetryableError determines if a database error should trigger a retry.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if IsConnectionError(err) {
		return true
	}
	return containsAny(err, []string{
		"deadlock",
		"lock timeout",
		"database is locked",
		"too many connections",
		"connection pool exhausted",
	})
}

func containsAny(err error, patterns []string) bool {
	msg := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// FromDatabase converts an error from a store operation to an AppError.
// Context errors become CANCELED; everything else is a STORE_ERROR that is
// retryable only for connection and locking failures.
func FromDatabase(err error, op string) *errors.AppError {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Canceled(err).WithDetail("operation", op)
	}

	appErr := errors.StoreError(op, err)
	appErr.Retryable = IsRetryableError(err)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		appErr.WithDetail("reason", "not_found")
	}
	return appErr
}
