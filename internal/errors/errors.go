// Package errors provides error code definitions for the repository engine.
package errors

import "fmt"

// ErrorCode identifies a class of engine failure.
type ErrorCode string

const (
	// Errors that cross the engine's public boundary.
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrDuplicate  ErrorCode = "DUPLICATE_RECORD"
	ErrNotFound   ErrorCode = "RECORD_NOT_FOUND"
	ErrLocalStore ErrorCode = "LOCAL_STORE_ERROR"

	// Errors that are absorbed internally and only show up in logs
	// and the retry queue.
	ErrRemoteUnavailable      ErrorCode = "REMOTE_UNAVAILABLE"
	ErrReconciliationConflict ErrorCode = "RECONCILIATION_CONFLICT"

	// Internal plumbing errors.
	ErrInternal  ErrorCode = "INTERNAL_ERROR"
	ErrMigration ErrorCode = "MIGRATION_FAILED"
	ErrQueueFull ErrorCode = "QUEUE_FULL"
)

// AppError represents an engine error with code, message and optional
// structured metadata (used by DUPLICATE_RECORD to carry the conflicting
// record's identity for UI messaging).
type AppError struct {
	Code    ErrorCode
	Message string
	Meta    map[string]interface{}
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Duplicate builds a DUPLICATE_RECORD error carrying the identity of the
// conflicting active record.
func Duplicate(entityType, field string, conflictID int64) *AppError {
	return &AppError{
		Code:    ErrDuplicate,
		Message: fmt.Sprintf("duplicate %s: conflicting %s on record %d", entityType, field, conflictID),
		Meta: map[string]interface{}{
			"entity_type": entityType,
			"field":       field,
			"conflict_id": conflictID,
		},
	}
}

// ConflictID extracts the conflicting record id from a DUPLICATE_RECORD
// error, or 0 if the error carries none.
func ConflictID(err error) int64 {
	appErr, ok := err.(*AppError)
	if !ok || appErr.Meta == nil {
		return 0
	}
	id, _ := appErr.Meta["conflict_id"].(int64)
	return id
}

// Is checks if an error is of a specific code.
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}
