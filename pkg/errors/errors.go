package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrPermission   ErrorCode = "PERMISSION"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Mod errors
	ErrManifestParse ErrorCode = "MANIFEST_PARSE"
	ErrPathTraversal ErrorCode = "PATH_TRAVERSAL"
	ErrMissingSource ErrorCode = "MISSING_SOURCE"

	// Deploy errors
	ErrConflictDetected ErrorCode = "CONFLICT_DETECTED"
	ErrGamePath         ErrorCode = "GAME_PATH"
	ErrBackupMissing    ErrorCode = "BACKUP_MISSING"

	// FileSystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrFileWrite  ErrorCode = "FILE_WRITE"
	ErrDirCreate  ErrorCode = "DIR_CREATE"
	ErrIOFailure  ErrorCode = "IO_FAILURE"
)

// EndmodError represents a structured error with code and details
type EndmodError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *EndmodError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *EndmodError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *EndmodError) Is(target error) bool {
	var targetErr *EndmodError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new EndmodError with the given code and message
func New(code ErrorCode, message string) *EndmodError {
	return &EndmodError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new EndmodError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *EndmodError {
	return &EndmodError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a code and message
func Wrap(err error, code ErrorCode, message string) *EndmodError {
	return &EndmodError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a code and formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *EndmodError {
	return &EndmodError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail key-value pair to the error
func (e *EndmodError) WithDetail(key string, value interface{}) *EndmodError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// GetCode extracts the error code from an error, returning ErrUnknown
// for errors that are not EndmodErrors.
func GetCode(err error) ErrorCode {
	var endmodErr *EndmodError
	if errors.As(err, &endmodErr) {
		return endmodErr.Code
	}
	return ErrUnknown
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}
