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
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Manifest errors: fatal, raised before any filesystem mutation
	ErrManifestNotFound ErrorCode = "MANIFEST_NOT_FOUND"
	ErrManifestParse    ErrorCode = "MANIFEST_PARSE"
	ErrManifestInvalid  ErrorCode = "MANIFEST_INVALID"

	// Per-component errors, collected into results
	ErrPathInvalid        ErrorCode = "PATH_INVALID"
	ErrPathCollision      ErrorCode = "PATH_COLLISION"
	ErrAdaptation         ErrorCode = "ADAPTATION"
	ErrConflictUnresolved ErrorCode = "CONFLICT_UNRESOLVED"
	ErrUnsupported        ErrorCode = "UNSUPPORTED"
	ErrCredential         ErrorCode = "CREDENTIAL"

	// Run-level errors
	ErrWrite    ErrorCode = "WRITE"
	ErrFileLock ErrorCode = "FILE_LOCK"
	ErrAbort    ErrorCode = "ABORTED"

	// Tracker errors
	ErrTrackerLock     ErrorCode = "TRACKER_LOCK"
	ErrTrackerCorrupt  ErrorCode = "TRACKER_CORRUPT"
	ErrTrackerNotFound ErrorCode = "TRACKER_NOT_FOUND"
	ErrTrackerWrite    ErrorCode = "TRACKER_WRITE"

	// Backup errors
	ErrBackup         ErrorCode = "BACKUP"
	ErrBackupNotFound ErrorCode = "BACKUP_NOT_FOUND"
	ErrRestore        ErrorCode = "RESTORE"
)

// DevsyncError represents a structured error with code and details
type DevsyncError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *DevsyncError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DevsyncError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *DevsyncError) Is(target error) bool {
	var targetErr *DevsyncError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new DevsyncError with the given code and message
func New(code ErrorCode, message string) *DevsyncError {
	return &DevsyncError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new DevsyncError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *DevsyncError {
	return &DevsyncError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a DevsyncError
func Wrap(err error, code ErrorCode, message string) *DevsyncError {
	if err == nil {
		return nil
	}
	return &DevsyncError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *DevsyncError {
	if err == nil {
		return nil
	}
	return &DevsyncError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *DevsyncError) WithDetail(key string, value interface{}) *DevsyncError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var devsyncErr *DevsyncError
	if errors.As(err, &devsyncErr) {
		return devsyncErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a DevsyncError
func GetErrorCode(err error) ErrorCode {
	var devsyncErr *DevsyncError
	if errors.As(err, &devsyncErr) {
		return devsyncErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a DevsyncError
func GetErrorDetails(err error) map[string]interface{} {
	var devsyncErr *DevsyncError
	if errors.As(err, &devsyncErr) {
		return devsyncErr.Details
	}
	return nil
}

// Kind classifies an error into the user-facing failure kinds reported in
// install results.
func Kind(err error) string {
	switch GetErrorCode(err) {
	case ErrManifestNotFound, ErrManifestParse, ErrManifestInvalid:
		return "manifest"
	case ErrPathInvalid, ErrPathCollision:
		return "path"
	case ErrAdaptation:
		return "adaptation"
	case ErrConflictUnresolved:
		return "conflict-unresolved"
	case ErrCredential:
		return "credential"
	case ErrWrite:
		return "write"
	case ErrFileLock:
		return "lock"
	case ErrAbort:
		return "aborted"
	case ErrTrackerLock, ErrTrackerCorrupt, ErrTrackerNotFound, ErrTrackerWrite:
		return "tracker"
	case ErrBackup, ErrBackupNotFound, ErrRestore:
		return "backup"
	case ErrUnsupported:
		return "unsupported"
	default:
		return "internal"
	}
}

// IsFatal reports whether an error threatens data integrity and must abort
// the whole run rather than a single component.
func IsFatal(err error) bool {
	switch GetErrorCode(err) {
	case ErrManifestNotFound, ErrManifestParse, ErrManifestInvalid,
		ErrWrite, ErrFileLock, ErrTrackerLock, ErrTrackerCorrupt, ErrTrackerWrite, ErrBackup:
		return true
	}
	return false
}
