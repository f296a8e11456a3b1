package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeLoad marks file-level input failures: missing files, unreadable
	// directories, malformed headers.
	ErrTypeLoad ErrorType = "LOAD"
	// ErrTypeFormat marks row-level input failures: unparseable dates or
	// numeric cells. Format errors always name the offending row.
	ErrTypeFormat ErrorType = "FORMAT"
	// ErrTypeInvalidLag marks a negative lag passed to a correlation.
	ErrTypeInvalidLag ErrorType = "INVALID_LAG"
	// ErrTypeInsufficientData marks analyses that need more observations than
	// the series holds, e.g. decomposition over fewer than two periods.
	ErrTypeInsufficientData ErrorType = "INSUFFICIENT_DATA"
	ErrTypeValidation       ErrorType = "VALIDATION"
	ErrTypeStorage          ErrorType = "STORAGE"
	ErrTypeNotFound         ErrorType = "NOT_FOUND"
	ErrTypeConfig           ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Helper functions for common error types

// NewLoadError creates a file-level input error for the named source file.
func NewLoadError(file, message string, cause error) *AppError {
	return NewAppError(ErrTypeLoad, message, cause).WithContext("file", file)
}

// NewFormatError creates a row-level parse error. file and row locate the
// offending cell so the caller can report it without re-reading the input.
func NewFormatError(file string, row int, message string, cause error) *AppError {
	return NewAppError(ErrTypeFormat, message, cause).
		WithContext("file", file).
		WithContext("row", row)
}

// NewInvalidLagError rejects a negative lag in a correlation request.
func NewInvalidLagError(lag int) *AppError {
	return NewAppError(ErrTypeInvalidLag, fmt.Sprintf("lag must be >= 0, got %d", lag), nil).
		WithContext("lag", lag)
}

// NewInsufficientDataError reports an analysis that needs more data points
// than the series provides.
func NewInsufficientDataError(message string, have, need int) *AppError {
	return NewAppError(ErrTypeInsufficientData, message, nil).
		WithContext("have", have).
		WithContext("need", need)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType reports whether err is (or wraps) an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsLoadError reports whether err is a file-level input error.
func IsLoadError(err error) bool { return IsType(err, ErrTypeLoad) }

// IsFormatError reports whether err is a row-level parse error.
func IsFormatError(err error) bool { return IsType(err, ErrTypeFormat) }

// IsInvalidLagError reports whether err is a negative-lag rejection.
func IsInvalidLagError(err error) bool { return IsType(err, ErrTypeInvalidLag) }

// IsInsufficientDataError reports whether err is an insufficient-data rejection.
func IsInsufficientDataError(err error) bool { return IsType(err, ErrTypeInsufficientData) }
