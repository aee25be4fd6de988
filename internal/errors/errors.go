// Package errors provides structured error types for the Triplake system.
// All errors include a category, code, message, and retryable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryFormat    ErrorCategory = "FORMAT"
	ErrCategoryCleaning  ErrorCategory = "CLEANING"
	ErrCategorySchema    ErrorCategory = "SCHEMA"
	ErrCategoryStore     ErrorCategory = "STORE"
	ErrCategoryQuery     ErrorCategory = "QUERY"
	ErrCategoryTransport ErrorCategory = "TRANSPORT"
	ErrCategoryInternal  ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Format codes
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeMalformedInput    = "MALFORMED_INPUT"

	// Schema codes
	CodeSchemaViolation = "SCHEMA_VIOLATION"

	// Store codes
	CodeOpenFailed   = "OPEN_FAILED"
	CodeInsertFailed = "INSERT_FAILED"
	CodeScanFailed   = "SCAN_FAILED"

	// Query codes
	CodeInvalidParameter = "INVALID_PARAMETER"

	// Transport codes
	CodeListFailed     = "LIST_FAILED"
	CodeDownloadFailed = "DOWNLOAD_FAILED"
	CodeFileNotFound   = "FILE_NOT_FOUND"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// TriplakeError is the structured error type used throughout the system.
type TriplakeError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *TriplakeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *TriplakeError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *TriplakeError) Is(target error) bool {
	var t *TriplakeError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new TriplakeError.
func New(category ErrorCategory, code, message string) *TriplakeError {
	return &TriplakeError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new TriplakeError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *TriplakeError {
	return &TriplakeError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *TriplakeError) WithDetails(details map[string]interface{}) *TriplakeError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var te *TriplakeError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a TriplakeError.
func GetCategory(err error) ErrorCategory {
	var te *TriplakeError
	if errors.As(err, &te) {
		return te.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a TriplakeError.
func GetCode(err error) string {
	var te *TriplakeError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// isRetryable determines if an error code is retryable. Transfer failures
// may succeed on retry; a file that failed to parse will fail the same way
// every time.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryTransport && code == CodeListFailed:
		return true
	case category == ErrCategoryTransport && code == CodeDownloadFailed:
		return true
	case category == ErrCategoryStore && code == CodeInsertFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewFormatError(code, message string) *TriplakeError {
	return New(ErrCategoryFormat, code, message)
}

func NewSchemaError(field, message string) *TriplakeError {
	return New(ErrCategorySchema, CodeSchemaViolation, message).
		WithDetails(map[string]interface{}{"field": field})
}

func NewStoreError(code, message string, cause error) *TriplakeError {
	return Wrap(ErrCategoryStore, code, message, cause)
}

func NewQueryError(message string) *TriplakeError {
	return New(ErrCategoryQuery, CodeInvalidParameter, message)
}

func NewTransportError(code, message string, cause error) *TriplakeError {
	return Wrap(ErrCategoryTransport, code, message, cause)
}

func NewInternalError(message string, cause error) *TriplakeError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
