// Package errors provides structured error types for dotplate.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes map to the failure taxonomy of the geometry pipeline:
//   - CONFIGURATION: invalid settings rejected before any geometry is built
//   - GRID_OVERFLOW: decoded content exceeded the usable columns
//   - DEGENERATE_PRIMITIVE: a primitive would collapse to zero volume
//   - ASSEMBLY_FAILURE: boolean composition produced a corrupt solid
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfiguration, "cell_spacing must be > 0, got %g", v)
//	if errors.Is(err, errors.ErrCodeConfiguration) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "encode %s", format)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Pre-geometry validation
	ErrCodeConfiguration Code = "CONFIGURATION"
	ErrCodeInvalidInput  Code = "INVALID_INPUT"

	// Layout resolution
	ErrCodeGridOverflow Code = "GRID_OVERFLOW"

	// Primitive construction
	ErrCodeDegeneratePrimitive Code = "DEGENERATE_PRIMITIVE"

	// Solid assembly
	ErrCodeAssemblyFailure Code = "ASSEMBLY_FAILURE"

	// General
	ErrCodeNotFound    Code = "NOT_FOUND"
	ErrCodeUnsupported Code = "UNSUPPORTED"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
