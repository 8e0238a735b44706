// Package errors provides the structured error type used across basalt.
//
// Errors carry a category, an optional short code, and a wrapped cause so
// that the CLI layer can decide between fatal exits (startup errors) and
// logged-and-absorbed failures (rebuild errors) without string matching.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeBuild    ErrorType = "build"
	ErrorTypeNetwork  ErrorType = "network"
	ErrorTypeResource ErrorType = "resource"
	ErrorTypeInternal ErrorType = "internal"
)

// Error is a categorized error with context.
type Error struct {
	Type    ErrorType
	Code    string
	Message string
	Path    string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Path != "" {
		parts = append(parts, e.Path)
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}
	return result
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by type and code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Type == t.Type && (t.Code == "" || e.Code == t.Code)
	}
	return false
}

// WithPath returns a copy of the error annotated with a filesystem path.
func (e *Error) WithPath(path string) *Error {
	clone := *e
	clone.Path = path
	return &clone
}

// Config creates a configuration error.
func Config(msg string, cause error) *Error {
	return &Error{Type: ErrorTypeConfig, Message: msg, Cause: cause}
}

// IO creates a filesystem I/O error.
func IO(msg string, cause error) *Error {
	return &Error{Type: ErrorTypeIO, Message: msg, Cause: cause}
}

// Build creates a site build error.
func Build(msg string, cause error) *Error {
	return &Error{Type: ErrorTypeBuild, Message: msg, Cause: cause}
}

// Network creates a network error, e.g. a failed port bind.
func Network(msg string, cause error) *Error {
	return &Error{Type: ErrorTypeNetwork, Message: msg, Cause: cause}
}

// Resource creates an error about a missing or invalid site resource.
func Resource(msg string, cause error) *Error {
	return &Error{Type: ErrorTypeResource, Message: msg, Cause: cause}
}

// Internal creates an internal invariant violation error.
func Internal(msg string, cause error) *Error {
	return &Error{Type: ErrorTypeInternal, Message: msg, Cause: cause}
}

// IsType reports whether err or any error in its chain is an *Error of the
// given type.
func IsType(err error, typ ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == typ
	}
	return false
}
