// Package errors provides the structured error types used across spry.
//
// Every failure the serving engine can produce is categorized so that the
// control handler can turn it into a success=false response and the HTTP
// serving path can map it to a status code without string matching.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType categorizes spry errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeSecurity   ErrorType = "security"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeWatch      ErrorType = "watch"
	ErrorTypeInternal   ErrorType = "internal"
)

// Error codes for the serving engine taxonomy.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeNotADirectory     = "NOT_A_DIRECTORY"
	CodeNotAFile          = "NOT_A_FILE"
	CodeForbidden         = "FORBIDDEN"
	CodeNoParentDirectory = "NO_PARENT_DIRECTORY"
	CodeWatchBindFailure  = "WATCH_BIND_FAILURE"
	CodeInternalIO        = "INTERNAL_IO"
)

// SpryError is a structured error with a category, a stable code and an
// optional cause.
type SpryError struct {
	Type    ErrorType
	Code    string
	Message string
	Path    string
	Cause   error
}

// Error implements the error interface.
func (e *SpryError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Path != "" {
		parts = append(parts, e.Path+":")
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *SpryError) Unwrap() error {
	return e.Cause
}

// Is matches errors by type and code so callers can compare against the
// sentinel constructors with errors.Is.
func (e *SpryError) Is(target error) bool {
	var t *SpryError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// WithCause attaches an underlying error.
func (e *SpryError) WithCause(cause error) *SpryError {
	e.Cause = cause
	return e
}

// NotFound reports a path that does not exist or cannot be resolved.
func NotFound(path string) *SpryError {
	return &SpryError{
		Type:    ErrorTypeValidation,
		Code:    CodeNotFound,
		Message: "path does not exist",
		Path:    path,
	}
}

// NotADirectory reports a set-directory target that exists but is not a
// directory.
func NotADirectory(path string) *SpryError {
	return &SpryError{
		Type:    ErrorTypeValidation,
		Code:    CodeNotADirectory,
		Message: "path is not a directory",
		Path:    path,
	}
}

// NotAFile reports a set-file target that exists but is not a regular file.
func NotAFile(path string) *SpryError {
	return &SpryError{
		Type:    ErrorTypeValidation,
		Code:    CodeNotAFile,
		Message: "path is not a file",
		Path:    path,
	}
}

// Forbidden reports a containment violation: the resolved path escapes the
// serving root.
func Forbidden(path string) *SpryError {
	return &SpryError{
		Type:    ErrorTypeSecurity,
		Code:    CodeForbidden,
		Message: "path escapes the serving root",
		Path:    path,
	}
}

// NoParentDirectory reports a direct-file target whose canonical path has no
// parent, such as the filesystem root.
func NoParentDirectory(path string) *SpryError {
	return &SpryError{
		Type:    ErrorTypeValidation,
		Code:    CodeNoParentDirectory,
		Message: "cannot determine parent directory",
		Path:    path,
	}
}

// WatchBindFailure reports a transient failure to bind the filesystem watch.
// Always recoverable; the pipeline retries with backoff.
func WatchBindFailure(path string, cause error) *SpryError {
	return &SpryError{
		Type:    ErrorTypeWatch,
		Code:    CodeWatchBindFailure,
		Message: "failed to bind filesystem watch",
		Path:    path,
		Cause:   cause,
	}
}

// InternalIO reports an unexpected read or canonicalize failure while
// serving.
func InternalIO(path string, cause error) *SpryError {
	return &SpryError{
		Type:    ErrorTypeIO,
		Code:    CodeInternalIO,
		Message: "unexpected I/O failure",
		Path:    path,
		Cause:   cause,
	}
}

// HTTPStatus maps an error to the HTTP status code the serving path should
// answer with. Unknown errors map to 500.
func HTTPStatus(err error) int {
	var se *SpryError
	if !errors.As(err, &se) {
		return http.StatusInternalServerError
	}

	switch se.Code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Message returns a human-readable message suitable for control protocol
// responses.
func Message(err error) string {
	var se *SpryError
	if errors.As(err, &se) {
		if se.Path != "" {
			return fmt.Sprintf("%s: %s", se.Message, se.Path)
		}
		return se.Message
	}
	return err.Error()
}
