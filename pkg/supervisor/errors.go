package supervisor

import (
	"errors"
	"fmt"
	"strings"
)

// SupervisorError carries a stable error code plus enough context to make a
// misbehaving desktop install diagnosable from a single log line.
type SupervisorError struct {
	// Code identifies the error type
	Code ErrorCode

	// Message is the primary error message
	Message string

	// Context provides additional details
	Context map[string]interface{}

	// Cause is the underlying error (if any)
	Cause error

	// Suggestion provides actionable guidance for resolving the error
	Suggestion string
}

// ErrorCode identifies categories of errors
type ErrorCode string

const (
	// Resource errors
	ErrorCodePortAllocationFailed ErrorCode = "PORT_ALLOCATION_FAILED"

	// Binary discovery errors
	ErrorCodeBinaryNotFound ErrorCode = "BINARY_NOT_FOUND"

	// Process lifecycle errors
	ErrorCodeSpawnFailed    ErrorCode = "SPAWN_FAILED"
	ErrorCodeImmediateExit  ErrorCode = "IMMEDIATE_EXIT"
	ErrorCodeBackendTimeout ErrorCode = "BACKEND_TIMEOUT"
	ErrorCodeNoBackend      ErrorCode = "NO_BACKEND"

	// Configuration errors
	ErrorCodeInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"
)

// Error implements the error interface
func (e *SupervisorError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		var contextParts []string
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("Context: %s", strings.Join(contextParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause: %v", e.Cause))
	}

	if e.Suggestion != "" {
		parts = append(parts, fmt.Sprintf("Suggestion: %s", e.Suggestion))
	}

	return strings.Join(parts, "; ")
}

// Unwrap returns the underlying error for errors.Is/As compatibility
func (e *SupervisorError) Unwrap() error {
	return e.Cause
}

// NewError creates a new SupervisorError with the given code and message
func NewError(code ErrorCode, message string) *SupervisorError {
	return &SupervisorError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *SupervisorError) WithContext(key string, value interface{}) *SupervisorError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCause adds the underlying cause to the error
func (e *SupervisorError) WithCause(cause error) *SupervisorError {
	e.Cause = cause
	return e
}

// WithSuggestion adds an actionable suggestion to the error
func (e *SupervisorError) WithSuggestion(suggestion string) *SupervisorError {
	e.Suggestion = suggestion
	return e
}

// Common error constructors with helpful suggestions

// ErrPortAllocationFailed creates an error for ephemeral port allocation failures
func ErrPortAllocationFailed(cause error) *SupervisorError {
	return NewError(ErrorCodePortAllocationFailed,
		"Failed to allocate an ephemeral port for the backend").
		WithCause(cause).
		WithSuggestion(
			"Verify the loopback interface is up and the process may create sockets:\n" +
				"  ping 127.0.0.1\n" +
				"  ulimit -n")
}

// ErrBinaryNotFound creates an error for a missing backend executable.
// The searched list enumerates every candidate probed, in priority order.
func ErrBinaryNotFound(name string, searched []string) *SupervisorError {
	return NewError(ErrorCodeBinaryNotFound,
		fmt.Sprintf("Backend executable '%s' not found in any known location", name)).
		WithContext("binary_name", name).
		WithContext("searched", searched).
		WithSuggestion(
			"Build the backend and place it next to the shell executable:\n" +
				"  ls -la " + strings.Join(searched, "\n  ls -la "))
}

// ErrSpawnFailed creates an error for process creation failures
func ErrSpawnFailed(path string, cause error) *SupervisorError {
	return NewError(ErrorCodeSpawnFailed,
		fmt.Sprintf("Failed to start backend process '%s'", path)).
		WithContext("binary_path", path).
		WithCause(cause).
		WithSuggestion(fmt.Sprintf(
			"Common causes:\n"+
				"  1. Missing executable bit: chmod +x %s\n"+
				"  2. Architecture mismatch (file %s)\n"+
				"  3. Insufficient permissions",
			path, path))
}

// ErrImmediateExit creates an error for a backend that died within the
// post-spawn grace period.
func ErrImmediateExit(path string, exitCode int) *SupervisorError {
	return NewError(ErrorCodeImmediateExit,
		"Backend process exited immediately after start").
		WithContext("binary_path", path).
		WithContext("exit_code", exitCode).
		WithSuggestion(
			"Run the backend by hand with the same environment to see its output:\n" +
				"  PORT=<port> " + path)
}

// ErrBackendTimeout creates an error for readiness probe budget exhaustion
func ErrBackendTimeout(url string, attempts int, cause error) *SupervisorError {
	return NewError(ErrorCodeBackendTimeout,
		fmt.Sprintf("Backend did not answer on %s after %d attempts", url, attempts)).
		WithContext("url", url).
		WithContext("attempts", attempts).
		WithCause(cause).
		WithSuggestion(fmt.Sprintf(
			"Verify the backend is listening:\n"+
				"  curl %s\n"+
				"Check the backend logs for startup errors", url))
}

// ErrNoBackend creates an error for accessors that require a running child
func ErrNoBackend() *SupervisorError {
	return NewError(ErrorCodeNoBackend,
		"No backend process is currently managed").
		WithSuggestion(
			"The backend either was never started or has been stopped.\n" +
				"In degraded mode an external backend may still answer on the default port.")
}

// ErrInvalidConfiguration creates an error for configuration validation failures
func ErrInvalidConfiguration(field string, value interface{}, reason string) *SupervisorError {
	return NewError(ErrorCodeInvalidConfiguration,
		fmt.Sprintf("Invalid configuration: %s", reason)).
		WithContext("field", field).
		WithContext("value", value).
		WithSuggestion(
			"Review the supervisor configuration and ensure all values are valid.\n" +
				"See the Config struct documentation for valid ranges.")
}

// IsErrorCode checks if an error has the specified error code
func IsErrorCode(err error, code ErrorCode) bool {
	var supErr *SupervisorError
	if errors.As(err, &supErr) {
		return supErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or empty string if not a SupervisorError
func GetErrorCode(err error) ErrorCode {
	var supErr *SupervisorError
	if errors.As(err, &supErr) {
		return supErr.Code
	}
	return ""
}

// GetSuggestion returns the suggestion from an error, or empty string if not available
func GetSuggestion(err error) string {
	var supErr *SupervisorError
	if errors.As(err, &supErr) {
		return supErr.Suggestion
	}
	return ""
}
