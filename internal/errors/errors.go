package apperrors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agbru/tieraccel/internal/operation"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the operation timed out.
	ExitErrorMismatch = 3   // Indicates an accelerated result diverged from the fallback.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// ServerError represents a failure of the diagnostics HTTP server.
type ServerError struct {
	// Message describes the failing server operation.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

func (e ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError creates a new ServerError with a message and optional cause.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// TimeoutError represents a run that exceeded its time budget. It captures
// the operation name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// ValidationError represents an input validation failure. It identifies which
// field failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// CapabilityError reports that the native runtime, or a feature it must
// provide, is missing. The dispatcher recovers from it locally by forcing the
// fallback path; it is never returned to callers of Execute.
type CapabilityError struct {
	// Feature is the capability that was probed. Empty means the module itself.
	Feature string
	// Reason describes why the capability is unavailable.
	Reason string
	// Cause is the underlying load error, if any.
	Cause error
}

// Error returns a formatted message describing the missing capability.
func (e *CapabilityError) Error() string {
	subject := "native module"
	if e.Feature != "" {
		subject = fmt.Sprintf("native feature %q", e.Feature)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s unavailable: %s: %v", subject, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s unavailable: %s", subject, e.Reason)
}

// Unwrap returns the underlying load error.
func (e *CapabilityError) Unwrap() error { return e.Cause }

// NativeExecutionError reports that a native call raised, panicked, or
// returned data that could not be converted back. It carries the operation
// key and the tier that selected the native path so the warning emitted by
// the safety wrapper is self-describing.
type NativeExecutionError struct {
	Key   operation.Key
	Tier  string
	Cause error
}

// Error returns a formatted message describing the native failure.
func (e *NativeExecutionError) Error() string {
	return fmt.Sprintf("native execution of %s failed (tier %s): %v", e.Key, e.Tier, e.Cause)
}

// Unwrap returns the underlying native failure.
func (e *NativeExecutionError) Unwrap() error { return e.Cause }

// InvalidInputError reports that an input violates an operation's
// preconditions in a way the fallback cannot handle either. It is the only
// error class in the dispatch core that reaches the caller.
type InvalidInputError struct {
	Operation string
	Message   string
}

// Error returns a formatted message describing the invalid input.
func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input for %s: %s", e.Operation, e.Message)
}

// NewInvalidInputError creates an InvalidInputError with a formatted message.
func NewInvalidInputError(op, format string, a ...any) error {
	return &InvalidInputError{Operation: op, Message: fmt.Sprintf(format, a...)}
}

// HybridStageError reports which stage of a hybrid pipeline failed. The
// hybrid accelerator discards all partial results when it sees one.
type HybridStageError struct {
	// Stage is one of "preprocess", "core" or "postprocess".
	Stage string
	Cause error
}

// Error returns a formatted message naming the failed stage.
func (e *HybridStageError) Error() string {
	return fmt.Sprintf("hybrid %s stage failed: %v", e.Stage, e.Cause)
}

// Unwrap returns the stage's underlying error.
func (e *HybridStageError) Unwrap() error { return e.Cause }

// IsRecoverable reports whether err belongs to a class the dispatcher absorbs
// by running the fallback path (capability, native execution, hybrid stage).
func IsRecoverable(err error) bool {
	var capErr *CapabilityError
	var nativeErr *NativeExecutionError
	var stageErr *HybridStageError
	return errors.As(err, &capErr) || errors.As(err, &nativeErr) || errors.As(err, &stageErr)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Returns nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
