package errors

import (
	"errors"
	"fmt"
)

// ErrorType tags an application error with the pipeline failure mode it belongs to.
type ErrorType string

const (
	// ErrorTypeNoHandler indicates no strategy is registered for an event type.
	// Fatal for the submission; never retried.
	ErrorTypeNoHandler ErrorType = "NO_HANDLER"
	// ErrorTypeProcessing indicates a handler's unit of work failed.
	ErrorTypeProcessing ErrorType = "PROCESSING"
	// ErrorTypeObserver indicates an observer update failed. Always logged at the
	// point of occurrence and never propagated.
	ErrorTypeObserver ErrorType = "OBSERVER"
	// ErrorTypeBatchExecution indicates at least one event in a batch exhausted
	// its retries.
	ErrorTypeBatchExecution ErrorType = "BATCH_EXECUTION"
	// ErrorTypeNotFound indicates a record was not found.
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	// ErrorTypeInternal indicates an internal error.
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new application error
func New(errorType ErrorType, message string) error {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

// Wrap wraps an error with an application error
func Wrap(errorType ErrorType, message string, err error) error {
	return &AppError{
		Type:    errorType,
		Message: message,
		Err:     err,
	}
}

// NoHandler creates an error for an event type with no registered strategy.
func NoHandler(eventType string) error {
	return New(ErrorTypeNoHandler, fmt.Sprintf("no handler registered for event type %q", eventType))
}

// Processing wraps a handler failure.
func Processing(message string, err error) error {
	return Wrap(ErrorTypeProcessing, message, err)
}

// Observer wraps an observer update failure.
func Observer(message string, err error) error {
	return Wrap(ErrorTypeObserver, message, err)
}

// BatchExecution wraps the first failure of a batch job.
func BatchExecution(message string, err error) error {
	return Wrap(ErrorTypeBatchExecution, message, err)
}

// NotFound creates a not found error
func NotFound(message string) error {
	return New(ErrorTypeNotFound, message)
}

// Internal creates an internal error
func Internal(message string) error {
	return New(ErrorTypeInternal, message)
}

func is(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsNoHandler checks if an error is a missing-handler error.
func IsNoHandler(err error) bool { return is(err, ErrorTypeNoHandler) }

// IsProcessing checks if an error is a handler processing error.
func IsProcessing(err error) bool { return is(err, ErrorTypeProcessing) }

// IsBatchExecution checks if an error is an aggregate batch failure.
func IsBatchExecution(err error) bool { return is(err, ErrorTypeBatchExecution) }

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool { return is(err, ErrorTypeNotFound) }
