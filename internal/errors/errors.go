// Package errors defines the typed error taxonomy for prlens.
//
// Every pipeline stage fails with an *AppError carrying a stable code so the
// CLI can surface a clear failure category and pick a deterministic exit code.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a failure category.
type ErrorCode string

const (
	// ErrCodeConfiguration covers bad filter patterns, invalid bounds, and
	// any other rejected configuration before the pipeline starts.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"

	// Diff source failures.
	ErrCodeSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeAccessDenied      ErrorCode = "ACCESS_DENIED"

	// ErrCodeNoReviewableContent means filtering left nothing to review.
	ErrCodeNoReviewableContent ErrorCode = "NO_REVIEWABLE_CONTENT"

	// Completion endpoint failures, including a blank reply body.
	ErrCodeCompletionFailure ErrorCode = "COMPLETION_FAILURE"

	// ErrCodeUnparsableResponse means no JSON array was found in the model
	// reply, the JSON was invalid, or no record survived validation.
	ErrCodeUnparsableResponse ErrorCode = "UNPARSABLE_RESPONSE"

	// ErrCodeRender should not occur for validated input.
	ErrCodeRender ErrorCode = "RENDER_ERROR"

	ErrCodeInternal ErrorCode = "INTERNAL"
)

// AppError is an error with a stable category code.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New creates an AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates an AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Wrapf attaches a code and a formatted message to an underlying error.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the error's category code, walking the wrap chain.
// Unclassified errors report ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var app *AppError
	if errors.As(err, &app) {
		return app.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var app *AppError
	if errors.As(err, &app) {
		return app.Code == code
	}
	return false
}

// Convenience constructors for the common pipeline failures.

// Configuration creates a configuration error.
func Configuration(message string) *AppError {
	return New(ErrCodeConfiguration, message)
}

// SourceUnavailable wraps a diff source failure.
func SourceUnavailable(err error) *AppError {
	return Wrap(err, ErrCodeSourceUnavailable, "diff source unavailable")
}

// NoReviewableContent creates the empty-filter-result error.
func NoReviewableContent() *AppError {
	return New(ErrCodeNoReviewableContent, "no changes matched the filter criteria")
}

// CompletionFailure wraps a completion endpoint failure.
func CompletionFailure(err error) *AppError {
	return Wrap(err, ErrCodeCompletionFailure, "completion request failed")
}
