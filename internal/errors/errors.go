// Package errors defines the application error type shared by the API
// client, services and HTTP handlers. Codes are coarse categories; handlers
// map them to status codes and Vietnamese messages.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	ErrCodeNotFound   ErrorCode = "not_found"
	ErrCodeConflict   ErrorCode = "conflict" // e.g. username or email already registered
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeUnauthorized covers missing, expired and rejected credentials alike.
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	ErrCodeRateLimited  ErrorCode = "rate_limited"
	// ErrCodeUpstream means the booking API failed or could not be reached.
	ErrCodeUpstream ErrorCode = "upstream"
	ErrCodeInternal ErrorCode = "internal"
	ErrCodeTimeout  ErrorCode = "timeout"
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError carries a code, a message fit for the user, and optionally the
// form field it concerns and the underlying cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Field   string
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func newError(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// NotFound creates a NotFound error.
func NotFound(message string) *AppError { return newError(ErrCodeNotFound, message) }

// NotFoundf creates a NotFound error with a formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return newError(ErrCodeNotFound, fmt.Sprintf(format, args...))
}

// Validation creates a Validation error.
func Validation(message string) *AppError { return newError(ErrCodeValidation, message) }

// Validationf creates a Validation error with a formatted message.
func Validationf(format string, args ...any) *AppError {
	return newError(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// ValidationField creates a Validation error attached to a form field.
func ValidationField(field, message string) *AppError {
	e := newError(ErrCodeValidation, message)
	e.Field = field
	return e
}

// Unauthorized creates an Unauthorized error.
func Unauthorized(message string) *AppError { return newError(ErrCodeUnauthorized, message) }

// RateLimited creates a RateLimited error.
func RateLimited(message string) *AppError { return newError(ErrCodeRateLimited, message) }

// Upstreamf creates an Upstream error with a formatted message.
func Upstreamf(format string, args ...any) *AppError {
	return newError(ErrCodeUpstream, fmt.Sprintf(format, args...))
}

// Internal creates an Internal error.
func Internal(message string) *AppError { return newError(ErrCodeInternal, message) }

// Wrap attaches code and message to err. A nil err stays nil.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// GetCode returns the code of the first AppError in err's chain, or "".
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the form field of the first AppError in err's chain, or "".
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

func IsNotFound(err error) bool     { return GetCode(err) == ErrCodeNotFound }
func IsConflict(err error) bool     { return GetCode(err) == ErrCodeConflict }
func IsValidation(err error) bool   { return GetCode(err) == ErrCodeValidation }
func IsUnauthorized(err error) bool { return GetCode(err) == ErrCodeUnauthorized }
func IsUpstream(err error) bool     { return GetCode(err) == ErrCodeUpstream }
func IsCanceled(err error) bool     { return GetCode(err) == ErrCodeCanceled }
