package errors

import (
	"context"
	"errors"
	"net/http"
)

// Error codes emitted by the booking API in its response envelope.
const (
	APICodeUsernameExists    = "USERNAME_ALREADY_EXISTS"
	APICodeEmailExists       = "EMAIL_ALREADY_EXISTS"
	APICodeInvalidCredential = "INVALID_CREDENTIAL"
	APICodeInvalidRole       = "INVALID_ROLE"
	APICodeUserNotFound      = "USER_NOT_FOUND"
	APICodeInvalidID         = "INVALID_ID"
)

// MapContextError maps context timeouts and cancellations to AppError instances
// and returns any other error unchanged.
func MapContextError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out. Please try again.",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "Request was canceled.",
			Cause:   err,
		}
	}
	return err
}

// FromUpstream maps a failed API response to an AppError. The API error code
// takes precedence over the HTTP status when it is recognized.
// The message is carried through so it can be shown to the user.
func FromUpstream(status int, apiCode, message string, cause error) *AppError {
	appErr := &AppError{Message: message, Cause: cause}

	switch apiCode {
	case APICodeUsernameExists:
		appErr.Code, appErr.Field = ErrCodeConflict, "username"
		return appErr
	case APICodeEmailExists:
		appErr.Code, appErr.Field = ErrCodeConflict, "email"
		return appErr
	case APICodeInvalidCredential:
		appErr.Code = ErrCodeUnauthorized
		return appErr
	case APICodeInvalidRole:
		appErr.Code, appErr.Field = ErrCodeValidation, "role"
		return appErr
	case APICodeUserNotFound, APICodeInvalidID:
		appErr.Code = ErrCodeNotFound
		return appErr
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		appErr.Code = ErrCodeUnauthorized
	case status == http.StatusNotFound:
		appErr.Code = ErrCodeNotFound
	case status == http.StatusConflict:
		appErr.Code = ErrCodeConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		appErr.Code = ErrCodeValidation
	case status == http.StatusTooManyRequests:
		appErr.Code = ErrCodeRateLimited
	case status == http.StatusGatewayTimeout || status == http.StatusRequestTimeout:
		appErr.Code = ErrCodeTimeout
	default:
		appErr.Code = ErrCodeUpstream
	}
	return appErr
}

// IsRetryable reports whether an error may succeed on a later attempt.
// Client-side failures (validation, auth, not found, conflicts) are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodeConflict, ErrCodeValidation, ErrCodeUnauthorized, ErrCodeCanceled:
		return false
	default:
		return true
	}
}
