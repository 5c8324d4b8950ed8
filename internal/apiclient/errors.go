package apiclient

import (
	"errors"
	"fmt"

	apperrors "github.com/target/cinema-ui/internal/errors"
)

// ErrSessionExpired is returned when the API rejected the access token and
// the refresh token could not replace it. Callers should drop the session.
var ErrSessionExpired = &apperrors.AppError{
	Code:    apperrors.ErrCodeUnauthorized,
	Message: "Phiên đăng nhập đã hết hạn",
}

// StatusError describes a non-2xx response from the API.
type StatusError struct {
	Endpoint string
	Status   int
	Code     string // errorCode from the envelope, if any
	Message  string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s failed (status %d, %s): %s", e.Endpoint, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s failed (status %d): %s", e.Endpoint, e.Status, e.Message)
}

// AsStatusError extracts a *StatusError from err's chain.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// UserMessage returns the message to show a user for err, falling back to
// fallback when err carries none.
func UserMessage(err error, fallback string) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// AsAppError returns the *errors.AppError in err's chain, wrapping err as an
// upstream error when there is none.
func AsAppError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Wrap(err, apperrors.ErrCodeUpstream, "booking API request failed")
}
