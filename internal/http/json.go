package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/target/cinema-ui/internal/errors"
)

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// client went away
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes {"error": code, "message": msg}.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	msg := http.StatusText(p.Code)
	if p.Err != nil {
		msg = p.Err.Error()
	}
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": msg})
}

// WriteAppError writes err with the status derived from its AppError code.
// Only the AppError message is exposed, never the cause.
func WriteAppError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	status := StatusForError(err)
	msg := http.StatusText(status)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		msg = appErr.Message
	}
	WriteJSON(w, status, map[string]string{"error": string(code), "message": msg})
}

// StatusForError maps an error's AppError code to an HTTP status.
func StatusForError(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case apperrors.ErrCodeUpstream:
		return http.StatusBadGateway
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
