package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serveHealth(checks map[string]HealthCheck, method string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	healthHandler(checks)(rec, httptest.NewRequest(method, "/healthz", nil))
	return rec
}

func TestHealthHandler_NoChecks(t *testing.T) {
	rec := serveHealth(nil, http.MethodGet)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthHandler_AllPassing(t *testing.T) {
	rec := serveHealth(map[string]HealthCheck{
		"redis": func(context.Context) error { return nil },
	}, http.MethodGet)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"redis":"ok"}}`, rec.Body.String())
}

func TestHealthHandler_FailingDependency(t *testing.T) {
	checks := map[string]HealthCheck{
		"redis":   func(context.Context) error { return errors.New("dial tcp: connection refused") },
		"session": func(context.Context) error { return nil },
	}

	rec := serveHealth(checks, http.MethodGet)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"redis":"unavailable","session":"ok"}}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "connection refused", "causes stay out of the response")

	rec = serveHealth(checks, http.MethodHead)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestHealthHandler_ChecksHaveDeadline(t *testing.T) {
	rec := serveHealth(map[string]HealthCheck{
		"redis": func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return nil
		},
	}, http.MethodGet)
	assert.Equal(t, http.StatusOK, rec.Code)
}
