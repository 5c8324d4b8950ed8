package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMXHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, IsHTMX(r))
	assert.False(t, WantsPartial(r))

	r.Header.Set("Hx-Request", "TRUE")
	r.Header.Set("Hx-Boosted", "true")
	assert.True(t, IsHTMX(r))
	assert.True(t, IsBoosted(r))
	assert.True(t, WantsPartial(r))
}

func TestSetHXTrigger(t *testing.T) {
	rec := httptest.NewRecorder()
	SetHXTrigger(rec, "nav:activate", map[string]string{"path": "/movie/1"})
	assert.JSONEq(t, `{"nav:activate":{"path":"/movie/1"}}`, rec.Header().Get("Hx-Trigger"))

	rec = httptest.NewRecorder()
	SetHXTrigger(rec, "refresh", nil)
	assert.JSONEq(t, `{"refresh":true}`, rec.Header().Get("Hx-Trigger"))

	rec = httptest.NewRecorder()
	SetHXTrigger(rec, "bad", make(chan int))
	assert.Equal(t, `{"bad":true}`, rec.Header().Get("Hx-Trigger"))
}

func TestRedirect(t *testing.T) {
	rec := httptest.NewRecorder()
	redirect(rec, httptest.NewRequest(http.MethodGet, "/booking/1", nil), "/login")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	r := httptest.NewRequest(http.MethodGet, "/fragments/movies", nil)
	r.Header.Set("Hx-Request", "true")
	rec = httptest.NewRecorder()
	redirect(rec, r, "/login")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Hx-Redirect"))
	assert.Empty(t, rec.Header().Get("Location"))
}
