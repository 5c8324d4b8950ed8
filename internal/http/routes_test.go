package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/cinema-ui/internal/service"
)

func TestNewRouter_RequiresServices(t *testing.T) {
	_, err := NewRouter(RouterServices{Catalog: &fakeCatalog{}})
	require.Error(t, err)

	_, err = NewRouter(RouterServices{Auth: signedOut()})
	require.Error(t, err)
}

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(t, signedOut(), &fakeCatalog{})

	rec := getPage(h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = serve(h, httptest.NewRequest(http.MethodHead, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestRouter_Metrics(t *testing.T) {
	h := newTestRouter(t, signedOut(), &fakeCatalog{})
	getPage(h, "/healthz")

	rec := getPage(h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	off := newTestRouter(t, signedOut(), &fakeCatalog{}, func(rs *RouterServices) { rs.MetricsEnabled = false })
	rec = getPage(off, "/metrics")
	assert.Equal(t, http.StatusSeeOther, rec.Code, "without metrics the path falls through to the gate")
}

func TestRouter_StaticFiles(t *testing.T) {
	h := newTestRouter(t, signedOut(), &fakeCatalog{})

	rec := getPage(h, "/static/css/styles.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))

	rec = getPage(h, "/static/js/missing.js")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaticCacheHeaders(t *testing.T) {
	h := staticWithCacheHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	tests := []struct {
		path string
		want string
	}{
		{"/static/js/app.1a2b3c4d.js", "public, max-age=31536000, immutable"},
		{"/static/css/styles.deadbeef.css.map", "public, max-age=31536000, immutable"},
		{"/static/js/app.js", "no-cache, no-store, must-revalidate"},
		{"/static/js/app.XYZ12345.js", "no-cache, no-store, must-revalidate"},
	}
	for _, tt := range tests {
		rec := serve(h, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.want, rec.Header().Get("Cache-Control"), tt.path)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	h := newTestRouter(t, signedOut(), &fakeCatalog{})

	r := newFormRequest("/movie/1", nil)
	rec := serve(h, r)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_RecoversFromPanics(t *testing.T) {
	h := newTestRouter(t, &panickyAuth{signedOut()}, &fakeCatalog{})

	rec := getPage(h, "/movie/1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type panickyAuth struct{ *stubAuth }

func (*panickyAuth) Resolve(context.Context, string) (service.State, error) { panic("session store exploded") }
