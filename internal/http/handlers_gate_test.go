package httpx

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/cinema-ui/internal/domain/catalog"
	apperrors "github.com/target/cinema-ui/internal/errors"
	"github.com/target/cinema-ui/internal/service"
)

func TestGate_SignedOutRedirects(t *testing.T) {
	h := newTestRouter(t, signedOut(), &fakeCatalog{})

	tests := []struct {
		name     string
		target   string
		location string
	}{
		{"home", "/", "/login"},
		{"movie", "/movie/7", "/login?redirect_uri=%2Fmovie%2F7"},
		{"booking with query", "/booking/3?screening=5", "/login?redirect_uri=%2Fbooking%2F3%3Fscreening%3D5"},
		{"unknown", "/nowhere", "/login?redirect_uri=%2Fnowhere"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := getPage(h, tt.target)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestGate_SignedOutHTMXUsesHXRedirect(t *testing.T) {
	h := newTestRouter(t, signedOut(), &fakeCatalog{})

	rec := getPage(h, "/movie/7", viaHTMX)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/login?redirect_uri=%2Fmovie%2F7", rec.Header().Get("Hx-Redirect"))
}

func TestGate_LoginPage(t *testing.T) {
	h := newTestRouter(t, signedOut(), &fakeCatalog{})

	rec := getPage(h, "/login?redirect_uri=/movie/2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	body := rec.Body.String()
	assert.True(t, ContainsAll(body, []string{
		`<form method="post" action="/login"`,
		`name="redirect_uri" value="/movie/2"`,
		`href="/register"`,
		"Đăng nhập",
	}), body)
	assert.NotNil(t, responseCookie(rec, DefaultCSRFCookieName), "first visit mints a CSRF cookie")
}

func TestGate_LoginPageDropsForeignRedirect(t *testing.T) {
	h := newTestRouter(t, signedOut(), &fakeCatalog{})

	rec := getPage(h, "/login?redirect_uri=https://evil.example/x")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="redirect_uri" value="/"`)
}

func TestGate_SignedInLeavesAuthPages(t *testing.T) {
	h := newTestRouter(t, signedIn(), &fakeCatalog{})

	for _, target := range []string{"/login", "/register", "/no/such/page"} {
		rec := getPage(h, target, withSessionCookie)
		assert.Equal(t, http.StatusSeeOther, rec.Code, target)
		assert.Equal(t, "/", rec.Header().Get("Location"), target)
	}
}

func TestGate_RestoringShowsLoading(t *testing.T) {
	h := newTestRouter(t, restoring(), &fakeCatalog{})

	rec := getPage(h, "/movie/1", withSessionCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<meta http-equiv="refresh" content="2">`)
	assert.Contains(t, body, "loading-screen")
	assert.NotContains(t, body, "hx-trigger=\"load delay", "full loads poll with a meta refresh")
	for _, chrome := range []string{"navbar", `href="/login"`, `href="/register"`, "site-footer"} {
		assert.NotContains(t, body, chrome, "a restoring session sees only the loading indicator")
	}

	rec = getPage(h, "/movie/1", withSessionCookie, viaHTMX)
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, `hx-get="/movie/1"`)
	assert.Contains(t, body, `hx-trigger="load delay:1500ms"`)
	assert.NotContains(t, body, "<!DOCTYPE html>")
	assert.NotContains(t, body, `href="/login"`)
	assert.NotContains(t, body, "navbar")
}

func TestGate_Home(t *testing.T) {
	cat := &fakeCatalog{}
	h := newTestRouter(t, signedIn(), cat)

	rec := getPage(h, "/", withSessionCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Phim đang chiếu")
	assert.Contains(t, body, `hx-get="/fragments/movies"`)
	assert.Equal(t, service.HomePageSize, strings.Count(body, "movie-card--skeleton"))
	assert.Contains(t, body, "Xin chào, alice")
	assert.NotContains(t, body, `class="navbar"`, "home renders its own header")
}

func TestGate_HomeCarriesQueryToGrid(t *testing.T) {
	h := newTestRouter(t, signedIn(), &fakeCatalog{})

	rec := getPage(h, "/?q=dune&page=2", withSessionCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `hx-get="/fragments/movies?page=2&amp;q=dune"`)

	rec = getPage(h, "/?q=ab", withSessionCookie)
	assert.Contains(t, rec.Body.String(), "Nhập nhiều hơn 2 ký tự")
}

func TestGate_HTMXNavigationRendersPartial(t *testing.T) {
	h := newTestRouter(t, signedIn(), &fakeCatalog{
		detail: service.MovieDetailData{Movie: catalog.Movie{ID: 7, Title: "Dune"}},
	})

	rec := getPage(h, "/movie/7", withSessionCookie, viaHTMX)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "<title>Dune | Movie Booking</title>")
	assert.Contains(t, body, `hx-swap-oob="outerHTML"`)
	assert.JSONEq(t, `{"nav:activate":{"path":"/movie/7"}}`, rec.Header().Get("Hx-Trigger"))
}

func TestGate_MovieDetail(t *testing.T) {
	cat := &fakeCatalog{detail: service.MovieDetailData{
		Movie: catalog.Movie{
			ID:       7,
			Title:    "Dune",
			Genres:   "Sci-Fi, Drama",
			Duration: "155",
			Director: "Denis Villeneuve",
		},
		Screenings: []catalog.Screening{{
			ID:             11,
			StartTime:      "2026-10-15T19:30:00",
			Format:         catalog.FormatIMAX,
			Status:         catalog.ScreeningActive,
			AuditoriumName: "Phòng 1",
		}},
	}}
	h := newTestRouter(t, signedIn(), cat)

	rec := getPage(h, "/movie/7", withSessionCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, ContainsAll(body, []string{
		`aria-current="page">Dune</span>`,
		"Sci-Fi, Drama",
		"2 giờ 35 phút",
		"Denis Villeneuve",
		`href="/booking/7?screening=11"`,
		"15/10/2026",
		"19:30",
	}), body)

	assert.Equal(t, int64(7), cat.movieID)
	assert.Equal(t, "tok-1", cat.token, "catalog calls carry the session credentials")
}

func TestGate_MovieDetailScreeningsError(t *testing.T) {
	h := newTestRouter(t, signedIn(), &fakeCatalog{detail: service.MovieDetailData{
		Movie:         catalog.Movie{ID: 7, Title: "Dune"},
		ScreeningsErr: errors.New("upstream down"),
	}})

	rec := getPage(h, "/movie/7", withSessionCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), errMsgLoadFailed)
	assert.Contains(t, rec.Body.String(), "Dune")
}

func TestGate_MovieDetailNotFound(t *testing.T) {
	h := newTestRouter(t, signedIn(), &fakeCatalog{detailErr: apperrors.NotFoundf("movie %d not found", 9)})

	rec := getPage(h, "/movie/9", withSessionCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "<code>/movie/9</code>")

	rec = getPage(h, "/movie/9", withSessionCookie, viaHTMX)
	assert.Equal(t, http.StatusOK, rec.Code, "htmx swaps need a 2xx")

	rec = getPage(h, "/movie/abc", withSessionCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGate_MovieDetailLoadFailure(t *testing.T) {
	h := newTestRouter(t, signedIn(), &fakeCatalog{detailErr: errors.New("connection refused")})

	rec := getPage(h, "/movie/7", withSessionCookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), errMsgLoadFailed)
}

func TestGate_Booking(t *testing.T) {
	sel := catalog.Screening{ID: 11, StartTime: "2026-10-15T19:30:00", Status: catalog.ScreeningActive}
	cat := &fakeCatalog{booking: service.BookingData{
		Movie: catalog.Movie{ID: 7, Title: "Dune"},
		Showtimes: []service.Showtime{
			{Label: "19:30", Format: "IMAX", ScreeningID: 11, Selected: true, Bookable: true},
			{Label: "22:00", Format: "2D", ScreeningID: 12, Bookable: false},
		},
		Selected: &sel,
	}}
	h := newTestRouter(t, signedIn(), cat)

	rec := getPage(h, "/booking/7?screening=11", withSessionCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, ContainsAll(body, []string{
		`class="breadcrumb-link" href="/movie/7"`,
		`aria-current="page">Đặt vé</span>`,
		`hx-get="/fragments/seats/11"`,
		"showtime--selected",
		"showtime--disabled",
		"90.000",
		"180.000",
	}), body)
	assert.Equal(t, int64(7), cat.movieID)
	assert.Equal(t, int64(11), cat.screeningID)
}

func TestGate_BookingFallbackShowtimes(t *testing.T) {
	h := newTestRouter(t, signedIn(), &fakeCatalog{booking: service.BookingData{
		Movie: catalog.Movie{ID: 7, Title: "Dune"},
		Showtimes: []service.Showtime{
			{Label: "10:00"}, {Label: "13:00"}, {Label: "16:00"}, {Label: "19:00"},
		},
		Fallback: true,
	}})

	rec := getPage(h, "/booking/7", withSessionCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Giờ chiếu dự kiến")
	assert.Equal(t, 4, strings.Count(body, "showtime--disabled"))
	assert.NotContains(t, body, "/fragments/seats/")
}
