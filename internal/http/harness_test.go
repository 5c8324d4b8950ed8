package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/target/cinema-ui/internal/apiclient"
	domainauth "github.com/target/cinema-ui/internal/domain/auth"
	apperrors "github.com/target/cinema-ui/internal/errors"
	"github.com/target/cinema-ui/internal/http/ui/viewmodel"
	"github.com/target/cinema-ui/internal/service"
)

const (
	harnessCSRF      = "harness-csrf-token"
	harnessSessionID = "sess-1"
)

var harnessPrices = viewmodel.SeatPrices{Normal: 90000, Sweetbox: 180000}

// stubAuth resolves every request to a fixed state.
type stubAuth struct {
	state service.State
	err   error

	mu        sync.Mutex
	loggedOut []string
}

func (s *stubAuth) Resolve(context.Context, string) (service.State, error) { return s.state, s.err }

func (s *stubAuth) Login(context.Context, domainauth.LoginRequest) (*domainauth.Session, error) {
	return nil, apperrors.Internal("login not expected")
}

func (s *stubAuth) Register(context.Context, domainauth.RegisterRequest) (*domainauth.Session, error) {
	return nil, apperrors.Internal("register not expected")
}

func (s *stubAuth) Logout(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedOut = append(s.loggedOut, id)
	return nil
}

func (s *stubAuth) Credentials(sess domainauth.Session) apiclient.Credentials {
	return apiclient.StaticToken(sess.AccessToken)
}

func signedIn() *stubAuth {
	sess := &domainauth.Session{
		ID:          harnessSessionID,
		AccessToken: "tok-1",
		User:        domainauth.User{ID: 1, Username: "alice", Email: "alice@example.com", Role: domainauth.RoleCustomer},
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	return &stubAuth{state: service.State{Status: domainauth.StatusAuthenticated, Session: sess}}
}

func signedOut() *stubAuth {
	return &stubAuth{state: service.State{Status: domainauth.StatusUnauthenticated}}
}

func restoring() *stubAuth {
	return &stubAuth{state: service.State{Status: domainauth.StatusChecking}}
}

// fakeCatalog returns canned data and records what it was asked for.
type fakeCatalog struct {
	home       service.HomeData
	homeErr    error
	detail     service.MovieDetailData
	detailErr  error
	booking    service.BookingData
	bookingErr error
	seats      service.SeatMapData
	seatsErr   error

	mu          sync.Mutex
	homeQuery   service.HomeQuery
	movieID     int64
	screeningID int64
	token       string
}

func (f *fakeCatalog) observe(ctx context.Context) {
	if c := apiclient.CredentialsFrom(ctx); c != nil {
		f.token = c.AccessToken()
	}
}

func (f *fakeCatalog) Home(ctx context.Context, q service.HomeQuery) (service.HomeData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observe(ctx)
	f.homeQuery = q
	return f.home, f.homeErr
}

func (f *fakeCatalog) MovieDetail(ctx context.Context, id int64) (service.MovieDetailData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observe(ctx)
	f.movieID = id
	return f.detail, f.detailErr
}

func (f *fakeCatalog) Booking(ctx context.Context, movieID, screeningID int64) (service.BookingData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observe(ctx)
	f.movieID, f.screeningID = movieID, screeningID
	return f.booking, f.bookingErr
}

func (f *fakeCatalog) SeatMap(ctx context.Context, id int64) (service.SeatMapData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observe(ctx)
	f.screeningID = id
	return f.seats, f.seatsErr
}

func newTestRouter(t *testing.T, auth AuthService, catalog CatalogService, opts ...func(*RouterServices)) http.Handler {
	t.Helper()
	SkipIfNoTemplates(t)

	rs := RouterServices{
		Auth:           auth,
		Catalog:        catalog,
		Prices:         harnessPrices,
		RestorePoll:    1500 * time.Millisecond,
		LoginRate:      100,
		LoginBurst:     100,
		MetricsEnabled: true,
		Logger:         slog.New(slog.DiscardHandler),
		TemplateFS:     os.DirFS(TemplatePathFromTest),
		StaticFS:       os.DirFS(StaticPathFromTest),
	}
	for _, o := range opts {
		o(&rs)
	}
	h, err := NewRouter(rs)
	require.NoError(t, err)
	return h
}

type reqOpt func(*http.Request)

func withSessionCookie(r *http.Request) {
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: harnessSessionID})
}

func withCookie(c *http.Cookie) reqOpt {
	return func(r *http.Request) { r.AddCookie(c) }
}

func viaHTMX(r *http.Request) { AsHTMX(r, true) }

func serve(h http.Handler, r *http.Request, opts ...reqOpt) *httptest.ResponseRecorder {
	for _, o := range opts {
		o(r)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func getPage(h http.Handler, target string, opts ...reqOpt) *httptest.ResponseRecorder {
	return serve(h, httptest.NewRequest(http.MethodGet, target, nil), opts...)
}

// postForm submits form with a valid double-submit CSRF token.
func postForm(h http.Handler, target string, form url.Values, opts ...reqOpt) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	form.Set(DefaultCSRFCookieName, harnessCSRF)
	r := newFormRequest(target, form)
	r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: harnessCSRF})
	return serve(h, r, opts...)
}

func newFormRequest(target string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
