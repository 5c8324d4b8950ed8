package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/cinema-ui/internal/apiclient"
	domainauth "github.com/target/cinema-ui/internal/domain/auth"
	apperrors "github.com/target/cinema-ui/internal/errors"
	mocks "github.com/target/cinema-ui/internal/mocks/auth"
	"github.com/target/cinema-ui/internal/observability/metrics"
	"github.com/target/cinema-ui/internal/testutil"
)

const testPassword = "secret123"

type authFixture struct {
	svc      *AuthService
	api      *mocks.FakeAuthAPI
	sessions *mocks.MemorySessionStore
	clock    *testutil.Clock
	user     domainauth.User
}

func newAuthFixture(t *testing.T, mutate ...func(*AuthServiceOptions)) *authFixture {
	t.Helper()
	api := mocks.NewFakeAuthAPI()
	user := api.AddUser(domainauth.User{Username: "alice", Email: "alice@example.com"}, testPassword)
	sessions := mocks.NewMemorySessionStore()
	clock := testutil.NewClock(testutil.TestTime())

	opts := AuthServiceOptions{
		API:         api,
		Sessions:    sessions,
		RestoreWait: time.Second,
		Now:         clock.Now,
	}
	for _, m := range mutate {
		m(&opts)
	}
	return &authFixture{svc: NewAuthService(opts), api: api, sessions: sessions, clock: clock, user: user}
}

func (f *authFixture) login(t *testing.T) *domainauth.Session {
	t.Helper()
	sess, err := f.svc.Login(context.Background(), domainauth.LoginRequest{Email: f.user.Email, Password: testPassword})
	require.NoError(t, err)
	return sess
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)

	sess := f.login(t)

	assert.NotEmpty(t, sess.ID)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)
	assert.Equal(t, f.user.ID, sess.User.ID)
	// fake tokens carry no exp claim, so expiresIn is used
	assert.Equal(t, f.clock.Now().Add(900*time.Second), sess.AccessExpiresAt)
	assert.Equal(t, f.clock.Now().Add(defaultSessionTTL), sess.ExpiresAt)

	stored, err := f.sessions.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, *sess, stored)
}

func TestAuthService_Login_Failures(t *testing.T) {
	tests := []struct {
		name     string
		req      domainauth.LoginRequest
		loginFn  func(context.Context, domainauth.LoginRequest) (domainauth.AuthResponse, error)
		wantCode apperrors.ErrorCode
		wantMsg  string
	}{
		{
			name:     "missing password",
			req:      domainauth.LoginRequest{Email: "alice@example.com"},
			wantCode: apperrors.ErrCodeValidation,
			wantMsg:  msgMissingCredential,
		},
		{
			name:     "wrong password keeps API message",
			req:      domainauth.LoginRequest{Email: "alice@example.com", Password: "nope"},
			wantCode: apperrors.ErrCodeUnauthorized,
			wantMsg:  "Email hoặc mật khẩu không đúng",
		},
		{
			name: "upstream failure gets generic message",
			req:  domainauth.LoginRequest{Email: "alice@example.com", Password: testPassword},
			loginFn: func(context.Context, domainauth.LoginRequest) (domainauth.AuthResponse, error) {
				return domainauth.AuthResponse{}, apperrors.Upstreamf("connection refused")
			},
			wantCode: apperrors.ErrCodeUpstream,
			wantMsg:  msgLoginFailed,
		},
		{
			name: "response without tokens",
			req:  domainauth.LoginRequest{Email: "alice@example.com", Password: testPassword},
			loginFn: func(context.Context, domainauth.LoginRequest) (domainauth.AuthResponse, error) {
				return domainauth.AuthResponse{}, nil
			},
			wantCode: apperrors.ErrCodeInternal,
			wantMsg:  msgLoginFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			f.api.LoginFunc = tt.loginFn

			sess, err := f.svc.Login(context.Background(), tt.req)

			require.Error(t, err)
			assert.Nil(t, sess)
			assert.Equal(t, tt.wantCode, apperrors.GetCode(err))
			assert.Equal(t, tt.wantMsg, apiclient.UserMessage(err, ""))
			assert.Zero(t, f.sessions.Len())
		})
	}
}

func TestAuthService_Register_LogsIn(t *testing.T) {
	f := newAuthFixture(t)

	sess, err := f.svc.Register(context.Background(), domainauth.RegisterRequest{
		Username: " bob ",
		Email:    "bob@example.com",
		Password: testPassword,
	})

	require.NoError(t, err)
	assert.Equal(t, "bob", sess.User.Username)
	assert.NotEmpty(t, sess.AccessToken)
	assert.Equal(t, 1, f.api.Calls("Register"))
	assert.Equal(t, 1, f.api.Calls("Login"))
	assert.Equal(t, 1, f.sessions.Len())
}

func TestAuthService_Register_Failures(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), domainauth.RegisterRequest{Email: "x@example.com", Password: "p"})
	require.Error(t, err)
	assert.Equal(t, "username", apperrors.GetField(err))

	_, err = f.svc.Register(context.Background(), domainauth.RegisterRequest{
		Username: "alice2",
		Email:    f.user.Email,
		Password: testPassword,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, "Email đã được sử dụng", apiclient.UserMessage(err, ""))
	assert.Zero(t, f.api.Calls("Login"))
}

func TestAuthService_Resolve_NoSession(t *testing.T) {
	f := newAuthFixture(t)

	for _, id := range []string{"", "unknown"} {
		state, err := f.svc.Resolve(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domainauth.StatusUnauthenticated, state.Status)
		assert.Nil(t, state.User())
	}
}

func TestAuthService_Resolve_FreshSessionSkipsAPI(t *testing.T) {
	f := newAuthFixture(t)
	sess := f.login(t)
	f.clock.Advance(time.Minute)

	state, err := f.svc.Resolve(context.Background(), sess.ID)

	require.NoError(t, err)
	assert.Equal(t, domainauth.StatusAuthenticated, state.Status)
	assert.Equal(t, "alice", state.User().Username)
	assert.Zero(t, f.api.Calls("GetUser"))
}

func TestAuthService_Resolve_VerifiesStaleSession(t *testing.T) {
	f := newAuthFixture(t)
	sess := f.login(t)
	f.clock.Advance(defaultVerifyInterval + time.Second)

	state, err := f.svc.Resolve(context.Background(), sess.ID)

	require.NoError(t, err)
	assert.Equal(t, domainauth.StatusAuthenticated, state.Status)
	assert.Equal(t, 1, f.api.Calls("GetUser"))
	assert.Zero(t, f.api.Calls("Profile"))
	assert.Zero(t, f.api.Calls("Refresh"))

	stored, err := f.sessions.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now(), stored.VerifiedAt)
}

func TestAuthService_Resolve_UnknownUserIDUsesProfile(t *testing.T) {
	f := newAuthFixture(t)
	sess := f.login(t)
	sess.User.ID = 0
	sess.VerifiedAt = time.Time{}
	require.NoError(t, f.sessions.Save(context.Background(), *sess))

	state, err := f.svc.Resolve(context.Background(), sess.ID)

	require.NoError(t, err)
	assert.Equal(t, domainauth.StatusAuthenticated, state.Status)
	assert.Equal(t, f.user.ID, state.User().ID)
	assert.Equal(t, 1, f.api.Calls("Profile"))
}

func TestAuthService_Resolve_RefreshesNearExpiry(t *testing.T) {
	f := newAuthFixture(t)
	sess := f.login(t)
	f.clock.Advance(11 * time.Minute) // 4 minutes left on a 15 minute token

	state, err := f.svc.Resolve(context.Background(), sess.ID)

	require.NoError(t, err)
	require.Equal(t, domainauth.StatusAuthenticated, state.Status)
	assert.Equal(t, 1, f.api.Calls("Refresh"))
	assert.NotEqual(t, sess.AccessToken, state.Session.AccessToken)
	assert.NotEqual(t, sess.RefreshToken, state.Session.RefreshToken)
	assert.Equal(t, f.clock.Now().Add(900*time.Second), state.Session.AccessExpiresAt)
}

func TestAuthService_Resolve_RestoreFailureDeletesSession(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		revoke  func(api *mocks.FakeAuthAPI)
	}{
		{name: "access token rejected", advance: defaultVerifyInterval, revoke: (*mocks.FakeAuthAPI).RevokeAccessTokens},
		{name: "refresh token rejected", advance: 11 * time.Minute, revoke: (*mocks.FakeAuthAPI).RevokeRefreshTokens},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			sess := f.login(t)
			tt.revoke(f.api)
			f.clock.Advance(tt.advance)

			state, err := f.svc.Resolve(context.Background(), sess.ID)

			require.NoError(t, err)
			assert.Equal(t, domainauth.StatusUnauthenticated, state.Status)
			_, getErr := f.sessions.Get(context.Background(), sess.ID)
			assert.ErrorIs(t, getErr, mocks.ErrNotFound)
		})
	}
}

func TestAuthService_Resolve_ExpiredRecord(t *testing.T) {
	f := newAuthFixture(t, func(o *AuthServiceOptions) { o.SessionTTL = time.Hour })
	sess := f.login(t)
	f.clock.Advance(2 * time.Hour)

	state, err := f.svc.Resolve(context.Background(), sess.ID)

	require.NoError(t, err)
	assert.Equal(t, domainauth.StatusUnauthenticated, state.Status)
	assert.Zero(t, f.sessions.Len())
	assert.Zero(t, f.api.Calls("GetUser"))
}

func TestAuthService_Resolve_CheckingWhileOutstanding(t *testing.T) {
	f := newAuthFixture(t, func(o *AuthServiceOptions) { o.RestoreWait = 20 * time.Millisecond })
	sess := f.login(t)
	f.clock.Advance(defaultVerifyInterval)

	release := make(chan struct{})
	f.api.GetUserFunc = func(ctx context.Context, id int64) (domainauth.User, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return domainauth.User{}, ctx.Err()
		}
		return f.user, nil
	}

	state, err := f.svc.Resolve(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domainauth.StatusChecking, state.Status)
	assert.True(t, state.Status.IsLoading())

	close(release)
	require.Eventually(t, func() bool {
		stored, err := f.sessions.Get(context.Background(), sess.ID)
		return err == nil && stored.VerifiedAt.Equal(f.clock.Now())
	}, time.Second, 5*time.Millisecond)

	state, err = f.svc.Resolve(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domainauth.StatusAuthenticated, state.Status)
}

func TestAuthService_Resolve_CheckSurvivesCanceledRequest(t *testing.T) {
	f := newAuthFixture(t)
	sess := f.login(t)
	f.clock.Advance(defaultVerifyInterval)

	started := make(chan struct{})
	release := make(chan struct{})
	f.api.GetUserFunc = func(ctx context.Context, id int64) (domainauth.User, error) {
		close(started)
		<-release
		if ctx.Err() != nil {
			return domainauth.User{}, ctx.Err()
		}
		return f.user, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan State, 1)
	go func() {
		state, _ := f.svc.Resolve(ctx, sess.ID)
		done <- state
	}()
	<-started
	cancel()
	assert.Equal(t, domainauth.StatusChecking, (<-done).Status)

	close(release)
	require.Eventually(t, func() bool {
		stored, err := f.sessions.Get(context.Background(), sess.ID)
		return err == nil && stored.VerifiedAt.Equal(f.clock.Now())
	}, time.Second, 5*time.Millisecond)
}

type failingSessionStore struct {
	*mocks.MemorySessionStore
	err error
}

func (s failingSessionStore) Get(context.Context, string) (domainauth.Session, error) {
	return domainauth.Session{}, s.err
}

func TestAuthService_Resolve_StoreError(t *testing.T) {
	storeErr := errors.New("connection reset")
	svc := NewAuthService(AuthServiceOptions{
		API:      mocks.NewFakeAuthAPI(),
		Sessions: failingSessionStore{MemorySessionStore: mocks.NewMemorySessionStore(), err: storeErr},
	})

	state, err := svc.Resolve(context.Background(), "abc")

	require.ErrorIs(t, err, storeErr)
	assert.Equal(t, domainauth.StatusUnauthenticated, state.Status)
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)
	sess := f.login(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Logout(ctx, sess.ID))

	assert.Zero(t, f.sessions.Len())
	state, err := f.svc.Resolve(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domainauth.StatusUnauthenticated, state.Status)
	assert.Nil(t, state.Session)

	require.NoError(t, f.svc.Logout(ctx, ""))
	require.NoError(t, f.svc.Logout(ctx, "unknown"))
}

func TestAuthService_Refresh(t *testing.T) {
	f := newAuthFixture(t)
	sess := f.login(t)

	refreshed, err := f.svc.Refresh(context.Background(), sess.ID)

	require.NoError(t, err)
	assert.NotEqual(t, sess.AccessToken, refreshed.AccessToken)
	stored, err := f.sessions.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, refreshed.AccessToken, stored.AccessToken)

	// the old refresh token was consumed
	sess.ID = "other"
	sess.RefreshToken = "refresh-unknown"
	require.NoError(t, f.sessions.Save(context.Background(), *sess))
	_, err = f.svc.Refresh(context.Background(), "other")
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestAuthService_Refresh_NoRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	sess := f.login(t)
	sess.RefreshToken = ""
	require.NoError(t, f.sessions.Save(context.Background(), *sess))

	_, err := f.svc.Refresh(context.Background(), sess.ID)

	assert.ErrorIs(t, err, ErrNoRefreshToken)
	assert.Zero(t, f.api.Calls("Refresh"))
}

func TestAuthService_Credentials(t *testing.T) {
	f := newAuthFixture(t)
	sess := f.login(t)
	creds := f.svc.Credentials(*sess)

	assert.Equal(t, sess.AccessToken, creds.AccessToken())

	token, err := creds.Refresh(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, sess.AccessToken, token)
	assert.Equal(t, token, creds.AccessToken())

	stored, err := f.sessions.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, token, stored.AccessToken)

	// the refreshed token authorizes API calls carried by ctx
	user, err := f.api.GetUser(apiclient.WithCredentials(context.Background(), creds), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestAuthService_RefreshAfter401CountedOnce(t *testing.T) {
	f := newAuthFixture(t)
	sess := f.login(t)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":"error","message":"expired"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	client := apiclient.New(apiclient.Options{BaseURL: srv.URL + "/api/v1/", HTTPClient: srv.Client()})

	const series = `cinema_ui_auth_token_refreshes_total{origin="client",result="success"}`
	before := testutil.MetricValue(t, metrics.Handler(), series)

	ctx := apiclient.WithCredentials(context.Background(), f.svc.Credentials(*sess))
	_, err := client.SeatsByScreening(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 1, f.api.Calls("Refresh"))
	assert.InDelta(t, 1, testutil.MetricValue(t, metrics.Handler(), series)-before, 0.0001)
}

func TestDisplayable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantMsg  string
		wantCode apperrors.ErrorCode
	}{
		{"api message", apperrors.FromUpstream(409, "", "Email đã tồn tại", nil), "Email đã tồn tại", apperrors.ErrCodeConflict},
		{"upstream", apperrors.Upstreamf("bad gateway"), msgLoginFailed, apperrors.ErrCodeUpstream},
		{"plain error", errors.New("boom"), msgLoginFailed, apperrors.ErrCodeUpstream},
		{"timeout", apperrors.MapContextError(context.DeadlineExceeded), msgLoginFailed, apperrors.ErrCodeTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := displayable(tt.err, msgLoginFailed)
			assert.Equal(t, tt.wantMsg, apiclient.UserMessage(err, ""))
			assert.Equal(t, tt.wantCode, apperrors.GetCode(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
