package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/target/cinema-ui/internal/apiclient"
	domainauth "github.com/target/cinema-ui/internal/domain/auth"
	apperrors "github.com/target/cinema-ui/internal/errors"
	"github.com/target/cinema-ui/internal/observability/metrics"
	"github.com/target/cinema-ui/internal/ports"
)

const (
	defaultSessionTTL       = 7 * 24 * time.Hour
	defaultVerifyInterval   = 5 * time.Minute
	defaultRestoreWait      = 300 * time.Millisecond
	defaultRefreshThreshold = 300 * time.Second
	defaultCheckTimeout     = 10 * time.Second
)

// Token refresh origins reported to metrics.
const (
	RefreshOriginRequest    = "request"
	RefreshOriginClient     = "client"
	RefreshOriginBackground = "background"
)

// Messages shown on the auth pages.
const (
	msgLoginFailed       = "Đăng nhập thất bại. Vui lòng thử lại."
	msgRegisterFailed    = "Đăng ký thất bại. Vui lòng thử lại."
	msgMissingCredential = "Vui lòng nhập email và mật khẩu."
	msgMissingUsername   = "Vui lòng nhập tên đăng nhập."
)

// ErrNoRefreshToken is returned when a session cannot be refreshed because it holds no refresh token.
var ErrNoRefreshToken = errors.New("session has no refresh token")

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	API      ports.AuthAPI
	Sessions ports.SessionStore

	SessionTTL       time.Duration
	VerifyInterval   time.Duration
	RestoreWait      time.Duration
	RefreshThreshold time.Duration
	// CheckTimeout bounds a restoration check, which runs detached from the request.
	CheckTimeout time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

// AuthService owns the browser session lifecycle: restoring it on each
// request, and the login, register, logout and refresh transitions.
type AuthService struct {
	api      ports.AuthAPI
	sessions ports.SessionStore

	sessionTTL       time.Duration
	verifyInterval   time.Duration
	restoreWait      time.Duration
	refreshThreshold time.Duration
	checkTimeout     time.Duration

	checks    singleflight.Group // per session id
	refreshes singleflight.Group // per session id

	logger *slog.Logger
	now    func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		api:              opts.API,
		sessions:         opts.Sessions,
		sessionTTL:       orDefault(opts.SessionTTL, defaultSessionTTL),
		verifyInterval:   orDefault(opts.VerifyInterval, defaultVerifyInterval),
		restoreWait:      orDefault(opts.RestoreWait, defaultRestoreWait),
		refreshThreshold: orDefault(opts.RefreshThreshold, defaultRefreshThreshold),
		checkTimeout:     orDefault(opts.CheckTimeout, defaultCheckTimeout),
		logger:           logger.With("component", "auth"),
		now:              now,
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// State is the resolved auth state for one request.
type State struct {
	Status  domainauth.Status
	Session *domainauth.Session // set only when Authenticated
}

// User returns the signed-in user, or nil.
func (s State) User() *domainauth.User {
	if s.Session == nil {
		return nil
	}
	return &s.Session.User
}

var unauthenticated = State{Status: domainauth.StatusUnauthenticated}

// Resolve determines the auth state for sessionID. A session that needs
// checking against the API is restored on a detached context; when the check
// takes longer than the restore wait the result is Checking and a later call
// picks up the outcome. Restoration failures resolve to Unauthenticated.
//
// A non-nil error accompanies Unauthenticated only when the session store
// itself failed, in which case the session may still be valid.
func (s *AuthService) Resolve(ctx context.Context, sessionID string) (State, error) {
	if sessionID == "" {
		return unauthenticated, nil
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return unauthenticated, nil
		}
		return unauthenticated, fmt.Errorf("get session: %w", err)
	}

	now := s.now()
	if sess.Expired(now) {
		if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete expired session", "error", delErr)
		}
		return unauthenticated, nil
	}
	if !sess.NeedsVerify(now, s.verifyInterval) && !sess.NeedsRefresh(now, s.refreshThreshold) {
		return State{Status: domainauth.StatusAuthenticated, Session: &sess}, nil
	}

	ch := s.checks.DoChan(sessionID, func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.checkTimeout)
		defer cancel()
		return s.restore(cctx, sess)
	})

	timer := time.NewTimer(s.restoreWait)
	defer timer.Stop()
	select {
	case res := <-ch:
		if res.Err != nil {
			return unauthenticated, nil
		}
		restored := res.Val.(domainauth.Session)
		return State{Status: domainauth.StatusAuthenticated, Session: &restored}, nil
	case <-timer.C:
		return State{Status: domainauth.StatusChecking}, nil
	case <-ctx.Done():
		return State{Status: domainauth.StatusChecking}, ctx.Err()
	}
}

// restore refreshes the access token when it is near expiry and then
// confirms the session against the API. Any failure deletes the session.
func (s *AuthService) restore(ctx context.Context, sess domainauth.Session) (domainauth.Session, error) {
	restored, err := s.verify(ctx, sess)
	metrics.RecordSessionCheck(err)
	if err != nil {
		s.logger.WarnContext(ctx, "session restoration failed",
			"session_id", shortID(sess.ID), "user_id", sess.User.ID, "error", err)
		if delErr := s.sessions.Delete(ctx, sess.ID); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete session", "session_id", shortID(sess.ID), "error", delErr)
		}
		return domainauth.Session{}, err
	}
	return restored, nil
}

func (s *AuthService) verify(ctx context.Context, sess domainauth.Session) (domainauth.Session, error) {
	if sess.NeedsRefresh(s.now(), s.refreshThreshold) {
		refreshed, err := s.refreshSession(ctx, sess, RefreshOriginRequest)
		if err != nil {
			return domainauth.Session{}, err
		}
		sess = refreshed
	}

	creds := &sessionCredentials{svc: s, sess: sess}
	actx := apiclient.WithCredentials(ctx, creds)
	var (
		user domainauth.User
		err  error
	)
	if sess.User.ID != 0 {
		user, err = s.api.GetUser(actx, sess.User.ID)
	} else {
		user, err = s.api.Profile(actx)
	}
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("verify session: %w", err)
	}

	// the client may have refreshed the token on a 401
	sess = creds.current()
	sess.User = user
	sess.VerifiedAt = s.now()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// Login exchanges credentials for a new session.
func (s *AuthService) Login(ctx context.Context, req domainauth.LoginRequest) (*domainauth.Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return nil, apperrors.Validation(msgMissingCredential)
	}

	resp, err := s.api.Login(ctx, req)
	if err != nil {
		return nil, displayable(err, msgLoginFailed)
	}
	if !resp.HasTokens() {
		return nil, apperrors.Internal(msgLoginFailed)
	}
	return s.startSession(ctx, resp)
}

// Register creates an account and signs it in. The API does not issue tokens
// on registration, so a login with the same credentials follows.
func (s *AuthService) Register(ctx context.Context, req domainauth.RegisterRequest) (*domainauth.Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Password == "" {
		return nil, apperrors.Validation(msgMissingCredential)
	}
	if req.Username == "" {
		return nil, apperrors.ValidationField("username", msgMissingUsername)
	}

	resp, err := s.api.Register(ctx, req)
	if err != nil {
		return nil, displayable(err, msgRegisterFailed)
	}
	if !resp.HasTokens() {
		return s.Login(ctx, domainauth.LoginRequest{Email: req.Email, Password: req.Password})
	}
	return s.startSession(ctx, resp)
}

func (s *AuthService) startSession(ctx context.Context, resp domainauth.AuthResponse) (*domainauth.Session, error) {
	now := s.now()
	sess := domainauth.Session{
		ID:              uuid.NewString(),
		AccessToken:     resp.AccessToken,
		RefreshToken:    resp.RefreshToken,
		TokenType:       resp.TokenType,
		AccessExpiresAt: apiclient.AccessExpiry(resp.AccessToken, resp.ExpiresIn, now),
		User:            resp.User,
		CreatedAt:       now,
		VerifiedAt:      now,
		ExpiresAt:       now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger.InfoContext(ctx, "session started", "session_id", shortID(sess.ID), "user_id", sess.User.ID)
	return &sess, nil
}

// Logout removes a session. User data lives only in the session record, so
// the query cache holds nothing to drop.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Refresh rotates the access token of a stored session.
func (s *AuthService) Refresh(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	return s.refreshByID(ctx, sessionID, RefreshOriginRequest)
}

func (s *AuthService) refreshByID(ctx context.Context, sessionID, origin string) (*domainauth.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	refreshed, err := s.refreshSession(ctx, sess, origin)
	if err != nil {
		return nil, err
	}
	return &refreshed, nil
}

// refreshSession exchanges the refresh token and persists the rotated pair.
// Refreshes of the same session are shared, since a refresh token is only
// good for one exchange.
func (s *AuthService) refreshSession(ctx context.Context, sess domainauth.Session, origin string) (domainauth.Session, error) {
	v, err, _ := s.refreshes.Do(sess.ID, func() (any, error) {
		if sess.RefreshToken == "" {
			return nil, ErrNoRefreshToken
		}
		resp, err := s.api.Refresh(ctx, sess.RefreshToken)
		metrics.RecordTokenRefresh(origin, err)
		if err != nil {
			return nil, fmt.Errorf("refresh token: %w", err)
		}

		sess.AccessToken = resp.AccessToken
		if resp.RefreshToken != "" {
			sess.RefreshToken = resp.RefreshToken
		}
		if resp.TokenType != "" {
			sess.TokenType = resp.TokenType
		}
		sess.AccessExpiresAt = apiclient.AccessExpiry(resp.AccessToken, resp.ExpiresIn, s.now())
		if resp.User.ID != 0 {
			sess.User = resp.User
		}
		if err := s.sessions.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		s.logger.DebugContext(ctx, "access token refreshed", "session_id", shortID(sess.ID), "origin", origin)
		return sess, nil
	})
	if err != nil {
		return domainauth.Session{}, err
	}
	return v.(domainauth.Session), nil
}

// Credentials returns API credentials for sess. When the API rejects the
// access token, the session is refreshed and persisted.
func (s *AuthService) Credentials(sess domainauth.Session) apiclient.Credentials {
	return &sessionCredentials{svc: s, sess: sess}
}

type sessionCredentials struct {
	svc  *AuthService
	mu   sync.Mutex
	sess domainauth.Session
}

func (c *sessionCredentials) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.AccessToken
}

func (c *sessionCredentials) Refresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()

	refreshed, err := c.svc.refreshSession(ctx, sess, RefreshOriginClient)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.sess = refreshed
	c.mu.Unlock()
	return refreshed.AccessToken, nil
}

func (c *sessionCredentials) current() domainauth.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

// displayable keeps API errors that carry a message and replaces anything
// else with fallback, keeping the cause for logs.
func displayable(err error, fallback string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" && appErr.Code != apperrors.ErrCodeUpstream &&
		appErr.Code != apperrors.ErrCodeTimeout && appErr.Code != apperrors.ErrCodeInternal {
		return err
	}
	code := apperrors.GetCode(err)
	if code == "" {
		code = apperrors.ErrCodeUpstream
	}
	return apperrors.Wrap(err, code, fallback)
}

// shortID trims a session id for logs.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
