package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/target/cinema-ui/internal/apiclient"
	domainauth "github.com/target/cinema-ui/internal/domain/auth"
	apperrors "github.com/target/cinema-ui/internal/errors"
	"github.com/target/cinema-ui/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthAPI      = (*FakeAuthAPI)(nil)
	_ ports.SessionStore = (*MemorySessionStore)(nil)
)

// FakeAuthAPI simulates the booking API's auth endpoints with an in-memory
// user table. Any non-nil Func field replaces the default behavior.
type FakeAuthAPI struct {
	LoginFunc    func(ctx context.Context, req domainauth.LoginRequest) (domainauth.AuthResponse, error)
	RegisterFunc func(ctx context.Context, req domainauth.RegisterRequest) (domainauth.AuthResponse, error)
	RefreshFunc  func(ctx context.Context, refreshToken string) (domainauth.AuthResponse, error)
	GetUserFunc  func(ctx context.Context, id int64) (domainauth.User, error)
	ProfileFunc  func(ctx context.Context) (domainauth.User, error)

	// ExpiresIn is reported with every issued token pair, in seconds.
	ExpiresIn int64

	mu        sync.Mutex
	users     map[string]fakeUser // by email
	tokens    map[string]int64    // access token -> user id
	refreshes map[string]int64    // refresh token -> user id
	issued    int
	calls     map[string]int
}

type fakeUser struct {
	user     domainauth.User
	password string
}

// NewFakeAuthAPI creates a FakeAuthAPI with no users.
func NewFakeAuthAPI() *FakeAuthAPI {
	return &FakeAuthAPI{ExpiresIn: 900}
}

func (f *FakeAuthAPI) init() {
	if f.users == nil {
		f.users = make(map[string]fakeUser)
		f.tokens = make(map[string]int64)
		f.refreshes = make(map[string]int64)
		f.calls = make(map[string]int)
	}
}

func (f *FakeAuthAPI) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	f.calls[method]++
}

// Calls returns how many times method was invoked.
func (f *FakeAuthAPI) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// AddUser registers a user that can log in with password.
func (f *FakeAuthAPI) AddUser(u domainauth.User, password string) domainauth.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	if u.ID == 0 {
		u.ID = int64(len(f.users) + 1)
	}
	if u.Role == "" {
		u.Role = domainauth.RoleCustomer
	}
	u.IsActive = true
	f.users[u.Email] = fakeUser{user: u, password: password}
	return u
}

// RevokeRefreshTokens invalidates every refresh token issued so far.
func (f *FakeAuthAPI) RevokeRefreshTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	clear(f.refreshes)
}

// RevokeAccessTokens invalidates every access token issued so far.
func (f *FakeAuthAPI) RevokeAccessTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	clear(f.tokens)
}

// caller must hold f.mu
func (f *FakeAuthAPI) issue(u domainauth.User) domainauth.AuthResponse {
	f.issued++
	access := fmt.Sprintf("access-%d-%d", u.ID, f.issued)
	refresh := fmt.Sprintf("refresh-%d-%d", u.ID, f.issued)
	f.tokens[access] = u.ID
	f.refreshes[refresh] = u.ID
	return domainauth.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    f.ExpiresIn,
		User:         u,
	}
}

// caller must hold f.mu
func (f *FakeAuthAPI) byID(id int64) (domainauth.User, bool) {
	for _, fu := range f.users {
		if fu.user.ID == id {
			return fu.user, true
		}
	}
	return domainauth.User{}, false
}

func (f *FakeAuthAPI) Login(ctx context.Context, req domainauth.LoginRequest) (domainauth.AuthResponse, error) {
	f.record("Login")
	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, req)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fu, ok := f.users[req.Email]
	if !ok || fu.password != req.Password {
		return domainauth.AuthResponse{}, apperrors.FromUpstream(401, apperrors.APICodeInvalidCredential, "Email hoặc mật khẩu không đúng", nil)
	}
	return f.issue(fu.user), nil
}

// Register stores the user and, like the real API, returns it without tokens.
func (f *FakeAuthAPI) Register(ctx context.Context, req domainauth.RegisterRequest) (domainauth.AuthResponse, error) {
	f.record("Register")
	if f.RegisterFunc != nil {
		return f.RegisterFunc(ctx, req)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	if _, exists := f.users[req.Email]; exists {
		return domainauth.AuthResponse{}, apperrors.FromUpstream(409, apperrors.APICodeEmailExists, "Email đã được sử dụng", nil)
	}
	for _, fu := range f.users {
		if fu.user.Username == req.Username {
			return domainauth.AuthResponse{}, apperrors.FromUpstream(409, apperrors.APICodeUsernameExists, "Tên đăng nhập đã được sử dụng", nil)
		}
	}
	u := domainauth.User{
		ID:          int64(len(f.users) + 1),
		Username:    req.Username,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		DateOfBirth: req.DateOfBirth,
		Role:        domainauth.RoleCustomer,
		IsActive:    true,
	}
	f.users[req.Email] = fakeUser{user: u, password: req.Password}
	return domainauth.AuthResponse{User: u}, nil
}

func (f *FakeAuthAPI) Refresh(ctx context.Context, refreshToken string) (domainauth.AuthResponse, error) {
	f.record("Refresh")
	if f.RefreshFunc != nil {
		return f.RefreshFunc(ctx, refreshToken)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.refreshes[refreshToken]
	if !ok {
		return domainauth.AuthResponse{}, apperrors.FromUpstream(401, "", "Refresh token không hợp lệ", nil)
	}
	u, ok := f.byID(id)
	if !ok {
		return domainauth.AuthResponse{}, apperrors.FromUpstream(404, apperrors.APICodeUserNotFound, "Không tìm thấy người dùng", nil)
	}
	delete(f.refreshes, refreshToken)
	return f.issue(u), nil
}

// GetUser requires a known access token in ctx credentials.
func (f *FakeAuthAPI) GetUser(ctx context.Context, id int64) (domainauth.User, error) {
	f.record("GetUser")
	if f.GetUserFunc != nil {
		return f.GetUserFunc(ctx, id)
	}
	if _, err := f.authorize(ctx); err != nil {
		return domainauth.User{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID(id)
	if !ok {
		return domainauth.User{}, apperrors.FromUpstream(404, apperrors.APICodeUserNotFound, "Không tìm thấy người dùng", nil)
	}
	return u, nil
}

func (f *FakeAuthAPI) Profile(ctx context.Context) (domainauth.User, error) {
	f.record("Profile")
	if f.ProfileFunc != nil {
		return f.ProfileFunc(ctx)
	}
	id, err := f.authorize(ctx)
	if err != nil {
		return domainauth.User{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, _ := f.byID(id)
	return u, nil
}

func (f *FakeAuthAPI) authorize(ctx context.Context) (int64, error) {
	creds := apiclient.CredentialsFrom(ctx)
	if creds == nil {
		return 0, apperrors.Unauthorized("missing credentials")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.tokens[creds.AccessToken()]
	if !ok {
		return 0, apperrors.Unauthorized("invalid access token")
	}
	return id, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok || id == "" {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Scan visits ids in sorted order so tests are deterministic.
func (m *MemorySessionStore) Scan(_ context.Context, fn func(id string) error) error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	sort.Strings(ids)
	for _, id := range ids {
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ErrNotFound is returned when a session is not present.
var ErrNotFound = ports.ErrSessionNotFound
