package ports

// Package ports defines interfaces (hexagonal ports) for auth and catalog behavior.
// Implementations live in internal/adapters and internal/apiclient; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/target/cinema-ui/internal/domain/auth"
)

// AuthAPI is the authentication surface of the booking API.
type AuthAPI interface {
	// Login exchanges credentials for a token pair.
	Login(ctx context.Context, req domainauth.LoginRequest) (domainauth.AuthResponse, error)

	// Register creates an account. The response may carry no tokens.
	Register(ctx context.Context, req domainauth.RegisterRequest) (domainauth.AuthResponse, error)

	// Refresh exchanges a refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (domainauth.AuthResponse, error)

	// GetUser fetches a user with the caller's credentials from ctx.
	GetUser(ctx context.Context, id int64) (domainauth.User, error)

	// Profile fetches the user owning the credentials in ctx.
	Profile(ctx context.Context) (domainauth.User, error)
}

// SessionStore persists and retrieves browser sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error

	// Scan calls fn for every stored session id until fn returns an error.
	Scan(ctx context.Context, fn func(id string) error) error
}

// ErrSessionNotFound is returned by SessionStore.Get for unknown or expired ids.
var ErrSessionNotFound = errors.New("session not found")
