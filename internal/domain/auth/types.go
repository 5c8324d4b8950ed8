package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"encoding/json"
	"time"
)

// Role is the authorization role assigned by the booking API.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)

// User mirrors the API's user representation.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Role        Role   `json:"role"`
	IsActive    bool   `json:"isActive"`
	Address     string `json:"address"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// DisplayName is the name shown in the navigation bar.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
	Username    string `json:"username"`
	Address     string `json:"address"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

// RefreshTokenRequest is the body of POST /auth/refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse carries the token pair and the authenticated user.
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
	User         User   `json:"user"`
}

// UnmarshalJSON accepts both the nested shape ({..., "user": {...}}) and the
// flat shape where user fields sit next to the tokens.
func (a *AuthResponse) UnmarshalJSON(data []byte) error {
	type plain AuthResponse
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.User == (User{}) {
		var flat User
		if err := json.Unmarshal(data, &flat); err != nil {
			return err
		}
		p.User = flat
	}
	*a = AuthResponse(p)
	return nil
}

// HasTokens reports whether the response carries an access token.
func (a AuthResponse) HasTokens() bool { return a.AccessToken != "" }

// Status is the resolved state of the browser session.
type Status int

const (
	// StatusChecking means a session check is outstanding.
	StatusChecking Status = iota
	// StatusUnauthenticated means there is no valid session.
	StatusUnauthenticated
	// StatusAuthenticated means the session holds a verified user.
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// IsLoading reports whether the session check is still outstanding.
func (s Status) IsLoading() bool { return s == StatusChecking }

// IsAuthenticated is only meaningful once IsLoading is false.
func (s Status) IsAuthenticated() bool { return s == StatusAuthenticated }

// Session is the server-side record we persist for a signed-in browser.
// ID is an opaque session identifier stored in the session cookie.
type Session struct {
	ID              string    `json:"id"`
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token"`
	TokenType       string    `json:"token_type"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
	User            User      `json:"user"`
	CreatedAt       time.Time `json:"created_at"`
	VerifiedAt      time.Time `json:"verified_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Expired reports whether the record outlived its lifetime.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// NeedsRefresh reports whether the access token expires within threshold.
// An unknown expiry counts as expired.
func (s Session) NeedsRefresh(now time.Time, threshold time.Duration) bool {
	if s.AccessExpiresAt.IsZero() {
		return true
	}
	return s.AccessExpiresAt.Sub(now) <= threshold
}

// NeedsVerify reports whether the last upstream confirmation is older than interval.
func (s Session) NeedsVerify(now time.Time, interval time.Duration) bool {
	if s.VerifiedAt.IsZero() {
		return true
	}
	return now.Sub(s.VerifiedAt) >= interval
}

// IsAdmin returns true if the session user has the admin role.
func (s Session) IsAdmin() bool { return s.User.Role == RoleAdmin }
