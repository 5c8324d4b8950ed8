package apiclient

import (
	"context"
	"net/http"
	"strconv"

	domainauth "github.com/target/cinema-ui/internal/domain/auth"
)

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, req domainauth.LoginRequest) (domainauth.AuthResponse, error) {
	var out domainauth.AuthResponse
	err := c.do(ctx, call{endpoint: "auth.login", method: http.MethodPost, path: "/auth/login", body: req}, &out)
	return out, err
}

// Register creates an account. The API answers with the created user and
// may omit tokens entirely.
func (c *Client) Register(ctx context.Context, req domainauth.RegisterRequest) (domainauth.AuthResponse, error) {
	var out domainauth.AuthResponse
	err := c.do(ctx, call{endpoint: "auth.register", method: http.MethodPost, path: "/auth/register", body: req}, &out)
	return out, err
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (domainauth.AuthResponse, error) {
	var out domainauth.AuthResponse
	err := c.do(ctx, call{
		endpoint: "auth.refresh",
		method:   http.MethodPost,
		path:     "/auth/refresh",
		body:     domainauth.RefreshTokenRequest{RefreshToken: refreshToken},
	}, &out)
	return out, err
}

// GetUser fetches a user by id.
func (c *Client) GetUser(ctx context.Context, id int64) (domainauth.User, error) {
	var out domainauth.User
	err := c.do(ctx, call{
		endpoint: "users.get",
		method:   http.MethodGet,
		path:     "/users/" + strconv.FormatInt(id, 10),
		authed:   true,
	}, &out)
	return out, err
}

// Profile fetches the user owning the credentials in ctx.
func (c *Client) Profile(ctx context.Context) (domainauth.User, error) {
	var out domainauth.User
	err := c.do(ctx, call{endpoint: "users.profile", method: http.MethodGet, path: "/users/profile", authed: true}, &out)
	return out, err
}
