package apiclient

import "context"

// Credentials supplies the bearer token for authenticated calls.
type Credentials interface {
	AccessToken() string
	// Refresh obtains a replacement access token after the API rejected the current one.
	Refresh(ctx context.Context) (string, error)
}

type credentialsKey struct{}

// WithCredentials attaches credentials to ctx for authenticated calls.
func WithCredentials(ctx context.Context, c Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, c)
}

// CredentialsFrom returns the credentials attached to ctx, or nil.
func CredentialsFrom(ctx context.Context) Credentials {
	c, _ := ctx.Value(credentialsKey{}).(Credentials)
	return c
}

// StaticToken is a fixed access token that cannot be refreshed.
type StaticToken string

// AccessToken returns the token.
func (t StaticToken) AccessToken() string { return string(t) }

// Refresh always fails.
func (t StaticToken) Refresh(context.Context) (string, error) { return "", ErrSessionExpired }
