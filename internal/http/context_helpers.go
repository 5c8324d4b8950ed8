package httpx

import (
	"context"

	domainauth "github.com/target/cinema-ui/internal/domain/auth"
	"github.com/target/cinema-ui/internal/service"
)

// stateKey is an unexported context key type to avoid collisions across packages.
type stateKey struct{}

// SetAuthStateInContext returns a child context that carries the resolved auth state.
func SetAuthStateInContext(ctx context.Context, st service.State) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

// GetAuthStateFromContext returns the auth state and whether one was resolved
// for this request.
func GetAuthStateFromContext(ctx context.Context) (service.State, bool) {
	st, ok := ctx.Value(stateKey{}).(service.State)
	return st, ok
}

// GetSessionFromContext returns the authenticated session, or nil.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	st, ok := GetAuthStateFromContext(ctx)
	if !ok || !st.Status.IsAuthenticated() {
		return nil
	}
	return st.Session
}

// IsGuestUser reports whether the request carries no authenticated session.
func IsGuestUser(ctx context.Context) bool {
	return GetSessionFromContext(ctx) == nil
}
