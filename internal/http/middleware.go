package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"time"

	domainauth "github.com/target/cinema-ui/internal/domain/auth"
	"github.com/target/cinema-ui/internal/service"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			if ww.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
				slog.Bool("htmx", IsHTMX(r)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.ErrorContext(r.Context(), "panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionResolver resolves a session cookie to an auth state.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (service.State, error)
}

// SessionConfig configures the SessionState middleware.
type SessionConfig struct {
	Auth         SessionResolver
	CookieDomain string
	Logger       *slog.Logger
}

// SessionState resolves the auth state once per request and stores it in the
// request context. A session cookie that no longer maps to a session is
// cleared; when the store itself fails the cookie is kept so the session can
// be picked up again once the store recovers.
func SessionState(cfg SessionConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sessionIDFromRequest(r)
			st, err := cfg.Auth.Resolve(r.Context(), id)
			if err != nil {
				logger.WarnContext(r.Context(), "session lookup failed, treating request as signed out",
					"path", r.URL.Path, "error", err)
			}
			if id != "" && err == nil && st.Status == domainauth.StatusUnauthenticated {
				clearCookie(w, r, cookieParams{Name: SessionCookieName, Domain: cfg.CookieDomain})
			}
			next.ServeHTTP(w, r.WithContext(SetAuthStateInContext(r.Context(), st)))
		})
	}
}

func sessionIDFromRequest(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// stateFromRequest returns the resolved state, or Unauthenticated when the
// SessionState middleware did not run.
func stateFromRequest(r *http.Request) service.State {
	if st, ok := GetAuthStateFromContext(r.Context()); ok {
		return st
	}
	return service.State{Status: domainauth.StatusUnauthenticated}
}

// redirectPathForRequest is the in-app target a fragment request came from.
func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) {
		if current := safeRedirectFromURL(r.Header.Get("Hx-Current-Url")); current != "" {
			return current
		}
		if referer := safeRedirectFromURL(r.Header.Get("Referer")); referer != "" {
			return referer
		}
	}
	return safeRedirectPath(r.URL.RequestURI())
}

func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	// Reject scheme-relative or host-only references.
	if u.Host != "" && !u.IsAbs() {
		return ""
	}
	if u.IsAbs() {
		return safeRedirectPath(u.RequestURI())
	}
	return safeRedirectPath(raw)
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !isRootedPath(u.Path) {
		return "/"
	}
	return candidate
}

// isRootedPath rejects "//host" and "/\host", which browsers treat as hosts.
func isRootedPath(p string) bool {
	if len(p) == 0 || p[0] != '/' {
		return false
	}
	return len(p) == 1 || (p[1] != '/' && p[1] != '\\')
}
