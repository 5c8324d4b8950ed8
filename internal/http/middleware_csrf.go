package httpx

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const (
	// DefaultCSRFCookieName is the cookie (and form field) carrying the token.
	DefaultCSRFCookieName = "csrf_token"
	// DefaultCSRFHeaderName is the header htmx sends the token in (canonical form).
	DefaultCSRFHeaderName = "X-Csrf-Token"
	// DefaultCSRFTokenLength is the token length in random bytes.
	DefaultCSRFTokenLength = 32

	csrfCookieMaxAge = 12 * 3600
)

// CSRFConfig holds configuration for CSRF protection middleware.
type CSRFConfig struct {
	CookieName    string
	HeaderName    string
	FormFieldName string
	CookieDomain  string
	TokenLength   int
}

func (c *CSRFConfig) setDefaults() {
	if c.CookieName == "" {
		c.CookieName = DefaultCSRFCookieName
	}
	if c.HeaderName == "" {
		c.HeaderName = DefaultCSRFHeaderName
	}
	if c.FormFieldName == "" {
		c.FormFieldName = DefaultCSRFCookieName
	}
	if c.TokenLength == 0 {
		c.TokenLength = DefaultCSRFTokenLength
	}
}

// CSRFProtection implements the double-submit cookie pattern. The token is
// minted once per browser, exposed to templates through the request context,
// and required on every unsafe method either in the X-Csrf-Token header
// (htmx) or the csrf_token form field (plain forms).
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	cfg.setDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookieValue(r, cfg.CookieName)
			if token == "" {
				var err error
				if token, err = generateCSRFToken(cfg.TokenLength); err != nil {
					http.Error(w, "unable to generate CSRF token", http.StatusInternalServerError)
					return
				}
				setCSRFCookie(w, r, cfg, token)
			}

			r = r.WithContext(setCSRFTokenInContext(r.Context(), token))

			if requiresCSRFValidation(r.Method) && !validateCSRFToken(r, token, cfg) {
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requiresCSRFValidation exempts the safe methods.
func requiresCSRFValidation(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// generateCSRFToken fails closed when the random source fails.
func generateCSRFToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf token generation failed: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func setCSRFCookie(w http.ResponseWriter, r *http.Request, cfg CSRFConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		HttpOnly: false, // htmx reads it to fill the header
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   csrfCookieMaxAge,
	})
}

// isForwardedHTTPS handles comma-separated X-Forwarded-Proto values.
func isForwardedHTTPS(r *http.Request) bool {
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

// validateCSRFToken compares in constant time. The header wins over the form
// field; the body is parsed only for form encodings.
func validateCSRFToken(r *http.Request, cookieToken string, cfg CSRFConfig) bool {
	if cookieToken == "" {
		return false
	}
	submitted := r.Header.Get(cfg.HeaderName)
	if submitted == "" {
		ct := r.Header.Get("Content-Type")
		if !strings.HasPrefix(ct, "application/x-www-form-urlencoded") && !strings.HasPrefix(ct, "multipart/form-data") {
			return false
		}
		if err := r.ParseForm(); err != nil {
			return false
		}
		submitted = r.PostFormValue(cfg.FormFieldName)
	}
	return submitted != "" && subtle.ConstantTimeCompare([]byte(submitted), []byte(cookieToken)) == 1
}

type csrfTokenKey struct{}

func setCSRFTokenInContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfTokenKey{}, token)
}

// GetCSRFToken returns the token templates embed in forms and hx-headers.
func GetCSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfTokenKey{}).(string)
	return token
}
