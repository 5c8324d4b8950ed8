package httpx

import (
	"net/http"
	"time"
)

type cookieParams struct {
	Name   string
	Value  string
	Domain string
	MaxAge int
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || isForwardedHTTPS(r)
}

// setCookie writes an HttpOnly, Lax cookie scoped to the whole site.
func setCookie(w http.ResponseWriter, r *http.Request, p cookieParams) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    p.Value,
		Path:     "/",
		Domain:   p.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   p.MaxAge,
	})
}

// clearCookie expires a cookie, mirroring the attributes used to set it so
// every browser drops it.
func clearCookie(w http.ResponseWriter, r *http.Request, p cookieParams) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.Name,
		Value:    "",
		Path:     "/",
		Domain:   p.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// setSessionCookie lives as long as the server-side session.
func setSessionCookie(w http.ResponseWriter, r *http.Request, domain, id string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	setCookie(w, r, cookieParams{Name: SessionCookieName, Value: id, Domain: domain, MaxAge: maxAge})
}
