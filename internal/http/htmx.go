package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// IsHTMX reports whether the request was initiated by htmx (Hx-Request: true).
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Request"), "true")
}

// IsBoosted reports whether the request was initiated by hx-boost.
func IsBoosted(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Boosted"), "true")
}

// WantsPartial returns true when only the main fragment should be rendered.
// Every htmx request, history restores included, gets the fragment.
func WantsPartial(r *http.Request) bool {
	return IsHTMX(r)
}

// SetHXRedirect instructs htmx to redirect the browser to the given URL.
func SetHXRedirect(w http.ResponseWriter, url string) { w.Header().Set("Hx-Redirect", url) }

// SetHXPushURL pushes the given URL into the browser history for the new content.
func SetHXPushURL(w http.ResponseWriter, url string) { w.Header().Set("Hx-Push-Url", url) }

// SetHXTrigger sets Hx-Trigger to {"<event>": payload}; a nil payload sends true.
func SetHXTrigger(w http.ResponseWriter, event string, payload any) {
	var value any = true
	if payload != nil {
		value = payload
	}
	b, err := json.Marshal(map[string]any{event: value})
	if err != nil {
		w.Header().Set("Hx-Trigger", `{"`+event+`":true}`)
		return
	}
	w.Header().Set("Hx-Trigger", string(b))
}

// redirect sends the browser to target: 303 for plain requests, an
// Hx-Redirect with 204 for htmx so the whole page navigates instead of
// swapping the redirect target into a fragment.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		SetHXRedirect(w, target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
