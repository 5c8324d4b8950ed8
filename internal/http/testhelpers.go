package httpx

import (
	"net/http"
	"os"
	"strings"
	"testing"
)

// RequireTemplateRenderer creates a TemplateRenderer for tests, skipping the test if templates are not available.
// This centralizes the common pattern of template guard checks in tests.
func RequireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS:    os.DirFS(TemplatePathFromTest),
		CriticalCSSFS: os.DirFS(StaticPathFromTest),
	})
	if err != nil {
		t.Skipf("Templates not available, skipping: %v", err)
		return nil
	}
	return tr
}

// SkipIfNoTemplates checks if templates are available and skips the test if not.
func SkipIfNoTemplates(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(TemplatePathFromTest); os.IsNotExist(err) {
		t.Skip("Templates not available, skipping integration test")
	}
}

// ContainsAll checks if a string contains all the given substrings.
func ContainsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// AsHTMX marks r as an htmx request, boosted when boosted is set.
func AsHTMX(r *http.Request, boosted bool) *http.Request {
	r.Header.Set("Hx-Request", "true")
	if boosted {
		r.Header.Set("Hx-Boosted", "true")
	}
	return r
}
