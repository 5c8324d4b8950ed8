package httpx

import "github.com/target/cinema-ui/internal/domain/gate"

// CurrentPage constants identify pages in templates and navigation.
const (
	PageLoading     = "loading"
	PageLogin       = "login"
	PageRegister    = "register"
	PageHome        = "home"
	PageMovieDetail = "movie-detail"
	PageBooking     = "booking"
	PageNotFound    = "not-found"
)

// Cookie and form field names.
const (
	SessionCookieName = "session_id"
	redirectField     = gate.RedirectParam
)

// Paths served outside the gate.
const (
	PathLogout         = "/logout"
	PathAuthStatus     = "/auth/status"
	PathMoviesFragment = "/fragments/movies"
	PathSeatsFragment  = "/fragments/seats/"
)

// Frontend tree paths used in tests and dev mode.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
	StaticPathFromTest   = "../../frontend/static"
)

// Content templates are defined once and reused to avoid per-call allocations.
//
//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageLoading:     "loading-content",
	PageLogin:       "login-content",
	PageRegister:    "register-content",
	PageHome:        "home-content",
	PageMovieDetail: "movie-detail-content",
	PageBooking:     "booking-content",
	PageNotFound:    "not-found-content",
}

// ContentTemplateMap returns the mapping from CurrentPage to template name.
func ContentTemplateMap() map[string]string { return contentTemplates }

// ContentTemplateFor returns the content template for the given CurrentPage.
// Unknown pages fall back to home-content.
func ContentTemplateFor(currentPage string) string {
	if name, ok := ContentTemplateMap()[currentPage]; ok {
		return name
	}
	return "home-content"
}
