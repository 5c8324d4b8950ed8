package httpx

import (
	"context"
	"html"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/cinema-ui/internal/apiclient"
	domainauth "github.com/target/cinema-ui/internal/domain/auth"
	"github.com/target/cinema-ui/internal/http/ui/viewmodel"
	"github.com/target/cinema-ui/internal/service"
)

const defaultRestorePoll = time.Second

// AuthService is the slice of service.AuthService the UI needs.
type AuthService interface {
	SessionResolver
	Login(ctx context.Context, req domainauth.LoginRequest) (*domainauth.Session, error)
	Register(ctx context.Context, req domainauth.RegisterRequest) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
	Credentials(sess domainauth.Session) apiclient.Credentials
}

// CatalogService is the slice of service.CatalogService the UI needs.
type CatalogService interface {
	Home(ctx context.Context, q service.HomeQuery) (service.HomeData, error)
	MovieDetail(ctx context.Context, movieID int64) (service.MovieDetailData, error)
	Booking(ctx context.Context, movieID, screeningID int64) (service.BookingData, error)
	SeatMap(ctx context.Context, screeningID int64) (service.SeatMapData, error)
}

// Compile-time interface assertions to ensure concrete services satisfy their UI interfaces.
var (
	_ AuthService    = (*service.AuthService)(nil)
	_ CatalogService = (*service.CatalogService)(nil)
)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T       *TemplateRenderer
	Auth    AuthService
	Catalog CatalogService
	Prices  viewmodel.SeatPrices
	// RestorePoll is how soon a page shown while a session is being
	// restored asks again.
	RestorePoll  time.Duration
	CookieDomain string
	Limiter      *LoginLimiter
	IsDev        bool // Development mode flag for enhanced error reporting
	Logger       *slog.Logger
	Now          func() time.Time
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *UIHandlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *UIHandlers) restorePoll() time.Duration {
	if h.RestorePoll > 0 {
		return h.RestorePoll
	}
	return defaultRestorePoll
}

// authContext attaches the session's API credentials to the request context.
func (h *UIHandlers) authContext(r *http.Request) context.Context {
	sess := GetSessionFromContext(r.Context())
	if sess == nil {
		return r.Context()
	}
	return apiclient.WithCredentials(r.Context(), h.Auth.Credentials(*sess))
}

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// buildLayout constructs shared layout metadata from the request/session context.
func buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:       meta.Title,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
		CSRFToken:   GetCSRFToken(r),
		HideHeader:  meta.CurrentPage == PageHome || meta.CurrentPage == PageLoading,
		Bare:        meta.CurrentPage == PageLoading,
	}

	if session := GetSessionFromContext(r.Context()); session != nil {
		layout.IsAuthenticated = true
		layout.User = &viewmodel.User{
			ID:          session.User.ID,
			DisplayName: session.User.DisplayName(),
			Email:       session.User.Email,
			IsAdmin:     session.IsAdmin(),
		}
	}

	return layout
}

// basePageData constructs the common page data map with user context.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	layout := buildLayout(r, meta)
	data := map[string]any{
		"Title":           layout.Title,
		"PageTitle":       layout.PageTitle,
		"CurrentPage":     layout.CurrentPage,
		"IsAuthenticated": layout.IsAuthenticated,
		"HideHeader":      layout.HideHeader,
		"Bare":            layout.Bare,
		"Partial":         WantsPartial(r),
	}

	if layout.CSRFToken != "" {
		data["CSRFToken"] = layout.CSRFToken
	}
	if layout.User != nil {
		data["User"] = layout.User
	}

	return data
}

// renderPage renders a page with proper htmx partial support.
func (h *UIHandlers) renderPage(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	w.Header().Set("Cache-Control", "no-store")
	if !WantsPartial(r) {
		if err := h.T.RenderFull(w, status, data); err != nil {
			h.logAndRenderTemplateError(w, r, err, "full page render")
		}
		return
	}

	// Hint client JS to update nav active state based on current path
	SetHXTrigger(w, "nav:activate", map[string]string{"path": r.URL.Path})
	if err := h.T.RenderPartial(w, status, data); err != nil {
		h.logAndRenderTemplateError(w, r, err, "partial content render")
	}
}

// renderFragment renders a standalone partial template.
func (h *UIHandlers) renderFragment(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Cache-Control", "no-store")
	if err := h.T.Render(w, name, http.StatusOK, data); err != nil {
		h.logAndRenderTemplateError(w, r, err, "fragment "+name)
	}
}

// renderPageError renders meta's page in its error state.
func (h *UIHandlers) renderPageError(w http.ResponseWriter, r *http.Request, meta PageMeta, err error, extra map[string]any) {
	RenderError(ErrorOpts{
		W:          w,
		R:          r,
		Err:        err,
		Renderer:   h.renderPage,
		PageMeta:   meta,
		Data:       extra,
		StatusCode: DetermineErrorStatus(r, err),
	})
}

// NotFound renders the not-found page: 404 for full loads, 200 for htmx so
// the content is swapped in.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	status := http.StatusNotFound
	if WantsPartial(r) {
		status = http.StatusOK
	}
	data := basePageData(r, PageMeta{
		Title:       "Không tìm thấy trang",
		PageTitle:   "404",
		CurrentPage: PageNotFound,
	})
	data["Path"] = r.URL.Path
	h.renderPage(w, r, status, data)
}

// logAndRenderTemplateError logs template errors and renders them in dev mode.
func (h *UIHandlers) logAndRenderTemplateError(w http.ResponseWriter, r *http.Request, err error, context string) {
	h.logger().Error("template rendering failed",
		"error", err,
		"context", context,
		"path", r.URL.Path,
		"method", r.Method,
	)

	if h.IsDev {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		body := `<div class="template-error"><h2>Template Rendering Error</h2>` +
			`<p><strong>Context:</strong> ` + html.EscapeString(context) + `</p>` +
			`<p><strong>Path:</strong> ` + html.EscapeString(r.URL.Path) + `</p>` +
			`<pre>` + html.EscapeString(err.Error()) + `</pre></div>`
		if _, writeErr := w.Write([]byte(body)); writeErr != nil {
			h.logger().Error("failed to write template error response", "error", writeErr)
		}
		return
	}

	data := map[string]any{"Title": "Lỗi hệ thống", "Message": errMsgLoadFailed}
	if renderErr := h.T.RenderError(w, http.StatusInternalServerError, data); renderErr != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
