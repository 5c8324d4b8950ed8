package httpx

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"time"

	cinema "github.com/target/cinema-ui"
	httpassets "github.com/target/cinema-ui/internal/http/assets"
	"github.com/target/cinema-ui/internal/http/ui/viewmodel"
	"github.com/target/cinema-ui/internal/observability/metrics"
)

// Embedded tree roots.
const (
	staticRoot   = "frontend/static"
	templateRoot = "frontend/templates"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth    AuthService
	Catalog CatalogService
	Prices  viewmodel.SeatPrices

	CookieDomain string
	RestorePoll  time.Duration
	LoginRate    float64
	LoginBurst   int
	// TrustedProxyHops is the number of reverse proxies whose
	// X-Forwarded-For entries are believed when keying the login limiter.
	TrustedProxyHops int

	MetricsEnabled     bool
	CompressionEnabled bool
	CompressionLevel   int

	IsDev  bool         // serve templates and static files from disk, reloading on change
	Logger *slog.Logger // optional

	// HealthChecks are probed by /healthz, keyed by dependency name.
	HealthChecks map[string]HealthCheck

	// TemplateFS and StaticFS replace the embedded trees when set.
	TemplateFS fs.FS
	StaticFS   fs.FS
}

// NewRouter builds the browser-facing handler: the gate catch-all, auth
// form posts, htmx fragments, static files and operational endpoints.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Auth == nil || services.Catalog == nil {
		return nil, fmt.Errorf("router: auth and catalog services are required")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	templateFS, staticFS, err := resolveTrees(services)
	if err != nil {
		return nil, err
	}
	resolver, err := httpassets.New(httpassets.Options{
		FS:     staticFS,
		Watch:  services.IsDev,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("router: asset manifest: %w", err)
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS:    templateFS,
		Resolver:      resolver,
		CriticalCSSFS: staticFS,
		DevMode:       services.IsDev,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("router: templates: %w", err)
	}

	ui := &UIHandlers{
		T:            tr,
		Auth:         services.Auth,
		Catalog:      services.Catalog,
		Prices:       services.Prices,
		RestorePoll:  services.RestorePoll,
		CookieDomain: services.CookieDomain,
		Limiter:      NewLoginLimiter(services.LoginRate, services.LoginBurst, services.TrustedProxyHops),
		IsDev:        services.IsDev,
		Logger:       logger,
	}

	mux := http.NewServeMux()
	health := healthHandler(services.HealthChecks)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	if services.MetricsEnabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}
	mux.Handle("GET "+httpassets.StaticPrefix, staticHandler(staticFS))
	registerAppRoutes(mux, ui, appChain(services, logger))

	var handler http.Handler = mux
	if services.CompressionEnabled {
		handler = Compression(CompressionConfig{Level: services.CompressionLevel, Logger: logger})(handler)
	}
	handler = metrics.InstrumentHandler(handler)
	handler = Logging(logger)(handler)
	return Recover(logger)(handler), nil
}

// resolveTrees picks the template and static trees: explicit overrides,
// then disk in dev mode, then the embedded copies.
func resolveTrees(services RouterServices) (fs.FS, fs.FS, error) {
	templateFS, staticFS := services.TemplateFS, services.StaticFS
	if services.IsDev {
		if templateFS == nil {
			templateFS = os.DirFS(TemplatePathFromRoot)
		}
		if staticFS == nil {
			staticFS = os.DirFS(staticRoot)
		}
	}
	var err error
	if templateFS == nil {
		if templateFS, err = fs.Sub(cinema.TemplateFS, templateRoot); err != nil {
			return nil, nil, fmt.Errorf("router: embedded templates: %w", err)
		}
	}
	if staticFS == nil {
		if staticFS, err = fs.Sub(cinema.StaticFS, staticRoot); err != nil {
			return nil, nil, fmt.Errorf("router: embedded static files: %w", err)
		}
	}
	return templateFS, staticFS, nil
}

// appChain wraps session-aware routes: CSRF first so templates see the
// token, then the session state every handler reads.
func appChain(services RouterServices, logger *slog.Logger) func(http.HandlerFunc) http.Handler {
	csrf := CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain})
	session := SessionState(SessionConfig{
		Auth:         services.Auth,
		CookieDomain: services.CookieDomain,
		Logger:       logger,
	})
	return func(h http.HandlerFunc) http.Handler {
		return csrf(session(h))
	}
}

func registerAppRoutes(mux *http.ServeMux, h *UIHandlers, wrap func(http.HandlerFunc) http.Handler) {
	mux.Handle("POST /login", wrap(h.Login))
	mux.Handle("POST /register", wrap(h.Register))
	mux.Handle("POST "+PathLogout, wrap(h.Logout))
	mux.Handle("GET "+PathAuthStatus, wrap(h.Status))

	mux.Handle("GET "+PathMoviesFragment, wrap(h.MoviesFragment))
	mux.Handle("GET "+PathSeatsFragment+"{screeningId}", wrap(h.SeatsFragment))

	// Every other navigation goes through the gate.
	mux.Handle("GET /{path...}", wrap(h.Gate))
}

func staticHandler(fsys fs.FS) http.Handler {
	return staticWithCacheHeaders(http.StripPrefix(httpassets.StaticPrefix, http.FileServer(http.FS(fsys))))
}

// hashedFilePattern matches content-hashed file names, e.g. app.abc123ef.js
// or styles.def45678.css.map.
var hashedFilePattern = regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

// staticWithCacheHeaders caches hashed assets for a year and everything
// else not at all.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedFilePattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}
		handler.ServeHTTP(w, r)
	})
}
