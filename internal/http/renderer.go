package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	httpassets "github.com/target/cinema-ui/internal/http/assets"
	assetfuncs "github.com/target/cinema-ui/internal/http/templates/assets"
	corefuncs "github.com/target/cinema-ui/internal/http/templates/core"
)

const (
	criticalCSSPath     = "css/critical.css"
	fallbackCriticalCSS = ":root{--color-background:#0f1115;--color-surface:#181b22;--color-text-primary:#f2f3f5;}"
)

// Template names executed by the renderer.
const (
	tmplLayout      = "layout"
	tmplPartial     = "partial"
	tmplErrorLayout = "error-layout"
)

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	t             *template.Template
	resolver      *httpassets.Resolver
	criticalCSSFS fs.FS  // re-read on every render in dev mode
	criticalCSS   string // cached in production
	devMode       bool
	logger        *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS    fs.FS                // Required
	Resolver      *httpassets.Resolver // Optional: hashed asset names
	CriticalCSSFS fs.FS                // Optional: tree containing css/critical.css
	DevMode       bool
	Logger        *slog.Logger
}

// NewTemplateRenderer parses every template under TemplateFS. Critical CSS
// is read once unless DevMode is set.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer := &TemplateRenderer{
		resolver:      cfg.Resolver,
		criticalCSSFS: cfg.CriticalCSSFS,
		devMode:       cfg.DevMode,
		logger:        logger,
	}
	if cfg.CriticalCSSFS != nil && !cfg.DevMode {
		renderer.criticalCSS = renderer.readCriticalCSS()
	}

	var t *template.Template
	funcs := createTemplateFuncs(&t, renderer)
	t, err := template.New("root").Funcs(funcs).ParseFS(cfg.TemplateFS,
		"*.tmpl",
		"pages/*.tmpl",
		"partials/*.tmpl",
	)
	if err != nil {
		logger.Error("template parsing failed", slog.Any("error", err), slog.String("phase", "initialization"))
		return nil, err
	}
	renderer.t = t
	return renderer, nil
}

func (r *TemplateRenderer) readCriticalCSS() string {
	b, err := fs.ReadFile(r.criticalCSSFS, criticalCSSPath)
	if err != nil {
		r.logger.Warn("critical CSS unavailable, using fallback", "path", criticalCSSPath, "error", err)
		return fallbackCriticalCSS
	}
	return string(b)
}

func (r *TemplateRenderer) getCriticalCSS() string {
	if r.devMode && r.criticalCSSFS != nil {
		return r.readCriticalCSS()
	}
	return r.criticalCSS
}

// Has reports whether a template with the given name was parsed.
func (r *TemplateRenderer) Has(name string) bool {
	return r.t.Lookup(name) != nil
}

// RenderFull renders the full page (layout + page content).
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, status int, data any) error {
	return r.Render(w, tmplLayout, status, data)
}

// RenderPartial renders the document title, the out-of-band header and the
// page content for htmx navigation.
func (r *TemplateRenderer) RenderPartial(w http.ResponseWriter, status int, data any) error {
	return r.Render(w, tmplPartial, status, data)
}

// RenderError renders the standalone error layout.
func (r *TemplateRenderer) RenderError(w http.ResponseWriter, status int, data any) error {
	return r.Render(w, tmplErrorLayout, status, data)
}

// Render executes name into a buffer and writes it with status. Nothing is
// written when execution fails, so callers can still send an error page.
func (r *TemplateRenderer) Render(w http.ResponseWriter, name string, status int, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("template execution failed", slog.String("template", name), slog.Any("error", err))
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status > 0 && status != http.StatusOK {
		w.WriteHeader(status)
	}
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template", slog.String("template", name), slog.Any("error", err))
		return err
	}
	return nil
}

func createTemplateFuncs(t **template.Template, renderer *TemplateRenderer) template.FuncMap {
	funcs := template.FuncMap{}

	mergeTemplateFuncs(funcs,
		corefuncs.Funcs(corefuncs.Deps{
			Template:           t,
			ContentTemplateFor: ContentTemplateFor,
		}),
		assetfuncs.Funcs(assetfuncs.Options{
			Resolver:    renderer.resolver,
			CriticalCSS: renderer.getCriticalCSS,
		}),
	)
	funcs["lower"] = strings.ToLower
	return funcs
}

func mergeTemplateFuncs(dst template.FuncMap, sources ...template.FuncMap) {
	for _, src := range sources {
		for key, val := range src {
			dst[key] = val
		}
	}
}
