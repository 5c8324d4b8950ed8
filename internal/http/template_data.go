package httpx

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/target/cinema-ui/internal/http/ui/viewmodel"
)

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
	r    *http.Request
}

// NewTemplateData creates a new TemplateDataBuilder initialized with basePageData.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return &TemplateDataBuilder{
		data: basePageData(r, meta),
		r:    r,
	}
}

// PageLinks describes a one-based page position for WithPagination.
type PageLinks struct {
	Page     int
	Pages    int
	HasPrev  bool
	HasNext  bool
	BasePath string
}

// WithPagination adds a viewmodel.Pagination under "Pagination", with
// prev/next URLs that keep the request's other query parameters.
func (b *TemplateDataBuilder) WithPagination(p PageLinks) *TemplateDataBuilder {
	pg := viewmodel.Pagination{
		Page:    p.Page,
		Pages:   p.Pages,
		HasPrev: p.HasPrev,
		HasNext: p.HasNext,
	}
	if p.HasPrev {
		pg.PrevURL = buildPageURL(p.BasePath, b.r.URL.Query(), p.Page-1)
	}
	if p.HasNext {
		pg.NextURL = buildPageURL(p.BasePath, b.r.URL.Query(), p.Page+1)
	}
	b.data["Pagination"] = pg
	return b
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	b.data["Error"] = true
	b.data["ErrorMessage"] = msg
	return b
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}

// buildPageURL returns basePath with page set, keeping the other non-empty
// query parameters. Page 1 is left implicit.
func buildPageURL(basePath string, q url.Values, page int) string {
	qq := make(url.Values, len(q))
	for k, v := range q {
		if k == "page" || strings.HasPrefix(k, "hx-") || strings.HasPrefix(k, "hx_") {
			continue
		}
		tmp := make([]string, 0, len(v))
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				tmp = append(tmp, s)
			}
		}
		if len(tmp) > 0 {
			qq[k] = tmp
		}
	}
	if page > 1 {
		qq.Set("page", strconv.Itoa(page))
	}
	if enc := qq.Encode(); enc != "" {
		return basePath + "?" + enc
	}
	return basePath
}
