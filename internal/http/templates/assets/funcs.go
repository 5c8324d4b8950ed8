package assets

import (
	"html/template"

	httpassets "github.com/target/cinema-ui/internal/http/assets"
)

// Options configures asset-related template helpers.
type Options struct {
	Resolver    *httpassets.Resolver
	CriticalCSS func() string
}

// Funcs returns the asset and criticalCSS template helpers.
func Funcs(opts Options) template.FuncMap {
	return template.FuncMap{
		"asset": opts.Resolver.Path,
		"criticalCSS": func() template.CSS {
			if opts.CriticalCSS == nil {
				return ""
			}
			// #nosec G203 - read from the embedded static tree, not user input
			return template.CSS(opts.CriticalCSS())
		},
	}
}
