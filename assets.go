// Package cinema embeds the frontend templates and static files.
package cinema

import "embed"

// In dev mode both trees are read from disk instead.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
