package handlers

import (
	"embed"
	"html/template"
)

//go:embed pages/*.html
var pageFS embed.FS

// Pages returns the HTML templates served to browsers.
func Pages() *template.Template {
	return template.Must(template.ParseFS(pageFS, "pages/*.html"))
}
