// Package web holds the server-rendered pages of the intake site.
package web

import (
	"embed"
	"html/template"
	"net/url"

	"github.com/noah-isme/egresados-intake/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Funcs are the helpers available to every template.
var Funcs = template.FuncMap{
	"slug": func(s models.ApplicationStatus) string { return s.Slug() },
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"documentURL": func(name string) string {
		return "/uploads/" + url.PathEscape(name)
	},
	"statusQuery": func(s models.ApplicationStatus) string {
		if s == "" {
			return ""
		}
		return "?estatus=" + url.QueryEscape(string(s))
	},
}

// Templates parses the embedded page templates. Each page is addressed by
// its file name, e.g. "admin.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(templateFS, "templates/*.html")
}
