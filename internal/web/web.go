// Package web holds the HTML views. Views carry no logic beyond iteration.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// View names passed to gin's HTML renderer.
const (
	ViewRegister = "register.html"
	ViewSuccess  = "success.html"
	ViewUsers    = "users.html"
)

// LoadTemplates parses every embedded view.
func LoadTemplates() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "templates/*.html")
}

// MustLoadTemplates is LoadTemplates for process startup.
func MustLoadTemplates() *template.Template {
	return template.Must(LoadTemplates())
}
