package settings

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templatesFS, "templates/settings.html"))

// PageData is the view model of the settings page.
type PageData struct {
	Title    string
	DarkMode bool
	// CloseURL receives the encoded fragment as ?response=.
	CloseURL string
}

// RenderPage writes the settings page with the checkbox reflecting p.
func RenderPage(w io.Writer, p Preference, closeURL string) error {
	return pageTmpl.ExecuteTemplate(w, "settings.html", PageData{
		Title:    "watchface1 Settings",
		DarkMode: p.DarkMode,
		CloseURL: closeURL,
	})
}
