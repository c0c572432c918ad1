// Package web holds the server-rendered page templates and static assets,
// embedded into the binary.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Funcs carries the runtime dependencies of the template helpers.
type Funcs struct {
	// MediaURL resolves a stored asset key to a public URL.
	MediaURL func(key string) string
	// Location is used to display timestamps. Defaults to UTC.
	Location *time.Location
}

// Templates parses every page template with the helper functions bound to f.
func Templates(f Funcs) (*template.Template, error) {
	return template.New("pages").Funcs(f.funcMap()).ParseFS(templateFS, "templates/*.html")
}

// MustTemplates is like Templates but panics on error.
func MustTemplates(f Funcs) *template.Template {
	t, err := Templates(f)
	if err != nil {
		panic(err)
	}
	return t
}

// Static serves the embedded static directory.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

func (f Funcs) funcMap() template.FuncMap {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	media := f.MediaURL
	if media == nil {
		media = func(string) string { return "" }
	}
	return template.FuncMap{
		"media": media,
		// Casers are stateful, so one is built per call.
		"title": func(s string) string { return cases.Title(language.English).String(s) },
		"lower": strings.ToLower,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(loc).Format("Jan 2, 2006")
		},
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(loc).Format("Jan 2, 2006 3:04 PM")
		},
		"year": func() int { return time.Now().In(loc).Year() },
	}
}
