package server

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"scribe/internal/forms"
)

//go:embed templates
var templateFS embed.FS

// Views renders html/template pages for Fiber. Every page is parsed together
// with the base layout and the shared includes; rendering always starts at
// the "base" template.
type Views struct {
	fsys      fs.FS
	funcs     template.FuncMap
	templates map[string]*template.Template
}

// NewViews loads page templates from fsys. Pass nil to use the embedded set.
func NewViews(fsys fs.FS) *Views {
	if fsys == nil {
		sub, err := fs.Sub(templateFS, "templates")
		if err != nil {
			panic(err)
		}
		fsys = sub
	}
	return &Views{fsys: fsys, funcs: templateFuncs()}
}

// Load parses every page under core/, posts/ and users/.
func (v *Views) Load() error {
	shared, err := fs.Glob(v.fsys, "includes/*.html")
	if err != nil {
		return err
	}
	shared = append([]string{"layouts/base.html"}, shared...)

	v.templates = make(map[string]*template.Template)
	for _, dir := range []string{"core", "posts", "users"} {
		pages, err := fs.Glob(v.fsys, dir+"/*.html")
		if err != nil {
			return err
		}
		for _, page := range pages {
			files := append(append([]string{}, shared...), page)
			t, err := template.New(path.Base(page)).Funcs(v.funcs).ParseFS(v.fsys, files...)
			if err != nil {
				return fmt.Errorf("parse %s: %w", page, err)
			}
			v.templates[strings.TrimSuffix(page, ".html")] = t
		}
	}
	return nil
}

// Render executes the page name ("posts/index") inside the base layout.
func (v *Views) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	t, ok := v.templates[strings.TrimSuffix(name, ".html")]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "base", data)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			return t.Format("2 January 2006")
		},
		"media": func(name string) string {
			return "/media/" + name
		},
		"pageURL": func(number int) string {
			return "?page=" + strconv.Itoa(number)
		},
		"escape": url.PathEscape,
		"fieldErrors": func(errs forms.Errors, field string) []string {
			return errs[field]
		},
	}
}
