// Package view renders the storefront's server-side pages with
// html/template and serves the bundled static assets.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:embed templates static
var files embed.FS

const layoutFile = "templates/layout.html"

// Renderer holds one template set per page, each combined with the shared
// layout. It implements gin's render.HTMLRender.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page under templates/
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	err := fs.WalkDir(files, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || p == layoutFile || !strings.HasSuffix(p, ".html") {
			return err
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, "templates/"), ".html")
		t, err := template.New(path.Base(layoutFile)).Funcs(funcs).ParseFS(files, layoutFile, p)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		r.pages[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Instance implements render.HTMLRender
func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		return missingPage(name)
	}
	return render.HTML{Template: t, Name: "layout", Data: data}
}

// Has reports whether a page exists
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

type missingPage string

func (m missingPage) Render(http.ResponseWriter) error {
	return fmt.Errorf("view: unknown page %q", string(m))
}

func (m missingPage) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

// Static returns the bundled css, js and images
func Static() fs.FS {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string {
		return d.StringFixed(2)
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("02.01.2006 15:04")
	},
	"short": func(id uuid.UUID) string {
		return strings.SplitN(id.String(), "-", 2)[0]
	},
	"deref": func(id *uuid.UUID) string {
		if id == nil {
			return ""
		}
		return id.String()
	},
	"image": imageURL,
	"add": func(a, b int) int {
		return a + b
	},
}

// imageURL turns a stored image reference into a src attribute. Bare
// relative paths from older data are served from /static.
func imageURL(src string) string {
	switch {
	case src == "":
		return "/static/img/placeholder.svg"
	case strings.HasPrefix(src, "/"), strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return src
	default:
		return "/static/" + src
	}
}
