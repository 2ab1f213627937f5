// Package site serves the landing page and the reference outline image.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/okian/drawtree/internal/domain/model"
)

// Error constants
var (
	ErrRender = errors.New("site render failed")
)

// Register attaches the landing page and outline routes to mux.
//
//	GET /             -> landing page with the outline and API links
//	GET /outline.svg  -> the reference outline as SVG
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	h := NewRootHandler(model.TreeViewBox, model.TreeOutline())
	mux.HandleFunc("/", h.HandleRoot)
	mux.HandleFunc("/outline.svg", h.HandleOutline)
}

// RootHandler serves pages rendered from one reference outline.
type RootHandler struct {
	viewBox string
	points  string
}

// NewRootHandler creates a handler drawing outline in viewBox.
func NewRootHandler(viewBox string, outline model.ReferenceOutline) *RootHandler {
	var b strings.Builder
	for i, p := range outline.Points() {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%g,%g", p.X, p.Y)
	}
	return &RootHandler{viewBox: viewBox, points: b.String()}
}

// HandleRoot handles GET / requests. Other unmatched paths are not found.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	h.render(w, indexTemplate, "text/html; charset=utf-8")
}

// HandleOutline handles GET /outline.svg requests.
func (h *RootHandler) HandleOutline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	h.render(w, outlineTemplate, "image/svg+xml")
}

func (h *RootHandler) render(w http.ResponseWriter, t *template.Template, contentType string) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, h); err != nil {
		http.Error(w, fmt.Errorf("%w: %w", ErrRender, err).Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = buf.WriteTo(w)
}

// ViewBox is exposed to the templates.
func (h *RootHandler) ViewBox() string { return h.viewBox }

// Points is exposed to the templates as an SVG points list.
func (h *RootHandler) Points() string { return h.points }

const svgBody = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="{{.ViewBox}}" width="256" height="291">` +
	`<polyline points="{{.Points}}" fill="none" stroke="#2f7d32" stroke-width="3" stroke-linejoin="round"/></svg>`

var outlineTemplate = template.Must(template.New("outline").Parse(svgBody))

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Draw the Tree</title>
    <style>body{font-family:sans-serif;text-align:center;margin:2rem}</style>
  </head>
  <body>
    <h1>Draw the Tree</h1>
    <p>Trace the outline in five seconds. Cover it all to earn the star.</p>
    ` + svgBody + `
    <p><a href="/api-docs">API docs</a> · <a href="/reference">Reference JSON</a></p>
  </body>
</html>`))
