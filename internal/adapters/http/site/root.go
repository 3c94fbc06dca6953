// Package site serves the landing page.
package site

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	service "github.com/okian/sportsintel/internal/app"
)

//go:embed static/index.html
var staticFS embed.FS

var indexTemplate = template.Must(template.ParseFS(staticFS, "static/index.html"))

// ErrRender is returned when the landing page fails to render.
var ErrRender = errors.New("site render failed")

// StatusReader reports the scheduler status shown on the page.
type StatusReader interface {
	GetSystemStatus() service.Status
}

// RootHandler serves the landing page at /.
type RootHandler struct {
	status StatusReader
	mcp    bool
}

// NewRootHandler creates a new root handler. mcp controls whether the MCP
// endpoint is listed.
func NewRootHandler(status StatusReader, mcp bool) *RootHandler {
	return &RootHandler{status: status, mcp: mcp}
}

// Register attaches the landing page to mux. Any other unmatched path is 404.
func Register(_ context.Context, mux *http.ServeMux, status StatusReader, mcp bool) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/", NewRootHandler(status, mcp).HandleRoot)
}

type page struct {
	Status service.Status
	MCP    bool
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		http.NotFound(w, r)
		return
	}
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, page{Status: h.status.GetSystemStatus(), MCP: h.mcp}); err != nil {
		http.Error(w, errors.Join(ErrRender, err).Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
