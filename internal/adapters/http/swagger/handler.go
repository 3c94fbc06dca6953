// Package swagger publishes the sports intelligence HTTP API contract: the
// embedded OpenAPI document and a ReDoc page that renders it.
package swagger

import (
	"context"
	"net/http"
)

// Routes served by Register.
const (
	DocsPath = "/api-docs"
	SpecPath = "/openapi.yaml"
)

// redocURL is the ReDoc bundle loaded by the docs page.
const redocURL = "https://cdn.redoc.ly/redoc/v2.1.5/bundles/redoc.standalone.js"

// Register attaches the API docs and the OpenAPI document to mux. Only GET
// and HEAD are answered; other methods get 404 like the rest of the API.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc(DocsPath, serve("text/html; charset=utf-8", []byte(docsHTML)))
	mux.HandleFunc(SpecPath, serve("application/yaml; charset=utf-8", OpenAPI))
}

func serve(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(body)
	}
}

const docsHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Sports Intelligence API Docs</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="` + redocURL + `"></script>
    <script>Redoc.init('` + SpecPath + `', { suppressWarnings: true }, document.getElementById('redoc-container'));</script>
  </body>
</html>`
