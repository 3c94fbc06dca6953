// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/sportsintel/internal/app"
	"github.com/okian/sportsintel/internal/domain/model"
)

// DefaultMaxLimit caps GET /intelligence/runs?limit=N.
const DefaultMaxLimit = 100

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	GetSystemStatus() service.Status
	GetLatestResults() *service.LatestResults
	RunManualAnalysis(ctx context.Context) (service.RunOutcome, *service.LatestResults)

	// Read operations over stored runs.
	History(ctx context.Context, limit int) ([]model.RunSummary, error)
	Run(ctx context.Context, id string) (*model.RunRecord, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	intelligenceHandler *IntelligenceHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
		intelligenceHandler: NewIntelligenceHandler(deps, maxLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleHealth, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/intelligence/status", MetricsMiddleware(s.intelligenceHandler.HandleStatus, "intelligence_status"))
	mux.HandleFunc("/intelligence/latest", MetricsMiddleware(s.intelligenceHandler.HandleLatest, "intelligence_latest"))
	mux.HandleFunc("/intelligence/run-manual", MetricsMiddleware(s.intelligenceHandler.HandleRunManual, "intelligence_run_manual"))
	mux.HandleFunc("/intelligence/runs", MetricsMiddleware(s.intelligenceHandler.HandleRuns, "intelligence_runs"))
	mux.HandleFunc("/intelligence/runs/", MetricsMiddleware(s.intelligenceHandler.HandleRun, "intelligence_run"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
