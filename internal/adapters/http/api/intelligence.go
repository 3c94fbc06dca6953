package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/sportsintel/internal/adapters/repository"
	service "github.com/okian/sportsintel/internal/app"
	"github.com/okian/sportsintel/internal/domain/model"
)

const defaultRunsLimit = 20

// IntelligenceHandler serves the pipeline's trigger and read surface.
type IntelligenceHandler struct {
	deps     Dependencies
	maxLimit int
	now      func() time.Time
}

// NewIntelligenceHandler creates a new intelligence handler.
func NewIntelligenceHandler(deps Dependencies, maxLimit int) *IntelligenceHandler {
	return &IntelligenceHandler{deps: deps, maxLimit: maxLimit, now: time.Now}
}

type statusResponse struct {
	service.Status
	Timestamp time.Time `json:"timestamp"`
}

type latestResponse struct {
	Results   *service.LatestResults `json:"results"`
	Timestamp time.Time              `json:"timestamp"`
}

type manualResponse struct {
	Message   string                 `json:"message"`
	Outcome   service.RunOutcome     `json:"outcome"`
	Results   *service.LatestResults `json:"results,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

type runsResponse struct {
	Runs  []model.RunSummary `json:"runs"`
	Count int                `json:"count"`
}

// HandleStatus handles GET /intelligence/status requests.
func (h *IntelligenceHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: h.deps.GetSystemStatus(), Timestamp: h.now().UTC()})
}

// HandleLatest handles GET /intelligence/latest requests. Results are null
// until the first run completes or is restored.
func (h *IntelligenceHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, latestResponse{Results: h.deps.GetLatestResults(), Timestamp: h.now().UTC()})
}

// HandleRunManual handles POST /intelligence/run-manual requests. The run
// is synchronous and outlives a disconnected client. A run already in
// progress yields 409 and a failed run 500, both with the outcome.
func (h *IntelligenceHandler) HandleRunManual(w http.ResponseWriter, r *http.Request) {
	const op = "api.run_manual"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	out, results := h.deps.RunManualAnalysis(context.WithoutCancel(r.Context()))
	switch {
	case out.Skipped:
		writeJSON(w, http.StatusConflict, manualResponse{
			Message:   NewKind(op, ErrAlreadyRunning).Error(),
			Outcome:   out,
			Timestamp: h.now().UTC(),
		})
	case out.Status == model.RunFailed:
		writeJSON(w, http.StatusInternalServerError, manualResponse{
			Message:   Wrap(op, fmt.Errorf("%w: %s", ErrRunFailed, out.Error)).Error(),
			Outcome:   out,
			Timestamp: h.now().UTC(),
		})
	default:
		writeJSON(w, http.StatusOK, manualResponse{
			Message:   "manual analysis completed",
			Outcome:   out,
			Results:   results,
			Timestamp: h.now().UTC(),
		})
	}
}

// HandleRuns handles GET /intelligence/runs?limit=N requests.
func (h *IntelligenceHandler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_runs"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := defaultRunsLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	runs, err := h.deps.History(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if runs == nil {
		runs = []model.RunSummary{}
	}
	writeJSON(w, http.StatusOK, runsResponse{Runs: runs, Count: len(runs)})
}

// HandleRun handles GET /intelligence/runs/{id} requests.
func (h *IntelligenceHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_run"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/intelligence/runs/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rec, err := h.deps.Run(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
