// Package mcpserver exposes the pipeline's status, results and manual
// trigger as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	service "github.com/okian/sportsintel/internal/app"
	"github.com/okian/sportsintel/internal/domain/model"
	"github.com/okian/sportsintel/internal/domain/roster"
	"github.com/okian/sportsintel/pkg/logger"
)

// Path is where Register mounts the streamable HTTP endpoint.
const Path = "/mcp"

const defaultHistoryLimit = 10

// Dependencies is the subset of the service the tools need.
type Dependencies interface {
	GetSystemStatus() service.Status
	GetLatestResults() *service.LatestResults
	RunManualAnalysis(ctx context.Context) (service.RunOutcome, *service.LatestResults)
	History(ctx context.Context, limit int) ([]model.RunSummary, error)
}

// StatusArgs is the input schema for intelligence_status (no parameters).
type StatusArgs struct{}

// LatestArgs is the input schema for intelligence_latest.
type LatestArgs struct {
	Sport string `json:"sport,omitempty" jsonschema:"Limit results to one sport (nfl, nba, mlb, nhl)"`
}

// RunManualArgs is the input schema for intelligence_run_manual (no parameters).
type RunManualArgs struct{}

// HistoryArgs is the input schema for intelligence_history.
type HistoryArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"Number of runs to return (default 10)"`
}

// SportResults is the per-sport slice of the latest results.
type SportResults struct {
	RunID          string                    `json:"run_id"`
	Sport          model.Sport               `json:"sport"`
	Reconciliation model.SportReconciliation `json:"reconciliation"`
	Predictions    model.SportPredictions    `json:"predictions"`
	Roster         map[string][]roster.Entry `json:"roster"`
}

// Tools implements the tool handlers.
type Tools struct {
	deps Dependencies
	log  logger.Logger
}

// NewTools creates the tool handlers.
func NewTools(deps Dependencies, log logger.Logger) *Tools {
	if log == nil {
		log = logger.Get().Named("mcp")
	}
	return &Tools{deps: deps, log: log}
}

// NewServer builds an MCP server with every tool registered.
func NewServer(deps Dependencies, version string, log logger.Logger) *mcp.Server {
	t := NewTools(deps, log)
	server := mcp.NewServer(&mcp.Implementation{Name: "sportsintel", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "intelligence_status",
		Description: "Whether an analysis is running, when the last and next runs are, and how the last run ended",
	}, t.Status)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "intelligence_latest",
		Description: "Reconciliation, predictions and roster from the latest successful run",
	}, t.Latest)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "intelligence_run_manual",
		Description: "Run the analysis now; rejected while another run is in progress",
	}, t.RunManual)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "intelligence_history",
		Description: "Stored runs, newest first",
	}, t.History)
	return server
}

// Register mounts server on mux at Path.
func Register(mux *http.ServeMux, server *mcp.Server) {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
	mux.Handle(Path, handler)
}

// Status handles intelligence_status.
func (t *Tools) Status(_ context.Context, _ *mcp.CallToolRequest, _ StatusArgs) (*mcp.CallToolResult, any, error) {
	return toolJSON(t.deps.GetSystemStatus())
}

// Latest handles intelligence_latest.
func (t *Tools) Latest(_ context.Context, _ *mcp.CallToolRequest, args LatestArgs) (*mcp.CallToolResult, any, error) {
	latest := t.deps.GetLatestResults()
	if latest == nil {
		return toolJSON(map[string]any{"results": nil})
	}
	sport := model.Sport(strings.ToLower(strings.TrimSpace(args.Sport)))
	if sport == "" {
		return toolJSON(latest)
	}
	rec, ok := latest.Reconciliation[sport]
	if !ok {
		return toolError(fmt.Errorf("no results for sport %q", sport)), nil, nil
	}
	return toolJSON(SportResults{
		RunID:          latest.RunID,
		Sport:          sport,
		Reconciliation: rec,
		Predictions:    latest.Predictions[sport],
		Roster:         latest.Roster[sport],
	})
}

// RunManual handles intelligence_run_manual.
func (t *Tools) RunManual(ctx context.Context, _ *mcp.CallToolRequest, _ RunManualArgs) (*mcp.CallToolResult, any, error) {
	t.log.Info(ctx, "manual analysis requested over mcp")
	out, _ := t.deps.RunManualAnalysis(ctx)
	res, _, err := toolJSON(out)
	if err == nil && (out.Skipped || out.Status == model.RunFailed) {
		res.IsError = true
	}
	return res, nil, err
}

// History handles intelligence_history.
func (t *Tools) History(ctx context.Context, _ *mcp.CallToolRequest, args HistoryArgs) (*mcp.CallToolResult, any, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	runs, err := t.deps.History(ctx, limit)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(map[string]any{"runs": runs, "count": len(runs)})
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
