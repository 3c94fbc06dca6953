package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/sportsintel/internal/app"
	"github.com/okian/sportsintel/internal/domain/model"
	"github.com/okian/sportsintel/internal/domain/roster"
	"github.com/okian/sportsintel/pkg/logger"
)

type fakeDeps struct {
	status   service.Status
	latest   *service.LatestResults
	outcome  service.RunOutcome
	runs     []model.RunSummary
	runsErr  error
	gotLimit int
}

func (f *fakeDeps) GetSystemStatus() service.Status          { return f.status }
func (f *fakeDeps) GetLatestResults() *service.LatestResults { return f.latest }

func (f *fakeDeps) RunManualAnalysis(context.Context) (service.RunOutcome, *service.LatestResults) {
	return f.outcome, f.latest
}

func (f *fakeDeps) History(_ context.Context, limit int) ([]model.RunSummary, error) {
	f.gotLimit = limit
	return f.runs, f.runsErr
}

func text(res *mcp.CallToolResult) string {
	var b strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

func sampleResults() *service.LatestResults {
	return &service.LatestResults{
		RunID: "run-1",
		Reconciliation: model.Reconciliation{
			model.SportNFL: {Agreement: 80},
		},
		Predictions: model.Predictions{
			model.SportNFL: {PlayerRankings: []model.Ranking{{Rank: 1, Player: "Josh Allen", Position: "QB"}}},
		},
		Roster: roster.Snapshot{
			model.SportNFL: {"QB": {{Name: "Josh Allen"}}},
		},
	}
}

func TestTools(t *testing.T) {
	Convey("Given the MCP tools", t, func() {
		ctx := context.Background()
		deps := &fakeDeps{}
		tools := NewTools(deps, logger.Nop())

		Convey("Status reports the service status", func() {
			last := time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC)
			deps.status = service.Status{HasResults: true, LastRun: &last, Version: service.Version}
			res, _, err := tools.Status(ctx, nil, StatusArgs{})
			So(err, ShouldBeNil)
			So(res.IsError, ShouldBeFalse)
			var body map[string]any
			So(json.Unmarshal([]byte(text(res)), &body), ShouldBeNil)
			So(body["has_results"], ShouldEqual, true)
			So(body["last_run"], ShouldEqual, "2026-10-16T07:00:00Z")
		})

		Convey("Latest without results returns null", func() {
			res, _, err := tools.Latest(ctx, nil, LatestArgs{})
			So(err, ShouldBeNil)
			So(text(res), ShouldContainSubstring, `"results": null`)
		})

		Convey("Latest can be narrowed to one sport", func() {
			deps.latest = sampleResults()
			res, _, err := tools.Latest(ctx, nil, LatestArgs{Sport: " NFL "})
			So(err, ShouldBeNil)
			So(res.IsError, ShouldBeFalse)
			var body SportResults
			So(json.Unmarshal([]byte(text(res)), &body), ShouldBeNil)
			So(body.RunID, ShouldEqual, "run-1")
			So(body.Sport, ShouldEqual, model.SportNFL)
			So(body.Reconciliation.Agreement, ShouldEqual, 80)
			So(body.Roster["QB"], ShouldHaveLength, 1)
		})

		Convey("Latest for an unknown sport is a tool error", func() {
			deps.latest = sampleResults()
			res, _, err := tools.Latest(ctx, nil, LatestArgs{Sport: "cricket"})
			So(err, ShouldBeNil)
			So(res.IsError, ShouldBeTrue)
			So(text(res), ShouldContainSubstring, "no results for sport")
		})

		Convey("RunManual flags skipped and failed runs", func() {
			deps.outcome = service.RunOutcome{RunID: "run-2", Status: model.RunCompleted}
			res, _, err := tools.RunManual(ctx, nil, RunManualArgs{})
			So(err, ShouldBeNil)
			So(res.IsError, ShouldBeFalse)
			So(text(res), ShouldContainSubstring, `"run_id": "run-2"`)

			deps.outcome = service.RunOutcome{Skipped: true}
			res, _, _ = tools.RunManual(ctx, nil, RunManualArgs{})
			So(res.IsError, ShouldBeTrue)

			deps.outcome = service.RunOutcome{Status: model.RunFailed, Error: "boom"}
			res, _, _ = tools.RunManual(ctx, nil, RunManualArgs{})
			So(res.IsError, ShouldBeTrue)
			So(text(res), ShouldContainSubstring, "boom")
		})

		Convey("History defaults the limit", func() {
			deps.runs = []model.RunSummary{{ID: "a", Status: model.RunCompleted}}
			res, _, err := tools.History(ctx, nil, HistoryArgs{})
			So(err, ShouldBeNil)
			So(deps.gotLimit, ShouldEqual, defaultHistoryLimit)
			So(text(res), ShouldContainSubstring, `"count": 1`)

			_, _, _ = tools.History(ctx, nil, HistoryArgs{Limit: 3})
			So(deps.gotLimit, ShouldEqual, 3)
		})

		Convey("History surfaces store errors as tool errors", func() {
			deps.runsErr = errors.New("db down")
			res, _, err := tools.History(ctx, nil, HistoryArgs{})
			So(err, ShouldBeNil)
			So(res.IsError, ShouldBeTrue)
			So(text(res), ShouldContainSubstring, "db down")
		})
	})
}

func TestServerSession(t *testing.T) {
	Convey("Given a server connected over in-memory transports", t, func() {
		ctx := context.Background()
		deps := &fakeDeps{status: service.Status{Version: service.Version}}
		server := NewServer(deps, service.Version, logger.Nop())

		st, ct := mcp.NewInMemoryTransports()
		ss, err := server.Connect(ctx, st, nil)
		So(err, ShouldBeNil)
		defer ss.Close()

		client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
		cs, err := client.Connect(ctx, ct, nil)
		So(err, ShouldBeNil)
		defer cs.Close()

		Convey("Then every tool is listed", func() {
			list, err := cs.ListTools(ctx, nil)
			So(err, ShouldBeNil)
			names := make([]string, 0, len(list.Tools))
			for _, tool := range list.Tools {
				names = append(names, tool.Name)
			}
			So(names, ShouldContain, "intelligence_status")
			So(names, ShouldContain, "intelligence_latest")
			So(names, ShouldContain, "intelligence_run_manual")
			So(names, ShouldContain, "intelligence_history")
		})

		Convey("Then history can be called with arguments", func() {
			res, err := cs.CallTool(ctx, &mcp.CallToolParams{
				Name:      "intelligence_history",
				Arguments: map[string]any{"limit": 7},
			})
			So(err, ShouldBeNil)
			So(res.IsError, ShouldBeFalse)
			So(deps.gotLimit, ShouldEqual, 7)
		})
	})
}

func TestRegister(t *testing.T) {
	Convey("Given the streamable handler mounted on a mux", t, func() {
		mux := http.NewServeMux()
		Register(mux, NewServer(&fakeDeps{}, service.Version, logger.Nop()))

		Convey("Then the MCP path is routed", func() {
			req := httptest.NewRequest(http.MethodGet, "/other", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)

			_, pattern := mux.Handler(httptest.NewRequest(http.MethodPost, Path, http.NoBody))
			So(pattern, ShouldEqual, Path)
		})
	})
}
