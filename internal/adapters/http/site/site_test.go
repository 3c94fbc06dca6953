package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/sportsintel/internal/app"
	"github.com/okian/sportsintel/internal/domain/model"
)

type staticStatus service.Status

func (s staticStatus) GetSystemStatus() service.Status { return service.Status(s) }

func get(mux *http.ServeMux, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestSiteHandler(t *testing.T) {
	Convey("Given a registered landing page", t, func() {
		ctx := context.Background()
		last := time.Date(2026, 10, 16, 2, 0, 0, 0, time.UTC)
		status := staticStatus{
			Version:    service.Version,
			LastRun:    &last,
			HasResults: true,
			LastOutcome: &service.RunOutcome{
				Trigger: service.TriggerScheduled,
				Status:  model.RunFailed,
				Error:   "collect: boom",
			},
		}
		mux := http.NewServeMux()
		Register(ctx, mux, status, true)

		Convey("When requesting /", func() {
			w := get(mux, http.MethodGet, "/")

			Convey("Then it renders the status", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				body := w.Body.String()
				So(body, ShouldContainSubstring, "2026-10-16 02:00 UTC")
				So(body, ShouldContainSubstring, "not scheduled")
				So(body, ShouldContainSubstring, "failed: collect: boom")
				So(body, ShouldContainSubstring, "/mcp")
			})
		})

		Convey("When requesting an unknown path", func() {
			So(get(mux, http.MethodGet, "/nope").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When posting to /", func() {
			So(get(mux, http.MethodPost, "/").Code, ShouldEqual, http.StatusNotFound)
		})
	})

	Convey("Given MCP is disabled and nothing has run", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux, staticStatus{Version: service.Version}, false)

		Convey("Then the page says so", func() {
			body := get(mux, http.MethodGet, "/").Body.String()
			So(body, ShouldContainSubstring, "never")
			So(body, ShouldContainSubstring, "none yet")
			So(body, ShouldNotContainSubstring, "/mcp")
		})
	})

	Convey("Given a nil mux", t, func() {
		So(func() { Register(context.Background(), nil, staticStatus{}, false) }, ShouldPanic)
	})
}
