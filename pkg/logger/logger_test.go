package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	convey.Convey("Given an initialized logger", t, func() {
		convey.So(Init(), convey.ShouldBeNil)
		defer func() { _ = Sync() }()

		convey.Convey("Then Get should return it", func() {
			convey.So(Get(), convey.ShouldNotBeNil)
		})

		convey.Convey("And Named should return a child logger", func() {
			convey.So(Named("test"), convey.ShouldNotBeNil)
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	convey.Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		convey.So(InitWithWriter(&buf), convey.ShouldBeNil)
		defer func() { _ = InitWithWriter(&bytes.Buffer{}) }()
		ctx := context.Background()

		convey.Convey("When logging with fields", func() {
			Named("scheduler").Info(ctx, "run complete",
				String("run_id", "abc"),
				Int("sports", 4),
				Duration("took", 1500*time.Millisecond),
				Error(errors.New("boom")),
			)

			convey.Convey("Then the line carries message, fields and component", func() {
				out := buf.String()
				convey.So(out, convey.ShouldContainSubstring, "run complete")
				convey.So(out, convey.ShouldContainSubstring, "run_id=abc")
				convey.So(out, convey.ShouldContainSubstring, "component=scheduler")
				convey.So(out, convey.ShouldContainSubstring, "took=1.5s")
				convey.So(out, convey.ShouldContainSubstring, "error=boom")
				convey.So(out, convey.ShouldContainSubstring, "source=")
			})
		})

		convey.Convey("When the level is raised to error", func() {
			convey.So(SetLevelString("error"), convey.ShouldBeNil)
			defer func() { _ = SetLevelString("info") }()
			Get().Info(ctx, "hidden")

			convey.Convey("Then info lines are dropped", func() {
				convey.So(buf.String(), convey.ShouldNotContainSubstring, "hidden")
			})
		})

		convey.Convey("When switching to json", func() {
			convey.So(SetFormat("json"), convey.ShouldBeNil)
			defer func() { _ = SetFormat("text") }()
			Get().With(Bool("catch_up", true)).Warn(ctx, "missed run")

			convey.Convey("Then output is JSON", func() {
				convey.So(buf.String(), convey.ShouldContainSubstring, `"msg":"missed run"`)
				convey.So(buf.String(), convey.ShouldContainSubstring, `"catch_up":true`)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	convey.Convey("Given level strings", t, func() {
		for _, lvl := range []string{"debug", "info", "", "WARN", "warning", "error"} {
			convey.So(SetLevelString(lvl), convey.ShouldBeNil)
		}
		convey.So(SetLevelString("verbose"), convey.ShouldNotBeNil)
		convey.So(SetFormat("xml"), convey.ShouldNotBeNil)
		_ = SetLevelString("info")
	})
}

func TestNop(t *testing.T) {
	convey.Convey("Given a nop logger", t, func() {
		l := Nop()
		convey.So(func() { l.Info(context.Background(), "ignored") }, convey.ShouldNotPanic)
	})
}
