package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/sportsintel/internal/adapters/collector"
	"github.com/okian/sportsintel/internal/adapters/repository"
	service "github.com/okian/sportsintel/internal/app"
	"github.com/okian/sportsintel/internal/domain/catalog"
	"github.com/okian/sportsintel/internal/domain/model"
	"github.com/okian/sportsintel/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service on a sqlite store with simulated sources", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		dsn := "file:" + filepath.Join(t.TempDir(), "runs.db")
		store, err := repository.Open(ctx, repository.DriverSQLite, dsn, repository.WithLogger(logger.Nop()))
		So(err, ShouldBeNil)
		defer store.Close()

		sim := collector.NewSimulated(42, collector.WithLatencyRange(0, 0))
		opts := []service.Option{
			service.WithLogger(logger.Nop()),
			service.WithStore(store),
			service.WithReferenceSource(collector.NewReferenceCollector(sim, collector.WithLogger(logger.Nop()))),
			service.WithCorroboratingSource(collector.NewCorroboratingCollector(sim, collector.WithLogger(logger.Nop()))),
			service.WithRosterCap(3),
		}
		svc := service.New(opts...)

		Convey("When a full analysis runs", func() {
			out, latest := svc.RunManualAnalysis(ctx)

			Convey("Then every sport is reconciled, predicted and materialized", func() {
				So(out.Status, ShouldEqual, model.RunCompleted)
				So(out.Persisted, ShouldBeTrue)
				So(latest.DataPointsCollected, ShouldEqual, latest.ReferenceData.Count()+latest.CorroboratingData.Count())
				So(latest.DataPointsCollected, ShouldBeGreaterThan, 0)
				for _, sport := range catalog.Sports() {
					rec := latest.Reconciliation[sport]
					So(rec.Agreement, ShouldBeBetweenOrEqual, 0, 100)
					So(rec.Confidence, ShouldBeBetweenOrEqual, 0, 100)
					for _, r := range latest.Predictions[sport].PlayerRankings {
						So(r.Confidence, ShouldBeLessThanOrEqualTo, rec.Confidence)
					}
					for _, pos := range catalog.Positions(sport) {
						entries, ok := latest.Roster[sport][pos]
						So(ok, ShouldBeTrue)
						So(len(entries), ShouldBeLessThanOrEqualTo, 3)
					}
				}
			})

			Convey("And a restarted service rehydrates the same run", func() {
				svc.Stop()
				restarted := service.New(opts...)
				defer restarted.Stop()
				restarted.Initialize(ctx)

				restored := restarted.GetLatestResults()
				So(restored, ShouldNotBeNil)
				So(restored.RunID, ShouldEqual, out.RunID)
				So(restored.DataPointsCollected, ShouldEqual, latest.DataPointsCollected)
				So(restarted.GetSystemStatus().HasResults, ShouldBeTrue)
				So(restarted.GetSystemStatus().LastRun.Equal(out.StartedAt), ShouldBeTrue)
				So(len(restored.Roster), ShouldEqual, len(latest.Roster))
			})

			Convey("And the run shows up in history", func() {
				runs, err := svc.History(ctx, 10)
				So(err, ShouldBeNil)
				So(len(runs), ShouldEqual, 1)
				So(runs[0].ID, ShouldEqual, out.RunID)

				rec, err := svc.Run(ctx, out.RunID)
				So(err, ShouldBeNil)
				So(rec.Status, ShouldEqual, model.RunCompleted)
			})
		})
	})
}
