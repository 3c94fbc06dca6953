package model_test

import (
	"testing"
	"time"

	model "github.com/okian/sportsintel/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestDataPointCounts(t *testing.T) {
	convey.Convey("Given collector payloads", t, func() {
		ref := model.ReferenceData{
			model.SportNFL: {"QB": {{Name: "A"}, {Name: "B"}}, "RB": {{Name: "C"}}},
			model.SportNBA: {"PG": nil},
		}
		corr := model.CorroboratingData{
			model.SportNFL: {
				model.CategoryRosters:  {{Title: "r1"}, {Title: "r2"}},
				model.CategoryInjuries: {{Title: "i1"}},
				model.CategoryNews:     {},
			},
		}

		convey.Convey("Then counts reflect every ingested record", func() {
			convey.So(ref.Count(), convey.ShouldEqual, 3)
			convey.So(corr.Count(), convey.ShouldEqual, 3)
			convey.So(corr[model.SportNFL].NonEmpty(), convey.ShouldEqual, 2)
		})

		convey.Convey("Then empty payloads count zero", func() {
			convey.So(model.ReferenceData(nil).Count(), convey.ShouldEqual, 0)
			convey.So(model.Buckets{}.NonEmpty(), convey.ShouldEqual, 0)
		})
	})
}

func TestRunSummary(t *testing.T) {
	convey.Convey("Given a run record", t, func() {
		now := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
		rec := &model.RunRecord{
			ID:                  "run-1",
			RunDate:             now,
			ReferenceData:       model.ReferenceData{model.SportNFL: {}},
			ProcessingTimeMs:    1234,
			DataPointsCollected: 42,
			Status:              model.RunCompleted,
		}

		convey.Convey("When summarized", func() {
			s := rec.Summary()

			convey.Convey("Then scalar fields are kept", func() {
				convey.So(s.ID, convey.ShouldEqual, "run-1")
				convey.So(s.RunDate, convey.ShouldEqual, now)
				convey.So(s.ProcessingTimeMs, convey.ShouldEqual, 1234)
				convey.So(s.DataPointsCollected, convey.ShouldEqual, 42)
				convey.So(s.Status, convey.ShouldEqual, model.RunCompleted)
			})
		})
	})
}

func TestCategories(t *testing.T) {
	convey.Convey("Categories are returned in query order", t, func() {
		convey.So(model.Categories(), convey.ShouldResemble, []model.Category{
			model.CategoryRosters, model.CategoryInjuries, model.CategoryTrades,
			model.CategoryDepthCharts, model.CategoryNews,
		})
	})
}
