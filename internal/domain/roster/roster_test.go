package roster_test

import (
	"fmt"
	"testing"

	"github.com/okian/sportsintel/internal/domain/model"
	"github.com/okian/sportsintel/internal/domain/roster"
	"github.com/smartystreets/goconvey/convey"
)

func rankings(pos string, n int) []model.Ranking {
	out := make([]model.Ranking, n)
	for i := range out {
		out[i] = model.Ranking{Rank: i + 1, Player: fmt.Sprintf("%s Player %d", pos, i+1), Position: pos, ProjectedPoints: float64(40 - i), Confidence: 60}
	}
	return out
}

func TestMaterialize(t *testing.T) {
	convey.Convey("Given predictions with more players than the cap", t, func() {
		preds := model.Predictions{
			model.SportNFL: {
				PlayerRankings: append(rankings("QB", 8), rankings("WR", 2)...),
				ValueOpportunities: []model.ValueOpportunity{
					{Player: "Value Wideout", Position: "WR", ProjectedPoints: 22, ProjectedValue: 4, Confidence: 50},
					{Player: "wr player 1", Position: "WR", ProjectedPoints: 30, Confidence: 50},
					{Player: "Value QB", Position: "QB", ProjectedPoints: 25, Confidence: 50},
				},
			},
		}

		convey.Convey("When materialized with the default cap", func() {
			snap := roster.Materialize(preds, 0)

			convey.Convey("Then no position exceeds the cap", func() {
				for _, entries := range snap[model.SportNFL] {
					convey.So(len(entries), convey.ShouldBeLessThanOrEqualTo, roster.DefaultCap)
				}
				convey.So(len(snap[model.SportNFL]["QB"]), convey.ShouldEqual, 5)
			})

			convey.Convey("Then rankings fill first and value opportunities follow without duplicates", func() {
				wr := snap[model.SportNFL]["WR"]
				convey.So(len(wr), convey.ShouldEqual, 3)
				convey.So(wr[0].Name, convey.ShouldEqual, "WR Player 1")
				convey.So(wr[0].Source, convey.ShouldEqual, roster.SourceRanking)
				convey.So(wr[2].Name, convey.ShouldEqual, "Value Wideout")
				convey.So(wr[2].Source, convey.ShouldEqual, roster.SourceValue)
			})

			convey.Convey("Then every entry is flagged and identified", func() {
				qb := snap[model.SportNFL]["QB"]
				convey.So(qb[0].AIRecommended, convey.ShouldBeTrue)
				convey.So(qb[0].ID, convey.ShouldEqual, "qb_player_1_nfl_qb")
			})

			convey.Convey("Then catalogue positions without players are present and empty", func() {
				convey.So(snap[model.SportNFL], convey.ShouldContainKey, "DEF")
				convey.So(snap[model.SportNFL]["DEF"], convey.ShouldBeEmpty)
				convey.So(snap.Count(model.SportNFL), convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When materialized with a custom cap", func() {
			snap := roster.Materialize(preds, 2)

			convey.Convey("Then that cap applies everywhere", func() {
				for _, entries := range snap[model.SportNFL] {
					convey.So(len(entries), convey.ShouldBeLessThanOrEqualTo, 2)
				}
			})
		})

		convey.Convey("When materialized twice", func() {
			a := roster.Materialize(preds, 5)
			b := roster.Materialize(preds, 5)
			a[model.SportNFL]["QB"][0].Name = "changed"

			convey.Convey("Then snapshots do not share state", func() {
				convey.So(b[model.SportNFL]["QB"][0].Name, convey.ShouldEqual, "QB Player 1")
			})
		})
	})

	convey.Convey("Given no predictions", t, func() {
		snap := roster.Materialize(nil, 5)
		convey.So(snap, convey.ShouldBeEmpty)
	})
}
