// Package catalog holds static per-sport metadata: positions, teams, search
// query templates and the free source directory.
package catalog

import (
	"fmt"
	"sort"
	"time"

	"github.com/okian/sportsintel/internal/domain/model"
)

// Query is one corroborating search issued for a sport.
type Query struct {
	Category model.Category `json:"category"`
	Text     string         `json:"text"`
}

type sportInfo struct {
	positions   []string
	teams       []string
	splitSeason bool
	templates   map[model.Category]string
	sources     []string
}

// Templates take the season label as their only argument.
var sports = map[model.Sport]sportInfo{ //nolint:gochecknoglobals // static catalog
	model.SportNFL: {
		positions: []string{"QB", "RB", "WR", "TE", "K", "DEF"},
		teams:     []string{"KC", "BUF", "BAL", "CIN", "HOU", "JAC", "TEN", "IND", "MIA", "NYJ", "NE", "LV", "LAC", "DEN"},
		templates: map[model.Category]string{
			model.CategoryRosters:     "%s NFL current season rosters depth charts all teams",
			model.CategoryInjuries:    "NFL injury reports %s current week practice status",
			model.CategoryTrades:      "NFL trades %s season roster moves free agency",
			model.CategoryDepthCharts: "NFL %s depth charts starting lineups all 32 teams",
			model.CategoryNews:        "NFL %s current season news roster changes latest",
		},
		sources: []string{
			"https://www.espn.com/nfl/depth",
			"https://www.ourlads.com/nfldepthcharts",
			"https://www.rotowire.com/football/nfl-depth-charts",
			"https://www.profootballnetwork.com/nfl/depth-chart",
		},
	},
	model.SportNBA: {
		positions:   []string{"PG", "SG", "SF", "PF", "C"},
		teams:       []string{"GSW", "LAL", "BOS", "MIL", "PHX", "DAL", "MIA", "NYK", "PHI", "OKC", "DEN", "MIN"},
		splitSeason: true,
		templates: map[model.Category]string{
			model.CategoryRosters:     "NBA %s current season rosters all teams",
			model.CategoryInjuries:    "NBA injury report %s current season player status",
			model.CategoryTrades:      "NBA trades %s season roster moves signings",
			model.CategoryDepthCharts: "NBA %s starting lineups depth charts all 30 teams",
			model.CategoryNews:        "NBA %s current season news player moves latest",
		},
		sources: []string{
			"https://www.nba.com/players/todays-lineups",
			"https://www.espn.com/nba/teams",
			"https://www.rotowire.com/basketball/nba-lineups.php",
			"https://basketballmonster.com/nbalineups.aspx",
		},
	},
	model.SportMLB: {
		positions: []string{"P", "C", "1B", "2B", "3B", "SS", "OF"},
		teams:     []string{"LAD", "NYY", "HOU", "ATL", "TB", "TOR", "SF", "SD", "PHI", "STL", "CLE", "MIL"},
		templates: map[model.Category]string{
			model.CategoryRosters:     "MLB %s current season rosters all teams active players",
			model.CategoryInjuries:    "MLB injury list %s IL status disabled list current",
			model.CategoryTrades:      "MLB trades %s season roster moves trade deadline",
			model.CategoryDepthCharts: "MLB %s depth charts lineups all 30 teams current",
			model.CategoryNews:        "MLB %s current season news roster moves latest",
		},
		sources: []string{
			"https://www.fangraphs.com/roster-resource",
			"https://www.mlb.com/team/roster/depth-chart",
			"https://www.espn.com/mlb/story/_/id/29473590/current-mlb-depth-charts-all-30-teams",
			"https://www.rotowire.com/baseball/mlb-depth-charts",
		},
	},
	model.SportNHL: {
		positions:   []string{"C", "LW", "RW", "D", "G"},
		teams:       []string{"EDM", "COL", "BOS", "TBL", "NYR", "CGY", "CHI", "BUF", "VGK", "CAR", "WSH", "PIT"},
		splitSeason: true,
		templates: map[model.Category]string{
			model.CategoryRosters:     "NHL %s current season rosters all teams",
			model.CategoryInjuries:    "NHL injury report %s current season player status IR",
			model.CategoryTrades:      "NHL trades %s season roster moves signings waivers",
			model.CategoryDepthCharts: "NHL %s depth charts starting lineups all 32 teams",
			model.CategoryNews:        "NHL %s current season news player moves latest",
		},
		sources: []string{
			"https://puckpedia.com/depth-charts",
			"https://www.sportsgrid.com/nhl/depth-charts",
			"https://frozenpool.dobbersports.com/frozenpool_depthchart.php",
			"https://www.capfriendly.com/depth-charts",
		},
	},
}

// Known reports whether the sport is in the catalog.
func Known(s model.Sport) bool {
	_, ok := sports[s]
	return ok
}

// Sports returns every catalogued sport in sorted order.
func Sports() []model.Sport {
	out := make([]model.Sport, 0, len(sports))
	for s := range sports {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Positions returns the sport's positions in display order, or nil.
func Positions(s model.Sport) []string {
	return clone(sports[s].positions)
}

// Teams returns the sport's team abbreviations, or nil.
func Teams(s model.Sport) []string {
	return clone(sports[s].teams)
}

// Sources returns the free source directory for the sport, or nil.
func Sources(s model.Sport) []string {
	return clone(sports[s].sources)
}

// Season returns the season label for the year: "2026" or, for sports whose
// season spans two calendar years, "2026-27".
func Season(s model.Sport, year int) string {
	if sports[s].splitSeason {
		return fmt.Sprintf("%d-%02d", year, (year+1)%100)
	}
	return fmt.Sprintf("%d", year)
}

// Queries returns the corroborating searches for the sport at time now, one
// per category in model.Categories order. Unknown sports have no queries.
func Queries(s model.Sport, now time.Time) []Query {
	info, ok := sports[s]
	if !ok {
		return nil
	}
	season := Season(s, now.Year())
	out := make([]Query, 0, len(info.templates))
	for _, c := range model.Categories() {
		tmpl, ok := info.templates[c]
		if !ok {
			continue
		}
		out = append(out, Query{Category: c, Text: fmt.Sprintf(tmpl, season)})
	}
	return out
}

func clone(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
