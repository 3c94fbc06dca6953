// Package model contains domain models passed between layers.
package model

import "time"

// Sport identifies a league, e.g. "nfl".
type Sport string

// Supported sports.
const (
	SportNFL Sport = "nfl"
	SportNBA Sport = "nba"
	SportMLB Sport = "mlb"
	SportNHL Sport = "nhl"
)

// PlayerRecord is one projection returned by the reference source.
type PlayerRecord struct {
	Name            string    `json:"name"`
	Team            string    `json:"team,omitempty"`
	Position        string    `json:"position,omitempty"`
	ProjectedPoints float64   `json:"projected_points"`
	Status          string    `json:"status,omitempty"` // Active, Questionable, Out, IR ...
	Source          string    `json:"source,omitempty"`
	CollectedAt     time.Time `json:"collected_at"`
}

// PositionRecords maps a position code to its reference players.
type PositionRecords map[string][]PlayerRecord

// ReferenceData is the reference source payload for a run, keyed by sport.
type ReferenceData map[Sport]PositionRecords

// Count returns the number of player records across all sports and positions.
func (r ReferenceData) Count() int {
	n := 0
	for _, positions := range r {
		for _, players := range positions {
			n += len(players)
		}
	}
	return n
}

// Category is a corroborating search bucket.
type Category string

// Corroborating categories in query order.
const (
	CategoryRosters     Category = "rosters"
	CategoryInjuries    Category = "injuries"
	CategoryTrades      Category = "trades"
	CategoryDepthCharts Category = "depthCharts"
	CategoryNews        Category = "news"
)

// Categories returns every corroborating category in query order.
func Categories() []Category {
	return []Category{CategoryRosters, CategoryInjuries, CategoryTrades, CategoryDepthCharts, CategoryNews}
}

// SearchPlayer is the player payload extracted from a search hit.
type SearchPlayer struct {
	Name            string  `json:"name"`
	Team            string  `json:"team,omitempty"`
	Position        string  `json:"position,omitempty"`
	Status          string  `json:"status,omitempty"`
	ProjectedPoints float64 `json:"projected_points,omitempty"`
}

// SearchResult is one corroborating entry.
type SearchResult struct {
	Title      string       `json:"title"`
	Source     string       `json:"source"`
	Confidence float64      `json:"confidence"` // [0,1]
	Timestamp  time.Time    `json:"timestamp"`
	Data       SearchPlayer `json:"data"`
}

// Buckets groups corroborating entries of one sport by category.
type Buckets map[Category][]SearchResult

// Count returns the number of entries across all categories.
func (b Buckets) Count() int {
	n := 0
	for _, entries := range b {
		n += len(entries)
	}
	return n
}

// NonEmpty returns how many categories hold at least one entry.
func (b Buckets) NonEmpty() int {
	n := 0
	for _, entries := range b {
		if len(entries) > 0 {
			n++
		}
	}
	return n
}

// CorroboratingData is the corroborating payload for a run, keyed by sport.
type CorroboratingData map[Sport]Buckets

// Count returns the number of entries across all sports.
func (c CorroboratingData) Count() int {
	n := 0
	for _, b := range c {
		n += b.Count()
	}
	return n
}
