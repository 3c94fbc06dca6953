// Package reconcile compares reference projections against corroborating
// search results and scores how far the two agree.
//
// The engine is pure: given the same inputs and clock it returns the same
// output and performs no I/O.
package reconcile

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/sportsintel/internal/domain/catalog"
	"github.com/okian/sportsintel/internal/domain/model"
)

const (
	defaultFreshnessWindow = 24 * time.Hour
	// DefaultFreshness applies when a sport has no corroborating entries.
	DefaultFreshness = 50.0

	weightAgreement   = 0.4
	weightFreshness   = 0.3
	weightDiversity   = 0.3
	pointsPerCategory = 10.0
)

// Engine computes per-sport reconciliation.
type Engine struct {
	now             func() time.Time
	freshnessWindow time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for freshness.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithFreshnessWindow sets how recent an entry must be to count as fresh.
func WithFreshnessWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.freshnessWindow = d
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now, freshnessWindow: defaultFreshnessWindow}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile scores every sport present in either payload. Sports are
// independent of each other.
func (e *Engine) Reconcile(ref model.ReferenceData, corr model.CorroboratingData) model.Reconciliation {
	out := make(model.Reconciliation, len(ref))
	seen := make(map[model.Sport]struct{}, len(ref)+len(corr))
	for s := range ref {
		seen[s] = struct{}{}
	}
	for s := range corr {
		seen[s] = struct{}{}
	}
	now := e.now()
	for s := range seen {
		out[s] = e.Sport(s, ref[s], corr[s], now)
	}
	return out
}

// Sport reconciles a single sport at time now. Only reference players absent
// from corroborating rosters are reported; corroborating-only players are not.
//
// Category diversity counts only categories holding at least one entry. A
// category whose searches all failed is present but empty, so it lowers the
// confidence by 3 points instead of counting toward the full 15.
func (e *Engine) Sport(sport model.Sport, positions model.PositionRecords, buckets model.Buckets, now time.Time) model.SportReconciliation {
	rosters := buckets[model.CategoryRosters]
	injuries := buckets[model.CategoryInjuries]

	res := model.SportReconciliation{Discrepancies: []model.Discrepancy{}}
	for _, pos := range orderedPositions(sport, positions) {
		for _, p := range positions[pos] {
			res.ReferencePlayers++
			matches := countMatches(p.Name, rosters)
			rp := model.ReconciledPlayer{
				PlayerRecord:   p,
				Corroborated:   matches > 0,
				RosterMatches:  matches,
				InjuryMentions: countMatches(p.Name, injuries),
			}
			if rp.Position == "" {
				rp.Position = pos
			}
			if rp.Corroborated {
				res.Matched++
			} else {
				res.Discrepancies = append(res.Discrepancies, model.Discrepancy{
					Type:     model.DiscrepancyMissingInFreeSources,
					Player:   p.Name,
					Position: pos,
					Source:   model.SourceReferenceOnly,
				})
			}
			res.Players = append(res.Players, rp)
		}
	}

	res.Agreement = Agreement(res.Matched, res.ReferencePlayers)
	res.Freshness = e.Freshness(buckets, now)
	res.CategoryCount = buckets.NonEmpty()
	res.Confidence = Confidence(res.Agreement, res.Freshness, res.CategoryCount)
	return res
}

// Agreement returns matched/total as a percentage; zero when total is zero.
func Agreement(matched, total int) float64 {
	if total <= 0 {
		return 0
	}
	return clamp(float64(matched) / float64(total) * 100)
}

// Freshness returns the percentage of entries, across all categories, whose
// timestamp falls within the freshness window before now. Entries without a
// timestamp count as stale. An empty payload scores DefaultFreshness.
func (e *Engine) Freshness(buckets model.Buckets, now time.Time) float64 {
	cutoff := now.Add(-e.freshnessWindow)
	total, fresh := 0, 0
	for _, entries := range buckets {
		for _, r := range entries {
			total++
			if !r.Timestamp.IsZero() && r.Timestamp.After(cutoff) {
				fresh++
			}
		}
	}
	if total == 0 {
		return DefaultFreshness
	}
	return float64(fresh) / float64(total) * 100
}

// Confidence combines agreement, freshness and category diversity into a
// score capped to [0,100].
func Confidence(agreement, freshness float64, categories int) float64 {
	diversity := math.Min(float64(categories)*pointsPerCategory, 100)
	return clamp(weightAgreement*clamp(agreement) + weightFreshness*clamp(freshness) + weightDiversity*math.Max(diversity, 0))
}

// Matches reports whether a corroborating name confirms a reference name:
// a case-insensitive substring match. An empty reference name never matches.
func Matches(referenceName, candidate string) bool {
	ref := strings.ToLower(strings.TrimSpace(referenceName))
	if ref == "" {
		return false
	}
	return strings.Contains(strings.ToLower(candidate), ref)
}

func countMatches(name string, entries []model.SearchResult) int {
	n := 0
	for _, r := range entries {
		if Matches(name, r.Data.Name) {
			n++
		}
	}
	return n
}

// orderedPositions lists catalogue positions first, then any extra
// positions the provider returned in sorted order.
func orderedPositions(sport model.Sport, positions model.PositionRecords) []string {
	out := make([]string, 0, len(positions))
	known := make(map[string]struct{})
	for _, p := range catalog.Positions(sport) {
		known[p] = struct{}{}
		if _, ok := positions[p]; ok {
			out = append(out, p)
		}
	}
	extra := make([]string, 0)
	for p := range positions {
		if _, ok := known[p]; !ok {
			extra = append(extra, p)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
