// Package roster folds predictions into the position-organized roster
// snapshot served to readers.
package roster

import (
	"sort"
	"strings"

	"github.com/okian/sportsintel/internal/domain/catalog"
	"github.com/okian/sportsintel/internal/domain/model"
)

// DefaultCap is the number of entries kept per position.
const DefaultCap = 5

// Entry provenance.
const (
	SourceRanking = "ranking"
	SourceValue   = "value"
)

// Entry is one recommended player.
type Entry struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Team            string  `json:"team,omitempty"`
	ProjectedPoints float64 `json:"projected_points"`
	Confidence      float64 `json:"confidence"`
	AIRecommended   bool    `json:"ai_recommended"`
	Source          string  `json:"source"`
}

// Snapshot maps sport to position to ordered recommendations. A Snapshot is
// never mutated after Materialize returns it.
type Snapshot map[model.Sport]map[string][]Entry

// Count returns the number of entries for a sport.
func (s Snapshot) Count(sport model.Sport) int {
	n := 0
	for _, entries := range s[sport] {
		n += len(entries)
	}
	return n
}

// Materialize builds a fresh Snapshot from predictions. Rankings fill each
// position first, then value opportunities, skipping names already present,
// until the position holds limit entries. Catalogue positions are always
// present, possibly empty. A non-positive limit selects DefaultCap.
func Materialize(preds model.Predictions, limit int) Snapshot {
	if limit <= 0 {
		limit = DefaultCap
	}
	snap := make(Snapshot, len(preds))
	for sport, p := range preds {
		positions := make(map[string][]Entry)
		for _, pos := range catalog.Positions(sport) {
			positions[pos] = []Entry{}
		}
		seen := make(map[string]map[string]struct{})
		add := func(pos string, e Entry) {
			if pos == "" || e.Name == "" {
				return
			}
			if len(positions[pos]) >= limit {
				return
			}
			if seen[pos] == nil {
				seen[pos] = make(map[string]struct{})
			}
			k := strings.ToLower(e.Name)
			if _, dup := seen[pos][k]; dup {
				return
			}
			seen[pos][k] = struct{}{}
			e.ID = entryID(e.Name, sport, pos)
			e.AIRecommended = true
			positions[pos] = append(positions[pos], e)
		}

		rankings := make([]model.Ranking, len(p.PlayerRankings))
		copy(rankings, p.PlayerRankings)
		sort.SliceStable(rankings, func(i, j int) bool { return rankings[i].Rank < rankings[j].Rank })
		for _, r := range rankings {
			add(r.Position, Entry{Name: r.Player, Team: r.Team, ProjectedPoints: r.ProjectedPoints, Confidence: r.Confidence, Source: SourceRanking})
		}
		for _, v := range p.ValueOpportunities {
			add(v.Position, Entry{Name: v.Player, Team: v.Team, ProjectedPoints: v.ProjectedPoints, Confidence: v.Confidence, Source: SourceValue})
		}
		snap[sport] = positions
	}
	return snap
}

func entryID(name string, sport model.Sport, pos string) string {
	slug := strings.Join(strings.Fields(strings.ToLower(name)), "_")
	return slug + "_" + string(sport) + "_" + strings.ToLower(pos)
}
