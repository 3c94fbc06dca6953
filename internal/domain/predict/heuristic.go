package predict

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/sportsintel/internal/domain/model"
)

const (
	defaultRankingsLimit = 20
	defaultInjuryLimit   = 10
	defaultValueLimit    = 15
	defaultTrendingLimit = 8

	// Uncorroborated players carry this share of the sport confidence.
	uncorroboratedFactor = 0.6
	// Minimum deviation from the position average, in percent, to trend.
	trendingThreshold = 10.0
)

// Heuristic is a deterministic Strategy driven by reference projections and
// corroboration results.
type Heuristic struct {
	rankingsLimit int
	injuryLimit   int
	valueLimit    int
	trendingLimit int
}

// HeuristicOption configures a Heuristic.
type HeuristicOption func(*Heuristic)

// WithRankingsLimit caps the number of ranked players.
func WithRankingsLimit(n int) HeuristicOption {
	return func(h *Heuristic) {
		if n > 0 {
			h.rankingsLimit = n
		}
	}
}

// WithLimits caps injury, value and trending lists.
func WithLimits(injury, value, trending int) HeuristicOption {
	return func(h *Heuristic) {
		if injury > 0 {
			h.injuryLimit = injury
		}
		if value > 0 {
			h.valueLimit = value
		}
		if trending > 0 {
			h.trendingLimit = trending
		}
	}
}

// NewHeuristic creates the default strategy.
func NewHeuristic(opts ...HeuristicOption) *Heuristic {
	h := &Heuristic{
		rankingsLimit: defaultRankingsLimit,
		injuryLimit:   defaultInjuryLimit,
		valueLimit:    defaultValueLimit,
		trendingLimit: defaultTrendingLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Predict implements Strategy.
func (h *Heuristic) Predict(_ context.Context, _ model.Sport, rec model.SportReconciliation) (model.SportPredictions, error) {
	players := make([]model.ReconciledPlayer, len(rec.Players))
	copy(players, rec.Players)
	sort.SliceStable(players, func(i, j int) bool { return ranksBefore(players[i], players[j]) })

	avg := positionAverages(players)
	out := model.SportPredictions{
		Confidence:         rec.Confidence,
		PlayerRankings:     []model.Ranking{},
		InjuryRisk:         []model.InjuryRisk{},
		ValueOpportunities: []model.ValueOpportunity{},
		TrendingPlayers:    []model.TrendingPlayer{},
	}

	ranked := make(map[string]struct{})
	for _, p := range players {
		if len(out.PlayerRankings) == h.rankingsLimit {
			break
		}
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		trend := model.TrendDown
		if p.ProjectedPoints >= avg[p.Position] {
			trend = model.TrendUp
		}
		out.PlayerRankings = append(out.PlayerRankings, model.Ranking{
			Rank:            len(out.PlayerRankings) + 1,
			Player:          p.Name,
			Team:            p.Team,
			Position:        p.Position,
			ProjectedPoints: p.ProjectedPoints,
			Confidence:      playerConfidence(rec.Confidence, p),
			Trend:           trend,
			Reasoning:       rankingReason(rec, p),
		})
		ranked[key(p)] = struct{}{}
	}

	out.InjuryRisk = h.injuryRisk(players)
	out.ValueOpportunities = h.valueOpportunities(rec.Confidence, players, avg, ranked)
	out.TrendingPlayers = h.trending(players, avg)
	return out, nil
}

func (h *Heuristic) injuryRisk(players []model.ReconciledPlayer) []model.InjuryRisk {
	out := []model.InjuryRisk{}
	for _, p := range players {
		level, factors := assessRisk(p)
		if level == "" {
			continue
		}
		out = append(out, model.InjuryRisk{
			Player:         p.Name,
			Team:           p.Team,
			Position:       p.Position,
			RiskLevel:      level,
			RiskFactors:    factors,
			Recommendation: recommendation(level),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if riskOrder(out[i].RiskLevel) != riskOrder(out[j].RiskLevel) {
			return riskOrder(out[i].RiskLevel) > riskOrder(out[j].RiskLevel)
		}
		return out[i].Player < out[j].Player
	})
	if len(out) > h.injuryLimit {
		out = out[:h.injuryLimit]
	}
	return out
}

func (h *Heuristic) valueOpportunities(sportConf float64, players []model.ReconciledPlayer, avg map[string]float64, ranked map[string]struct{}) []model.ValueOpportunity {
	out := []model.ValueOpportunity{}
	for _, p := range players {
		if _, ok := ranked[key(p)]; ok || strings.TrimSpace(p.Name) == "" {
			continue
		}
		edge := p.ProjectedPoints - avg[p.Position]
		if edge <= 0 {
			continue
		}
		out = append(out, model.ValueOpportunity{
			Player:          p.Name,
			Team:            p.Team,
			Position:        p.Position,
			ProjectedPoints: p.ProjectedPoints,
			ProjectedValue:  floor1(edge),
			Confidence:      playerConfidence(sportConf, p),
			Reasoning:       fmt.Sprintf("Projects %.1f above the %s average outside the top rankings", edge, p.Position),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProjectedValue != out[j].ProjectedValue {
			return out[i].ProjectedValue > out[j].ProjectedValue
		}
		return out[i].Player < out[j].Player
	})
	if len(out) > h.valueLimit {
		out = out[:h.valueLimit]
	}
	return out
}

func (h *Heuristic) trending(players []model.ReconciledPlayer, avg map[string]float64) []model.TrendingPlayer {
	out := []model.TrendingPlayer{}
	for _, p := range players {
		base := avg[p.Position]
		if base <= 0 || strings.TrimSpace(p.Name) == "" {
			continue
		}
		pct := (p.ProjectedPoints - base) / base * 100
		if math.Abs(pct) < trendingThreshold {
			continue
		}
		t := model.TrendingPlayer{Player: p.Name, Position: p.Position, Percentage: floor1(math.Abs(pct))}
		if pct > 0 {
			t.Trend = model.TrendRising
			t.Catalysts = []string{"Projection above position average"}
			if p.Corroborated {
				t.Catalysts = append(t.Catalysts, "Confirmed on current roster")
			}
		} else {
			t.Trend = model.TrendFalling
			t.Catalysts = []string{"Projection below position average"}
			if !isActive(p.Status) {
				t.Catalysts = append(t.Catalysts, "Status: "+p.Status)
			}
		}
		if p.InjuryMentions > 0 {
			t.Catalysts = append(t.Catalysts, "Injury report activity")
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage > out[j].Percentage
		}
		return out[i].Player < out[j].Player
	})
	if len(out) > h.trendingLimit {
		out = out[:h.trendingLimit]
	}
	return out
}

func ranksBefore(a, b model.ReconciledPlayer) bool {
	if a.ProjectedPoints != b.ProjectedPoints {
		return a.ProjectedPoints > b.ProjectedPoints
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Team < b.Team
}

func positionAverages(players []model.ReconciledPlayer) map[string]float64 {
	sum := make(map[string]float64)
	n := make(map[string]int)
	for _, p := range players {
		sum[p.Position] += p.ProjectedPoints
		n[p.Position]++
	}
	out := make(map[string]float64, len(sum))
	for pos, s := range sum {
		out[pos] = s / float64(n[pos])
	}
	return out
}

// playerConfidence never exceeds the sport confidence.
func playerConfidence(sportConf float64, p model.ReconciledPlayer) float64 {
	c := sportConf
	if !p.Corroborated {
		c *= uncorroboratedFactor
	}
	return floor1(math.Max(0, math.Min(c, sportConf)))
}

func rankingReason(rec model.SportReconciliation, p model.ReconciledPlayer) string {
	if p.Corroborated {
		return fmt.Sprintf("Confirmed by %d corroborating roster entries at %.0f%% sport confidence", p.RosterMatches, rec.Confidence)
	}
	return fmt.Sprintf("Reference projection only; %.0f%% of reference players corroborated", rec.Agreement)
}

func assessRisk(p model.ReconciledPlayer) (model.RiskLevel, []string) {
	var factors []string
	var level model.RiskLevel
	status := strings.ToLower(strings.TrimSpace(p.Status))
	switch status {
	case "out", "ir", "injured reserve", "suspended", "pup":
		level = model.RiskHigh
	case "questionable", "doubtful", "day-to-day", "dtd", "gtd":
		level = model.RiskMedium
	}
	if level != "" {
		factors = append(factors, "Status: "+p.Status)
	}
	if p.InjuryMentions > 0 {
		factors = append(factors, fmt.Sprintf("%d injury report mentions", p.InjuryMentions))
		switch {
		case p.InjuryMentions >= 2 && level == "":
			level = model.RiskMedium
		case level == "":
			level = model.RiskLow
		}
	}
	if level != "" && !p.Corroborated {
		factors = append(factors, "Not on corroborating rosters")
	}
	return level, factors
}

func recommendation(l model.RiskLevel) string {
	switch l {
	case model.RiskHigh:
		return "Bench or replace"
	case model.RiskMedium:
		return "Monitor closely"
	default:
		return "Monitor practice reports"
	}
}

func riskOrder(l model.RiskLevel) int {
	switch l {
	case model.RiskHigh:
		return 3
	case model.RiskMedium:
		return 2
	case model.RiskLow:
		return 1
	}
	return 0
}

func isActive(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	return s == "" || s == "active" || s == "healthy"
}

func key(p model.ReconciledPlayer) string {
	return p.Position + "|" + p.Name + "|" + p.Team
}

func floor1(v float64) float64 {
	return math.Floor(v*10) / 10
}
