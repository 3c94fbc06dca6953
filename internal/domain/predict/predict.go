// Package predict turns reconciliation output into rankings, injury risk,
// value opportunities and trending players per sport.
package predict

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/okian/sportsintel/internal/domain/model"
)

// ErrStrategy wraps failures returned by a Strategy.
var ErrStrategy = errors.New("prediction strategy failed")

// Strategy produces predictions for one sport. Implementations must return
// deterministic ordering and never state a confidence above rec.Confidence.
type Strategy interface {
	Predict(ctx context.Context, sport model.Sport, rec model.SportReconciliation) (model.SportPredictions, error)
}

// Generator applies a Strategy to every sport independently.
type Generator struct {
	strategy Strategy
}

// NewGenerator creates a Generator. A nil strategy selects the heuristic one.
func NewGenerator(s Strategy) *Generator {
	if s == nil {
		s = NewHeuristic()
	}
	return &Generator{strategy: s}
}

// Generate predicts every sport in sorted order. The first failing sport
// aborts generation. No stated confidence, per sport or per record, exceeds
// the sport's reconciliation confidence.
func (g *Generator) Generate(ctx context.Context, rec model.Reconciliation) (model.Predictions, error) {
	sports := make([]model.Sport, 0, len(rec))
	for s := range rec {
		sports = append(sports, s)
	}
	sort.Slice(sports, func(i, j int) bool { return sports[i] < sports[j] })

	out := make(model.Predictions, len(sports))
	for _, s := range sports {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := g.strategy.Predict(ctx, s, rec[s])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrStrategy, s, err)
		}
		ceiling := rec[s].Confidence
		p.Confidence = ceiling
		for i := range p.PlayerRankings {
			p.PlayerRankings[i].Confidence = capAt(p.PlayerRankings[i].Confidence, ceiling)
		}
		for i := range p.ValueOpportunities {
			p.ValueOpportunities[i].Confidence = capAt(p.ValueOpportunities[i].Confidence, ceiling)
		}
		out[s] = p
	}
	return out, nil
}

func capAt(v, ceiling float64) float64 {
	switch {
	case math.IsNaN(v) || v > ceiling:
		return ceiling
	case v < 0:
		return 0
	}
	return v
}
