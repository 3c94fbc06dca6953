package collector

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/sportsintel/internal/domain/catalog"
	"github.com/okian/sportsintel/internal/domain/model"
	"github.com/okian/sportsintel/pkg/logger"
	"github.com/okian/sportsintel/pkg/metrics"
)

const sourceReference = "reference"

// ReferenceCollector queries a ReferenceProvider for every position of every
// sport. A failed or timed-out position yields an empty list.
type ReferenceCollector struct {
	provider ReferenceProvider
	settings
}

// NewReferenceCollector creates a ReferenceCollector.
func NewReferenceCollector(p ReferenceProvider, opts ...Option) *ReferenceCollector {
	return &ReferenceCollector{provider: p, settings: newSettings("reference-collector", opts)}
}

// CollectAll collects every catalogued position of each sport concurrently.
func (c *ReferenceCollector) CollectAll(ctx context.Context, sports []model.Sport) model.ReferenceData {
	type job struct {
		sport    model.Sport
		position string
	}
	var jobs []job
	for _, s := range sports {
		positions := catalog.Positions(s)
		if len(positions) == 0 {
			c.log.Warn(ctx, "sport has no catalogued positions", logger.String("sport", string(s)))
		}
		for _, p := range positions {
			jobs = append(jobs, job{sport: s, position: p})
		}
	}

	results := make([][]model.PlayerRecord, len(jobs))
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			results[i] = c.fetch(ctx, j.sport, j.position)
			return nil
		})
	}
	_ = g.Wait()

	out := make(model.ReferenceData, len(sports))
	for _, s := range sports {
		out[s] = make(model.PositionRecords)
	}
	for i, j := range jobs {
		out[j.sport][j.position] = results[i]
	}
	return out
}

// Collect queries the given positions of one sport concurrently.
func (c *ReferenceCollector) Collect(ctx context.Context, sport model.Sport, positions []string) model.PositionRecords {
	results := make([][]model.PlayerRecord, len(positions))
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, p := range positions {
		g.Go(func() error {
			results[i] = c.fetch(ctx, sport, p)
			return nil
		})
	}
	_ = g.Wait()

	out := make(model.PositionRecords, len(positions))
	for i, p := range positions {
		out[p] = results[i]
	}
	return out
}

func (c *ReferenceCollector) fetch(ctx context.Context, sport model.Sport, position string) []model.PlayerRecord {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	players, err := guard(func() ([]model.PlayerRecord, error) {
		return c.provider.Projections(callCtx, sport, position)
	})
	metrics.RecordCollectorCall(sourceReference, outcome(err), float64(time.Since(start).Milliseconds()))
	if err != nil {
		c.log.Warn(ctx, "reference position unavailable, using empty list",
			logger.String("sport", string(sport)),
			logger.String("position", position),
			logger.Error(err))
		return []model.PlayerRecord{}
	}

	now := c.now()
	out := make([]model.PlayerRecord, 0, len(players))
	for _, p := range players {
		if p.CollectedAt.IsZero() {
			p.CollectedAt = now
		}
		if p.Position == "" {
			p.Position = position
		}
		if p.Source == "" {
			p.Source = sourceReference
		}
		out = append(out, p)
	}
	c.log.Debug(ctx, "reference position collected",
		logger.String("sport", string(sport)),
		logger.String("position", position),
		logger.Int("players", len(out)))
	return out
}
