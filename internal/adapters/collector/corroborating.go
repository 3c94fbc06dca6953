package collector

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/sportsintel/internal/domain/catalog"
	"github.com/okian/sportsintel/internal/domain/model"
	"github.com/okian/sportsintel/pkg/logger"
	"github.com/okian/sportsintel/pkg/metrics"
)

const sourceSearch = "search"

// CorroboratingCollector runs the catalogued searches of each sport and
// groups the hits by category. A failed query contributes no entries.
type CorroboratingCollector struct {
	provider SearchProvider
	settings
}

// NewCorroboratingCollector creates a CorroboratingCollector.
func NewCorroboratingCollector(p SearchProvider, opts ...Option) *CorroboratingCollector {
	return &CorroboratingCollector{provider: p, settings: newSettings("corroborating-collector", opts)}
}

// CollectAll collects every sport concurrently.
func (c *CorroboratingCollector) CollectAll(ctx context.Context, sports []model.Sport) model.CorroboratingData {
	type job struct {
		sport model.Sport
		query catalog.Query
	}
	now := c.now()
	var jobs []job
	for _, s := range sports {
		for _, q := range catalog.Queries(s, now) {
			jobs = append(jobs, job{sport: s, query: q})
		}
	}

	results := make([][]model.SearchResult, len(jobs))
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			results[i] = c.search(ctx, j.sport, j.query)
			return nil
		})
	}
	_ = g.Wait()

	out := make(model.CorroboratingData, len(sports))
	for _, s := range sports {
		out[s] = emptyBuckets()
	}
	for i, j := range jobs {
		out[j.sport][j.query.Category] = append(out[j.sport][j.query.Category], results[i]...)
	}
	for _, s := range sports {
		c.log.Info(ctx, "corroborating data collected",
			logger.String("sport", string(s)),
			logger.Int("data_points", out[s].Count()))
	}
	return out
}

// Collect runs the searches of a single sport.
func (c *CorroboratingCollector) Collect(ctx context.Context, sport model.Sport) model.Buckets {
	return c.CollectAll(ctx, []model.Sport{sport})[sport]
}

func (c *CorroboratingCollector) search(ctx context.Context, sport model.Sport, q catalog.Query) []model.SearchResult {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	hits, err := guard(func() ([]model.SearchResult, error) {
		return c.provider.Search(callCtx, sport, q)
	})
	metrics.RecordCollectorCall(sourceSearch, outcome(err), float64(time.Since(start).Milliseconds()))
	if err != nil {
		c.log.Warn(ctx, "search failed, skipping category entries",
			logger.String("sport", string(sport)),
			logger.String("category", string(q.Category)),
			logger.Error(err))
		return nil
	}

	now := c.now()
	out := make([]model.SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.Timestamp.IsZero() {
			h.Timestamp = now
		}
		if h.Source == "" {
			h.Source = sourceSearch
		}
		h.Confidence = clampUnit(h.Confidence)
		out = append(out, h)
	}
	return out
}

func emptyBuckets() model.Buckets {
	b := make(model.Buckets, len(model.Categories()))
	for _, c := range model.Categories() {
		b[c] = []model.SearchResult{}
	}
	return b
}

func clampUnit(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
