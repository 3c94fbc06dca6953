package collector

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/okian/sportsintel/internal/domain/catalog"
	"github.com/okian/sportsintel/internal/domain/model"
)

const (
	defaultSimMinLatency = 50 * time.Millisecond
	defaultSimMaxLatency = 150 * time.Millisecond
	poolSize             = 60
	minSearchResults     = 5
	maxSearchResults     = 14
	minConfidence        = 0.6
)

//nolint:gochecknoglobals // name pools and weighted statuses
var (
	firstNames = []string{"Alex", "Jordan", "Casey", "Riley", "Morgan", "Taylor", "Jamie", "Drew", "Quinn", "Avery", "Parker", "Reese"}
	lastNames  = []string{"Doe", "Smith", "Lee", "Garcia", "Brown", "Nguyen", "Walker", "Young", "King", "Hill", "Ward", "Price"}
	statuses   = []string{"Active", "Active", "Active", "Active", "Questionable", "Doubtful", "Out", "IR"}
)

// Simulated produces plausible reference projections and search results
// from a seeded generator, with simulated latency. Both provider interfaces
// are implemented over the same per-sport player pool so that sources
// partially agree.
type Simulated struct {
	mu         sync.Mutex
	rng        *rand.Rand
	minLatency time.Duration
	maxLatency time.Duration
	failRate   float64
}

// SimulatedOption configures a Simulated provider.
type SimulatedOption func(*Simulated)

// WithLatencyRange sets the simulated latency range. A zero range disables latency.
func WithLatencyRange(minLatency, maxLatency time.Duration) SimulatedOption {
	return func(s *Simulated) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithFailRate makes that fraction of calls fail.
func WithFailRate(r float64) SimulatedOption {
	return func(s *Simulated) {
		if r >= 0 && r <= 1 {
			s.failRate = r
		}
	}
}

// NewSimulated creates a Simulated provider seeded with seed.
func NewSimulated(seed int64, opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		rng:        rand.New(rand.NewSource(seed)), //nolint:gosec // reproducible simulation
		minLatency: defaultSimMinLatency,
		maxLatency: defaultSimMaxLatency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Projections implements ReferenceProvider.
func (s *Simulated) Projections(ctx context.Context, sport model.Sport, position string) ([]model.PlayerRecord, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng.Float64() < s.failRate {
		return nil, fmt.Errorf("%w: simulated outage for %s %s", ErrProviderStatus, sport, position)
	}
	teams := catalog.Teams(sport)
	n := 4 + s.rng.Intn(6)
	out := make([]model.PlayerRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.PlayerRecord{
			Name:            s.poolName(),
			Team:            pick(s.rng, teams),
			Position:        position,
			ProjectedPoints: float64(10+s.rng.Intn(30)) + float64(s.rng.Intn(10))/10,
			Status:          pick(s.rng, statuses),
			Source:          "simulated-reference",
		})
	}
	return out, nil
}

// Search implements SearchProvider.
func (s *Simulated) Search(ctx context.Context, sport model.Sport, q catalog.Query) ([]model.SearchResult, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng.Float64() < s.failRate {
		return nil, fmt.Errorf("%w: simulated outage for %s %s", ErrProviderStatus, sport, q.Category)
	}
	teams := catalog.Teams(sport)
	positions := catalog.Positions(sport)
	n := minSearchResults + s.rng.Intn(maxSearchResults-minSearchResults+1)
	out := make([]model.SearchResult, 0, n)
	for i := 0; i < n; i++ {
		name := s.poolName()
		if s.rng.Intn(2) == 0 {
			name = strings.ToLower(name)
		}
		status := "Active"
		if q.Category == model.CategoryInjuries {
			status = pick(s.rng, statuses[4:])
		}
		out = append(out, model.SearchResult{
			Title:      fmt.Sprintf("%s Result %d", q.Text, i+1),
			Source:     fmt.Sprintf("Source%d", i+1),
			Confidence: minConfidence + s.rng.Float64()*(1-minConfidence),
			Data: model.SearchPlayer{
				Name:            name,
				Team:            pick(s.rng, teams),
				Position:        pick(s.rng, positions),
				Status:          status,
				ProjectedPoints: float64(10 + s.rng.Intn(30)),
			},
		})
	}
	return out, nil
}

// poolName draws from a fixed pool of first/last combinations. Callers hold mu.
func (s *Simulated) poolName() string {
	i := s.rng.Intn(poolSize)
	return firstNames[i%len(firstNames)] + " " + lastNames[(i/len(firstNames)+i)%len(lastNames)]
}

func (s *Simulated) wait(ctx context.Context) error {
	if s.maxLatency <= 0 {
		return ctx.Err()
	}
	s.mu.Lock()
	latency := s.minLatency
	if span := s.maxLatency - s.minLatency; span > 0 {
		latency += time.Duration(s.rng.Int63n(int64(span)))
	}
	s.mu.Unlock()

	t := time.NewTimer(latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}

func pick(rng *rand.Rand, from []string) string {
	if len(from) == 0 {
		return ""
	}
	return from[rng.Intn(len(from))]
}
