package service

import (
	"context"
	"time"

	"github.com/okian/sportsintel/internal/adapters/notify"
	"github.com/okian/sportsintel/internal/adapters/repository"
	"github.com/okian/sportsintel/internal/domain/model"
	"github.com/okian/sportsintel/internal/domain/predict"
	"github.com/okian/sportsintel/internal/domain/reconcile"
	"github.com/okian/sportsintel/pkg/logger"
)

// ReferenceSource collects the authoritative projections for all sports.
type ReferenceSource interface {
	CollectAll(ctx context.Context, sports []model.Sport) model.ReferenceData
}

// CorroboratingSource collects search-derived evidence for all sports.
type CorroboratingSource interface {
	CollectAll(ctx context.Context, sports []model.Sport) model.CorroboratingData
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the run record store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithReferenceSource sets the reference collector.
func WithReferenceSource(r ReferenceSource) Option {
	return func(s *Service) {
		if r != nil {
			s.reference = r
		}
	}
}

// WithCorroboratingSource sets the corroborating collector.
func WithCorroboratingSource(c CorroboratingSource) Option {
	return func(s *Service) {
		if c != nil {
			s.corroborating = c
		}
	}
}

// WithEngine sets the reconciliation engine.
func WithEngine(e *reconcile.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithStrategy sets the prediction strategy.
func WithStrategy(st predict.Strategy) Option {
	return func(s *Service) {
		if st != nil {
			s.generator = predict.NewGenerator(st)
		}
	}
}

// WithPublisher sets where run-completed events go.
func WithPublisher(p notify.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSports sets the sports analysed on every run.
func WithSports(sports ...model.Sport) Option {
	return func(s *Service) {
		if len(sports) > 0 {
			s.sports = append([]model.Sport(nil), sports...)
		}
	}
}

// WithSchedule sets the standard five-field cron expression.
func WithSchedule(spec string) Option {
	return func(s *Service) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

// WithLocation sets the timezone the schedule is evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithMissedRunThreshold sets how old the last run may be before a
// catch-up run is scheduled at startup.
func WithMissedRunThreshold(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.missedRunThreshold = d
		}
	}
}

// WithStartupGrace sets the delay before a catch-up run starts.
func WithStartupGrace(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.startupGrace = d
		}
	}
}

// WithRosterCap sets the number of players kept per position.
func WithRosterCap(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.rosterCap = n
		}
	}
}

// WithRunTimeout bounds a whole pipeline run.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.runTimeout = d
		}
	}
}

// WithPersistFailedRuns writes a failed RunRecord when a phase after
// collection fails.
func WithPersistFailedRuns(enabled bool) Option {
	return func(s *Service) {
		s.persistFailedRuns = enabled
	}
}

// WithIDGenerator overrides the run ID generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}
