// Package service runs the nightly sports-intelligence pipeline: it owns the
// schedule, the single-flight guard, crash recovery and the in-memory
// projection of the latest results.
package service

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	_ "time/tzdata" // schedules name IANA zones

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/okian/sportsintel/internal/adapters/collector"
	"github.com/okian/sportsintel/internal/adapters/notify"
	"github.com/okian/sportsintel/internal/adapters/repository"
	"github.com/okian/sportsintel/internal/domain/catalog"
	"github.com/okian/sportsintel/internal/domain/model"
	"github.com/okian/sportsintel/internal/domain/predict"
	"github.com/okian/sportsintel/internal/domain/reconcile"
	"github.com/okian/sportsintel/internal/domain/roster"
	"github.com/okian/sportsintel/pkg/logger"
)

// Version is reported by GetSystemStatus.
const Version = "1.0.0"

const (
	defaultSchedule           = "0 2 * * *"
	defaultTimezone           = "America/Chicago"
	defaultMissedRunThreshold = 25 * time.Hour
	defaultStartupGrace       = 5 * time.Second
	defaultRunTimeout         = 30 * time.Minute
	defaultSimulationSeed     = 1
	publishTimeout            = 5 * time.Second
)

// Trigger names what started a run.
type Trigger string

// Triggers.
const (
	TriggerScheduled Trigger = "scheduled"
	TriggerCatchUp   Trigger = "catch_up"
	TriggerManual    Trigger = "manual"
)

// RunOutcome describes how one trigger ended.
type RunOutcome struct {
	RunID     string          `json:"run_id,omitempty"`
	Trigger   Trigger         `json:"trigger"`
	Status    model.RunStatus `json:"status,omitempty"`
	Skipped   bool            `json:"skipped"`
	Persisted bool            `json:"persisted"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"-"`
	// DurationMs mirrors Duration for JSON consumers.
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
	Err        error  `json:"-"`
}

// LatestResults is the in-memory projection of the last successful run.
type LatestResults struct {
	RunID               string                  `json:"run_id"`
	RunDate             time.Time               `json:"run_date"`
	ReferenceData       model.ReferenceData     `json:"reference_data"`
	CorroboratingData   model.CorroboratingData `json:"corroborating_data"`
	Reconciliation      model.Reconciliation    `json:"reconciliation"`
	Predictions         model.Predictions       `json:"predictions"`
	Roster              roster.Snapshot         `json:"roster"`
	ProcessingTimeMs    int64                   `json:"processing_time_ms"`
	DataPointsCollected int                     `json:"data_points_collected"`
	Persisted           bool                    `json:"persisted"`
}

// Status is the read-only view returned by GetSystemStatus.
type Status struct {
	IsRunning   bool        `json:"is_running"`
	LastRun     *time.Time  `json:"last_run"`
	NextRun     *time.Time  `json:"next_run"`
	HasResults  bool        `json:"has_results"`
	LastOutcome *RunOutcome `json:"last_outcome,omitempty"`
	Version     string      `json:"version"`
}

// Service is the scheduler and recovery controller.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	store         repository.Store
	reference     ReferenceSource
	corroborating CorroboratingSource
	engine        *reconcile.Engine
	generator     *predict.Generator
	publisher     notify.Publisher

	// Configuration
	sports             []model.Sport
	schedule           string
	location           *time.Location
	missedRunThreshold time.Duration
	startupGrace       time.Duration
	rosterCap          int
	runTimeout         time.Duration
	persistFailedRuns  bool
	now                func() time.Time
	newID              func() string

	// State
	running     atomic.Bool
	latest      atomic.Pointer[LatestResults]
	snapshot    atomic.Pointer[roster.Snapshot]
	lastRun     time.Time
	lastOutcome *RunOutcome
	runs        int64
	skipped     int64

	// Lifecycle
	started  bool
	closed   bool
	baseCtx  context.Context
	cancel   context.CancelFunc
	cron     *cron.Cron
	catchUp  *time.Timer
	inflight sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service. Unset collaborators default to an in-memory
// store and simulated collectors.
func New(opts ...Option) *Service {
	s := &Service{
		sports:             catalog.Sports(),
		schedule:           defaultSchedule,
		missedRunThreshold: defaultMissedRunThreshold,
		startupGrace:       defaultStartupGrace,
		rosterCap:          roster.DefaultCap,
		runTimeout:         defaultRunTimeout,
		now:                time.Now,
		newID:              uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("scheduler")
	}
	if s.location == nil {
		loc, err := time.LoadLocation(defaultTimezone)
		if err != nil {
			loc = time.UTC
		}
		s.location = loc
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.reference == nil || s.corroborating == nil {
		sim := collector.NewSimulated(defaultSimulationSeed)
		if s.reference == nil {
			s.reference = collector.NewReferenceCollector(sim, collector.WithLogger(s.logger.Named("reference")))
		}
		if s.corroborating == nil {
			s.corroborating = collector.NewCorroboratingCollector(sim, collector.WithLogger(s.logger.Named("corroborating")))
		}
	}
	if s.engine == nil {
		s.engine = reconcile.New(reconcile.WithClock(s.now))
	}
	if s.generator == nil {
		s.generator = predict.NewGenerator(nil)
	}
	if s.publisher == nil {
		s.publisher = notify.Noop{}
	}
	s.baseCtx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Start arms the nightly schedule, restores state from the store and, when
// a run was missed, schedules a one-shot catch-up run. A stopped Service
// cannot be restarted.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStopped
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "starting sports intelligence service...",
		logger.String("schedule", s.schedule),
		logger.String("timezone", s.location.String()),
	)

	if err := s.scheduleNightlyRun(ctx); err != nil {
		s.mu.Lock()
		s.started = false
		s.mu.Unlock()
		return err
	}
	s.Initialize(ctx)

	s.logger.Info(ctx, "sports intelligence service started",
		logger.Int("sports", len(s.sports)),
		logger.Time("nextRun", s.NextRun()),
	)
	return nil
}

// Stop halts the schedule and any pending catch-up, cancels a background
// run and waits for it. Injected collaborators are left open.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.started = false
	c, t, cancel := s.cron, s.catchUp, s.cancel
	s.cron = nil
	s.catchUp = nil
	s.mu.Unlock()

	s.logger.Info(context.Background(), "stopping sports intelligence service...")

	if t != nil {
		t.Stop()
	}
	if c != nil {
		<-c.Stop().Done()
	}
	cancel()
	s.inflight.Wait()

	s.logger.Info(context.Background(), "sports intelligence service stopped")
}

// GetSystemStatus reports whether a run is active, when the last and next
// runs are, and how the last trigger ended.
func (s *Service) GetSystemStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		IsRunning:  s.running.Load(),
		HasResults: s.latest.Load() != nil,
		Version:    Version,
	}
	if !s.lastRun.IsZero() {
		lr := s.lastRun
		st.LastRun = &lr
	}
	if next := s.nextRunLocked(); !next.IsZero() {
		st.NextRun = &next
	}
	if s.lastOutcome != nil {
		o := *s.lastOutcome
		st.LastOutcome = &o
	}
	return st
}

// GetLatestResults returns the projection of the last successful run, or
// nil when there is none.
func (s *Service) GetLatestResults() *LatestResults {
	return s.latest.Load()
}

// Roster returns the current roster snapshot, or nil before the first run.
func (s *Service) Roster() roster.Snapshot {
	if p := s.snapshot.Load(); p != nil {
		return *p
	}
	return nil
}

// RunManualAnalysis runs the pipeline synchronously and returns the outcome
// together with the latest results. A run already in progress makes the
// outcome Skipped.
func (s *Service) RunManualAnalysis(ctx context.Context) (RunOutcome, *LatestResults) {
	s.logger.Info(ctx, "manual analysis triggered")
	out := s.RunPipeline(ctx, TriggerManual)
	return out, s.GetLatestResults()
}

// History lists stored runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]model.RunSummary, error) {
	return s.store.List(ctx, limit)
}

// Run loads one stored run.
func (s *Service) Run(ctx context.Context, id string) (*model.RunRecord, error) {
	return s.store.Get(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sports := make([]string, len(s.sports))
	for i, sp := range s.sports {
		sports[i] = string(sp)
	}
	stats := map[string]interface{}{
		"started":    s.started,
		"running":    s.running.Load(),
		"runs":       s.runs,
		"skipped":    s.skipped,
		"sports":     sports,
		"schedule":   s.schedule,
		"timezone":   s.location.String(),
		"rosterCap":  s.rosterCap,
		"goroutines": runtime.NumGoroutine(),
	}
	if snap := s.snapshot.Load(); snap != nil {
		entries := 0
		for _, sp := range s.sports {
			entries += snap.Count(sp)
		}
		stats["rosterEntries"] = entries
	}
	return stats
}
