package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/sportsintel/internal/adapters/repository"
	"github.com/okian/sportsintel/internal/domain/model"
	"github.com/okian/sportsintel/internal/domain/roster"
	"github.com/okian/sportsintel/pkg/logger"
	"github.com/okian/sportsintel/pkg/metrics"
)

// Initialize restores lastRun, the latest results and the roster snapshot
// from the most recent completed run, then checks for a missed run. Store
// errors are logged and leave the service empty.
func (s *Service) Initialize(ctx context.Context) {
	s.logger.Info(ctx, "loading previous analysis results from store...")

	rec, err := s.store.Latest(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.logger.Info(ctx, "no previous analysis found, fresh start")
	case err != nil:
		s.logger.Error(ctx, "failed to load previous analysis", logger.Error(err))
	default:
		s.restore(rec)
		s.logger.Info(ctx, "restored previous analysis",
			logger.String("runId", rec.ID),
			logger.Time("runDate", rec.RunDate),
			logger.Int("dataPoints", rec.DataPointsCollected),
		)
	}

	s.CheckForMissedRun(ctx)
}

func (s *Service) restore(rec *model.RunRecord) {
	snap := roster.Materialize(rec.Predictions, s.rosterCap)
	s.snapshot.Store(&snap)
	s.latest.Store(&LatestResults{
		RunID:               rec.ID,
		RunDate:             rec.RunDate,
		ReferenceData:       rec.ReferenceData,
		CorroboratingData:   rec.CorroboratingData,
		Reconciliation:      rec.Reconciliation,
		Predictions:         rec.Predictions,
		Roster:              snap,
		ProcessingTimeMs:    rec.ProcessingTimeMs,
		DataPointsCollected: rec.DataPointsCollected,
		Persisted:           true,
	})

	s.mu.Lock()
	if rec.RunDate.After(s.lastRun) {
		s.lastRun = rec.RunDate
	}
	s.mu.Unlock()
	metrics.UpdateLastRun(rec.RunDate)
}

// CheckForMissedRun schedules a catch-up run after the startup grace period
// when the last run is older than the missed-run threshold. It reports
// whether a catch-up was scheduled. Without a previous run it waits for the
// schedule.
func (s *Service) CheckForMissedRun(ctx context.Context) bool {
	s.mu.RLock()
	last := s.lastRun
	s.mu.RUnlock()

	if last.IsZero() {
		s.logger.Info(ctx, "first run, waiting for the scheduled analysis")
		return false
	}

	age := s.now().Sub(last)
	hours := fmt.Sprintf("%.1f", age.Hours())
	if age <= s.missedRunThreshold {
		s.logger.Info(ctx, "analysis is current", logger.String("hoursAgo", hours))
		return false
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	if s.catchUp != nil {
		s.catchUp.Stop()
	}
	s.catchUp = time.AfterFunc(s.startupGrace, func() { s.background(TriggerCatchUp) })
	s.mu.Unlock()

	metrics.RecordCatchUpRun()
	s.logger.Warn(ctx, "missed run detected, catch-up scheduled",
		logger.String("hoursAgo", hours),
		logger.Duration("grace", s.startupGrace),
	)
	return true
}

// scheduleNightlyRun registers the cron job. The schedule is evaluated in
// the configured location so DST shifts keep the local wall-clock time.
func (s *Service) scheduleNightlyRun(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.location))
	if _, err := c.AddFunc(s.schedule, func() {
		s.logger.Info(s.baseCtx, "starting nightly sports intelligence analysis...")
		s.background(TriggerScheduled)
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", s.schedule, err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()
	c.Start()

	s.logger.Info(ctx, "nightly sports intelligence scheduled",
		logger.String("schedule", s.schedule),
		logger.String("timezone", s.location.String()),
	)
	return nil
}

// background runs the pipeline on the service context. Runs started after
// Stop are dropped.
func (s *Service) background(trigger Trigger) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	ctx := s.baseCtx
	s.mu.Unlock()
	defer s.inflight.Done()

	s.RunPipeline(ctx, trigger)
}

// NextRun returns the next scheduled run time, or the zero time when the
// schedule cannot be parsed.
func (s *Service) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextRunLocked()
}

func (s *Service) nextRunLocked() time.Time {
	sched, err := cron.ParseStandard(s.schedule)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(s.now().In(s.location))
}
