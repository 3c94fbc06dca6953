package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/sportsintel/internal/adapters/notify"
	"github.com/okian/sportsintel/internal/domain/model"
	"github.com/okian/sportsintel/internal/domain/roster"
	"github.com/okian/sportsintel/pkg/logger"
	"github.com/okian/sportsintel/pkg/metrics"
)

// Pipeline phases, in execution order.
const (
	PhaseCollect     = "collect"
	PhaseReconcile   = "reconcile"
	PhasePredict     = "predict"
	PhaseMaterialize = "materialize"
	PhasePersist     = "persist"
)

// runState carries phase outputs from one phase to the next.
type runState struct {
	reference     model.ReferenceData
	corroborating model.CorroboratingData
	collected     bool
	rec           model.Reconciliation
	preds         model.Predictions
	snap          roster.Snapshot
}

func (st *runState) dataPoints() int {
	return st.reference.Count() + st.corroborating.Count()
}

// RunPipeline is the single guarded entry point for every trigger. When a
// run is already in progress it returns a Skipped outcome immediately.
// Otherwise it runs collect, reconcile, predict, materialize and persist in
// order. Phase errors and panics end the run as failed; the guard is
// released in every case.
func (s *Service) RunPipeline(ctx context.Context, trigger Trigger) (out RunOutcome) {
	out = RunOutcome{Trigger: trigger, StartedAt: s.now()}
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Info(ctx, "analysis already running, skipping...", logger.String("trigger", string(trigger)))
		metrics.RecordTriggerSkipped(string(trigger))
		s.mu.Lock()
		s.skipped++
		s.mu.Unlock()
		out.Skipped = true
		out.Err = ErrAlreadyRunning
		out.Error = ErrAlreadyRunning.Error()
		return out
	}
	metrics.SetRunning(true)
	began := time.Now()

	defer func() {
		if r := recover(); r != nil {
			out.Status = model.RunFailed
			out.Err = fmt.Errorf("%w: %v", ErrPhasePanic, r)
			out.Error = out.Err.Error()
			s.logger.Error(ctx, "sports intelligence analysis panicked", logger.Any("panic", r))
		}
		s.running.Store(false)
		metrics.SetRunning(false)
	}()

	out.RunID = s.newID()
	log := s.logger.With(logger.String("runId", out.RunID), logger.String("trigger", string(trigger)))
	log.Info(ctx, "starting sports intelligence analysis...")

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	var st runState
	phases := []struct {
		name string
		fn   func(context.Context) error
	}{
		{PhaseCollect, func(ctx context.Context) error { return s.collect(ctx, &st) }},
		{PhaseReconcile, func(context.Context) error {
			st.rec = s.engine.Reconcile(st.reference, st.corroborating)
			return nil
		}},
		{PhasePredict, func(ctx context.Context) error {
			preds, err := s.generator.Generate(ctx, st.rec)
			st.preds = preds
			return err
		}},
		{PhaseMaterialize, func(context.Context) error {
			snap := roster.Materialize(st.preds, s.rosterCap)
			st.snap = snap
			s.snapshot.Store(&snap)
			return nil
		}},
	}

	var err error
	for _, p := range phases {
		if err = s.trackPhase(runCtx, log, p.name, p.fn); err != nil {
			break
		}
	}

	if err != nil {
		s.failed(runCtx, log, &out, &st, err, began)
	} else {
		s.completed(runCtx, log, &out, &st, began)
	}

	s.publish(ctx, log, &out, &st)
	return out
}

// collect runs both collector families concurrently and joins them.
func (s *Service) collect(ctx context.Context, st *runState) error {
	var g errgroup.Group
	g.Go(func() error {
		return safely(func() error {
			st.reference = s.reference.CollectAll(ctx, s.sports)
			return nil
		})
	})
	g.Go(func() error {
		return safely(func() error {
			st.corroborating = s.corroborating.CollectAll(ctx, s.sports)
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	st.collected = true
	metrics.UpdateDataPoints(st.dataPoints())
	return nil
}

func (s *Service) completed(ctx context.Context, log logger.Logger, out *RunOutcome, st *runState, began time.Time) {
	rec := &model.RunRecord{
		ID:                  out.RunID,
		RunDate:             out.StartedAt,
		ReferenceData:       st.reference,
		CorroboratingData:   st.corroborating,
		Reconciliation:      st.rec,
		Predictions:         st.preds,
		ProcessingTimeMs:    time.Since(began).Milliseconds(),
		DataPointsCollected: st.dataPoints(),
		Status:              model.RunCompleted,
	}
	perr := s.trackPhase(ctx, log, PhasePersist, func(ctx context.Context) error {
		return s.store.Insert(ctx, rec)
	})
	if perr != nil {
		log.Error(ctx, "failed to persist analysis, results kept in memory only", logger.Error(perr))
	}

	out.Status = model.RunCompleted
	out.Persisted = perr == nil
	s.finish(out, began)

	s.latest.Store(&LatestResults{
		RunID:               rec.ID,
		RunDate:             rec.RunDate,
		ReferenceData:       rec.ReferenceData,
		CorroboratingData:   rec.CorroboratingData,
		Reconciliation:      rec.Reconciliation,
		Predictions:         rec.Predictions,
		Roster:              st.snap,
		ProcessingTimeMs:    rec.ProcessingTimeMs,
		DataPointsCollected: rec.DataPointsCollected,
		Persisted:           out.Persisted,
	})

	s.mu.Lock()
	if out.StartedAt.After(s.lastRun) {
		s.lastRun = out.StartedAt
	}
	s.runs++
	o := *out
	s.lastOutcome = &o
	s.mu.Unlock()

	metrics.UpdateLastRun(out.StartedAt)
	metrics.RecordRun(string(model.RunCompleted), float64(out.DurationMs))
	for sport, r := range st.rec {
		metrics.UpdateSportReconciliation(string(sport), r.Agreement, r.Confidence, len(r.Discrepancies))
		metrics.UpdateRosterEntries(string(sport), st.snap.Count(sport))
	}

	log.Info(ctx, "sports intelligence analysis complete",
		logger.Int64("processingMs", out.DurationMs),
		logger.Int("dataPoints", rec.DataPointsCollected),
		logger.Bool("persisted", out.Persisted),
	)
}

// failed records a failed run. A RunRecord is written only when failed-run
// persistence is enabled and collection finished.
func (s *Service) failed(ctx context.Context, log logger.Logger, out *RunOutcome, st *runState, err error, began time.Time) {
	out.Status = model.RunFailed
	out.Err = err
	out.Error = err.Error()

	if s.persistFailedRuns && st.collected {
		rec := &model.RunRecord{
			ID:                  out.RunID,
			RunDate:             out.StartedAt,
			ReferenceData:       st.reference,
			CorroboratingData:   st.corroborating,
			ProcessingTimeMs:    time.Since(began).Milliseconds(),
			DataPointsCollected: st.dataPoints(),
			Status:              model.RunFailed,
			Error:               out.Error,
		}
		// The run context may be the reason for the failure.
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		perr := s.trackPhase(pctx, log, PhasePersist, func(ctx context.Context) error {
			return s.store.Insert(ctx, rec)
		})
		cancel()
		out.Persisted = perr == nil
	}
	s.finish(out, began)

	s.mu.Lock()
	s.runs++
	o := *out
	s.lastOutcome = &o
	s.mu.Unlock()

	metrics.RecordRun(string(model.RunFailed), float64(out.DurationMs))
	log.Error(ctx, "sports intelligence analysis failed",
		logger.Error(err),
		logger.Int64("processingMs", out.DurationMs),
		logger.Bool("persisted", out.Persisted),
	)
}

func (s *Service) finish(out *RunOutcome, began time.Time) {
	out.Duration = time.Since(began)
	out.DurationMs = out.Duration.Milliseconds()
}

// publish announces the run. Delivery failures are logged only.
func (s *Service) publish(ctx context.Context, log logger.Logger, out *RunOutcome, st *runState) {
	event := &notify.RunCompletedEvent{
		EventType:           notify.EventType,
		RunID:               out.RunID,
		Status:              out.Status,
		RunDate:             out.StartedAt,
		DurationMs:          out.DurationMs,
		DataPointsCollected: st.dataPoints(),
		Persisted:           out.Persisted,
		Trigger:             string(out.Trigger),
		Error:               out.Error,
	}
	if len(st.rec) > 0 {
		event.Confidence = make(map[model.Sport]float64, len(st.rec))
		for sport, r := range st.rec {
			event.Confidence[sport] = r.Confidence
		}
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pctx, event); err != nil {
		metrics.RecordNotification("error")
		log.Warn(ctx, "failed to publish run notification", logger.Error(err))
		return
	}
	metrics.RecordNotification("ok")
}

// trackPhase runs one phase with panic recovery and records its duration.
func (s *Service) trackPhase(ctx context.Context, log logger.Logger, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := safely(func() error { return fn(ctx) })
	took := time.Since(start)
	metrics.RecordPhase(name, float64(took.Milliseconds()))
	if err != nil {
		log.Error(ctx, "phase failed", logger.String("phase", name), logger.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Debug(ctx, "phase complete", logger.String("phase", name), logger.Duration("took", took))
	return nil
}

func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPhasePanic, r)
		}
	}()
	return fn()
}
