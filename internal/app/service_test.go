package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/sportsintel/internal/adapters/collector"
	"github.com/okian/sportsintel/internal/adapters/notify"
	"github.com/okian/sportsintel/internal/adapters/repository"
	service "github.com/okian/sportsintel/internal/app"
	"github.com/okian/sportsintel/internal/domain/model"
	"github.com/okian/sportsintel/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// stubReference returns one QB per sport and can block until released.
type stubReference struct {
	entered chan struct{}
	release chan struct{}
	panics  bool
}

func (r *stubReference) CollectAll(ctx context.Context, sports []model.Sport) model.ReferenceData {
	if r.entered != nil {
		close(r.entered)
	}
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
		}
	}
	if r.panics {
		panic("reference exploded")
	}
	out := make(model.ReferenceData, len(sports))
	for _, s := range sports {
		out[s] = model.PositionRecords{"QB": {
			{Name: "Alex Doe", Team: "KC", Position: "QB", ProjectedPoints: 24, Status: "Active", Source: "reference", CollectedAt: fixedNow},
			{Name: "Jo Smith", Team: "BUF", Position: "QB", ProjectedPoints: 18, Status: "Questionable", Source: "reference", CollectedAt: fixedNow},
		}}
	}
	return out
}

type stubCorroborating struct{}

func (stubCorroborating) CollectAll(_ context.Context, sports []model.Sport) model.CorroboratingData {
	out := make(model.CorroboratingData, len(sports))
	for _, s := range sports {
		out[s] = model.Buckets{
			model.CategoryRosters: {{Title: "alex doe", Source: "search", Confidence: 0.9, Timestamp: fixedNow, Data: model.SearchPlayer{Name: "alex doe"}}},
		}
	}
	return out
}

type failingStrategy struct{}

func (failingStrategy) Predict(context.Context, model.Sport, model.SportReconciliation) (model.SportPredictions, error) {
	return model.SportPredictions{}, errors.New("model unavailable")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.RunCompletedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e *notify.RunCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// brokenProvider panics on the quarterback position.
type brokenProvider struct{}

func (brokenProvider) Projections(_ context.Context, _ model.Sport, position string) ([]model.PlayerRecord, error) {
	if position == "QB" {
		panic("provider blew up")
	}
	return []model.PlayerRecord{{Name: "Sam " + position, Team: "KC", ProjectedPoints: 10}}, nil
}

func (p *recordingPublisher) Events() []notify.RunCompletedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.RunCompletedEvent(nil), p.events...)
}

func newService(store repository.Store, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithLogger(logger.Nop()),
		service.WithStore(store),
		service.WithReferenceSource(&stubReference{}),
		service.WithCorroboratingSource(stubCorroborating{}),
		service.WithClock(clock),
		service.WithSports(model.SportNFL),
	}
	return service.New(append(base, opts...)...)
}

func completedRecord(id string, runDate time.Time) *model.RunRecord {
	return &model.RunRecord{
		ID:      id,
		RunDate: runDate,
		Predictions: model.Predictions{model.SportNFL: {
			Confidence:     70,
			PlayerRankings: []model.Ranking{{Rank: 1, Player: "Alex Doe", Team: "KC", Position: "QB", ProjectedPoints: 24, Confidence: 70}},
		}},
		DataPointsCollected: 3,
		Status:              model.RunCompleted,
	}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["running"], ShouldEqual, false)
			So(stats["schedule"], ShouldEqual, "0 2 * * *")
			So(stats["timezone"], ShouldEqual, "America/Chicago")
			So(svc.GetLatestResults(), ShouldBeNil)
			So(svc.Roster(), ShouldBeNil)
		})
	})
}

func TestService_RunPipeline(t *testing.T) {
	Convey("Given a service with stub collectors", t, func() {
		store := repository.NewMemoryStore()
		pub := &recordingPublisher{}
		svc := newService(store, service.WithPublisher(pub), service.WithIDGenerator(func() string { return "run-1" }))
		ctx := context.Background()

		Convey("When a manual analysis runs", func() {
			out, latest := svc.RunManualAnalysis(ctx)

			Convey("Then the run completes and is persisted once", func() {
				So(out.Err, ShouldBeNil)
				So(out.Skipped, ShouldBeFalse)
				So(out.Status, ShouldEqual, model.RunCompleted)
				So(out.Persisted, ShouldBeTrue)
				So(out.RunID, ShouldEqual, "run-1")
				So(store.Len(), ShouldEqual, 1)
			})

			Convey("And the stored record counts every collected data point", func() {
				rec, err := store.Get(ctx, "run-1")
				So(err, ShouldBeNil)
				So(rec.RunDate, ShouldEqual, fixedNow)
				So(rec.DataPointsCollected, ShouldEqual, 3)
				So(rec.Reconciliation[model.SportNFL].Agreement, ShouldEqual, 50)
				So(rec.Predictions[model.SportNFL].PlayerRankings, ShouldNotBeEmpty)
			})

			Convey("And the latest results and roster are swapped in", func() {
				So(latest, ShouldNotBeNil)
				So(latest.RunID, ShouldEqual, "run-1")
				So(latest.Persisted, ShouldBeTrue)
				qbs := svc.Roster()[model.SportNFL]["QB"]
				So(len(qbs), ShouldEqual, 2)
				So(qbs[0].Name, ShouldEqual, "Alex Doe")
				So(qbs[0].AIRecommended, ShouldBeTrue)
			})

			Convey("And the status reports the run", func() {
				st := svc.GetSystemStatus()
				So(st.IsRunning, ShouldBeFalse)
				So(st.HasResults, ShouldBeTrue)
				So(*st.LastRun, ShouldEqual, fixedNow)
				So(st.NextRun, ShouldNotBeNil)
				So(st.LastOutcome.Status, ShouldEqual, model.RunCompleted)
				So(st.Version, ShouldEqual, service.Version)
			})

			Convey("And a run-completed event is published", func() {
				events := pub.Events()
				So(len(events), ShouldEqual, 1)
				So(events[0].RunID, ShouldEqual, "run-1")
				So(events[0].Trigger, ShouldEqual, string(service.TriggerManual))
				So(events[0].Confidence[model.SportNFL], ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestService_SingleFlight(t *testing.T) {
	Convey("Given a run blocked inside collection", t, func() {
		store := repository.NewMemoryStore()
		ref := &stubReference{entered: make(chan struct{}), release: make(chan struct{})}
		svc := newService(store, service.WithReferenceSource(ref))
		ctx := context.Background()

		done := make(chan service.RunOutcome, 1)
		go func() { done <- svc.RunPipeline(ctx, service.TriggerScheduled) }()
		<-ref.entered

		Convey("When a manual trigger arrives", func() {
			out, _ := svc.RunManualAnalysis(ctx)
			running := svc.GetSystemStatus().IsRunning
			close(ref.release)
			first := <-done

			Convey("Then it is skipped without queueing", func() {
				So(running, ShouldBeTrue)
				So(out.Skipped, ShouldBeTrue)
				So(errors.Is(out.Err, service.ErrAlreadyRunning), ShouldBeTrue)
				So(out.RunID, ShouldBeEmpty)
			})

			Convey("And only the first run writes a record", func() {
				So(first.Status, ShouldEqual, model.RunCompleted)
				So(store.Len(), ShouldEqual, 1)
				So(svc.GetSystemStatus().IsRunning, ShouldBeFalse)
				So(svc.GetStats()["skipped"], ShouldEqual, int64(1))
			})
		})
	})
}

func TestService_MissedRunRecovery(t *testing.T) {
	Convey("Given a store whose latest run is 30 hours old", t, func() {
		store := repository.NewMemoryStore()
		So(store.Insert(context.Background(), completedRecord("old", fixedNow.Add(-30*time.Hour))), ShouldBeNil)
		svc := newService(store, service.WithStartupGrace(10*time.Millisecond))
		defer svc.Stop()

		Convey("When the service initializes", func() {
			svc.Initialize(context.Background())

			Convey("Then state is restored and one catch-up run executes", func() {
				So(svc.GetLatestResults(), ShouldNotBeNil)
				So(waitFor(func() bool { return store.Len() == 2 }), ShouldBeTrue)
				So(waitFor(func() bool { return svc.GetSystemStatus().LastOutcome != nil }), ShouldBeTrue)
				So(svc.GetSystemStatus().LastOutcome.Trigger, ShouldEqual, service.TriggerCatchUp)
				So(*svc.GetSystemStatus().LastRun, ShouldEqual, fixedNow)
			})
		})
	})

	Convey("Given a store whose latest run is 5 hours old", t, func() {
		store := repository.NewMemoryStore()
		So(store.Insert(context.Background(), completedRecord("recent", fixedNow.Add(-5*time.Hour))), ShouldBeNil)
		svc := newService(store, service.WithStartupGrace(time.Millisecond))
		defer svc.Stop()

		Convey("When the service initializes", func() {
			svc.Initialize(context.Background())
			time.Sleep(50 * time.Millisecond)

			Convey("Then no catch-up run is scheduled", func() {
				So(svc.CheckForMissedRun(context.Background()), ShouldBeFalse)
				So(store.Len(), ShouldEqual, 1)
				So(svc.GetLatestResults().RunID, ShouldEqual, "recent")
				So(svc.Roster()[model.SportNFL]["QB"][0].Name, ShouldEqual, "Alex Doe")
			})
		})
	})

	Convey("Given an empty store", t, func() {
		svc := newService(repository.NewMemoryStore())
		defer svc.Stop()

		Convey("Then the first run waits for the schedule", func() {
			svc.Initialize(context.Background())
			So(svc.CheckForMissedRun(context.Background()), ShouldBeFalse)
			So(svc.GetSystemStatus().HasResults, ShouldBeFalse)
			So(svc.GetSystemStatus().LastRun, ShouldBeNil)
		})
	})
}

func TestService_AtomicPersistence(t *testing.T) {
	Convey("Given a prediction strategy that fails", t, func() {
		store := repository.NewMemoryStore()
		ctx := context.Background()

		Convey("When a run executes with default settings", func() {
			svc := newService(store, service.WithStrategy(failingStrategy{}))
			out := svc.RunPipeline(ctx, service.TriggerManual)

			Convey("Then no record is written and the guard is released", func() {
				So(out.Status, ShouldEqual, model.RunFailed)
				So(out.Error, ShouldContainSubstring, "model unavailable")
				So(out.Persisted, ShouldBeFalse)
				So(store.Len(), ShouldEqual, 0)
				So(svc.GetLatestResults(), ShouldBeNil)
				So(svc.GetSystemStatus().IsRunning, ShouldBeFalse)
				So(svc.GetSystemStatus().LastRun, ShouldBeNil)
			})
		})

		Convey("When failed-run persistence is enabled", func() {
			svc := newService(store, service.WithStrategy(failingStrategy{}), service.WithPersistFailedRuns(true))
			out := svc.RunPipeline(ctx, service.TriggerManual)

			Convey("Then a failed record carrying the collector payloads is written", func() {
				So(out.Persisted, ShouldBeTrue)
				rec, err := store.Get(ctx, out.RunID)
				So(err, ShouldBeNil)
				So(rec.Status, ShouldEqual, model.RunFailed)
				So(rec.Error, ShouldContainSubstring, "model unavailable")
				So(rec.ReferenceData.Count(), ShouldEqual, 2)
				So(rec.Predictions, ShouldBeEmpty)
			})

			Convey("And it is never picked as the latest completed run", func() {
				_, err := store.Latest(ctx)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given a collector that panics", t, func() {
		store := repository.NewMemoryStore()
		svc := newService(store, service.WithReferenceSource(&stubReference{panics: true}))

		Convey("Then the run fails cleanly", func() {
			out := svc.RunPipeline(context.Background(), service.TriggerScheduled)
			So(out.Status, ShouldEqual, model.RunFailed)
			So(errors.Is(out.Err, service.ErrPhasePanic), ShouldBeTrue)
			So(store.Len(), ShouldEqual, 0)
			So(svc.GetSystemStatus().IsRunning, ShouldBeFalse)
		})
	})

	Convey("Given a reference provider that panics inside the collector", t, func() {
		store := repository.NewMemoryStore()
		ref := collector.NewReferenceCollector(brokenProvider{}, collector.WithLogger(logger.Nop()))
		svc := newService(store, service.WithReferenceSource(ref))

		Convey("Then the run completes with that position empty", func() {
			var out service.RunOutcome
			So(func() { out = svc.RunPipeline(context.Background(), service.TriggerScheduled) }, ShouldNotPanic)
			So(out.Status, ShouldEqual, model.RunCompleted)
			So(store.Len(), ShouldEqual, 1)

			latest := svc.GetLatestResults()
			So(latest, ShouldNotBeNil)
			So(latest.ReferenceData[model.SportNFL]["QB"], ShouldBeEmpty)
			So(latest.ReferenceData[model.SportNFL]["RB"], ShouldNotBeEmpty)
		})
	})
}

func TestService_PersistenceFailure(t *testing.T) {
	Convey("Given a store that rejects inserts", t, func() {
		store := repository.NewMemoryStore()
		store.FailInsert = errors.New("database unavailable")
		svc := newService(store)

		Convey("When a run completes", func() {
			out := svc.RunPipeline(context.Background(), service.TriggerManual)

			Convey("Then results stay in memory and the outcome says so", func() {
				So(out.Status, ShouldEqual, model.RunCompleted)
				So(out.Persisted, ShouldBeFalse)
				latest := svc.GetLatestResults()
				So(latest, ShouldNotBeNil)
				So(latest.Persisted, ShouldBeFalse)
				So(svc.GetSystemStatus().LastOutcome.Persisted, ShouldBeFalse)
				So(store.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestService_Schedule(t *testing.T) {
	Convey("Given the default nightly schedule", t, func() {
		svc := newService(repository.NewMemoryStore())

		Convey("Then the next run is 2:00 AM Chicago time", func() {
			loc, err := time.LoadLocation("America/Chicago")
			So(err, ShouldBeNil)
			next := svc.NextRun().In(loc)
			So(next.Hour(), ShouldEqual, 2)
			So(next.Minute(), ShouldEqual, 0)
			So(next.Day(), ShouldEqual, 17)
		})
	})

	Convey("Given an invalid schedule", t, func() {
		svc := newService(repository.NewMemoryStore(), service.WithSchedule("not a cron"))

		Convey("Then Start fails and NextRun is zero", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
			So(svc.NextRun().IsZero(), ShouldBeTrue)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newService(repository.NewMemoryStore())
		So(svc.Start(context.Background()), ShouldBeNil)
		So(svc.GetStats()["started"], ShouldEqual, true)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it is marked stopped and cannot restart", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(errors.Is(svc.Start(context.Background()), service.ErrStopped), ShouldBeTrue)
				So(func() { svc.Stop() }, ShouldNotPanic)
			})
		})
	})
}
