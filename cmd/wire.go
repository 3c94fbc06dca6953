package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/sportsintel/internal/adapters/collector"
	"github.com/okian/sportsintel/internal/adapters/notify"
	"github.com/okian/sportsintel/internal/adapters/repository"
	service "github.com/okian/sportsintel/internal/app"
	"github.com/okian/sportsintel/internal/config"
	"github.com/okian/sportsintel/internal/domain/catalog"
	"github.com/okian/sportsintel/internal/domain/model"
	"github.com/okian/sportsintel/internal/domain/predict"
	"github.com/okian/sportsintel/internal/domain/reconcile"
	"github.com/okian/sportsintel/pkg/logger"
)

var errNoSports = errors.New("no supported sports configured")

// components owns everything the service is built from. The service does not
// close injected collaborators, so Close does.
type components struct {
	store     repository.Store
	publisher notify.Publisher
	service   *service.Service
}

func (c *components) Close(ctx context.Context, log logger.Logger) {
	c.service.Stop()
	if err := c.publisher.Close(); err != nil {
		log.Warn(ctx, "publisher close failed", logger.Error(err))
	}
	if err := c.store.Close(); err != nil {
		log.Warn(ctx, "store close failed", logger.Error(err))
	}
}

func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*components, error) {
	sports, err := parseSports(ctx, cfg.Sports, log)
	if err != nil {
		return nil, err
	}

	store, err := repository.Open(ctx, cfg.StoreDriver, cfg.StoreDSN, repository.WithLogger(log.Named("repository")))
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(ctx, cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	ref, corr := newSources(cfg, log)
	svc := service.New(
		service.WithLogger(log.Named("service")),
		service.WithStore(store),
		service.WithReferenceSource(ref),
		service.WithCorroboratingSource(corr),
		service.WithEngine(reconcile.New(reconcile.WithFreshnessWindow(cfg.FreshnessWindow))),
		service.WithStrategy(predict.NewHeuristic(predict.WithRankingsLimit(cfg.RankingsLimit))),
		service.WithPublisher(publisher),
		service.WithSports(sports...),
		service.WithSchedule(cfg.Schedule),
		service.WithLocation(cfg.Location()),
		service.WithMissedRunThreshold(cfg.MissedRunThreshold),
		service.WithStartupGrace(cfg.StartupGrace),
		service.WithRosterCap(cfg.RosterCap),
		service.WithRunTimeout(cfg.RunTimeout),
		service.WithPersistFailedRuns(cfg.PersistFailedRuns),
	)
	return &components{store: store, publisher: publisher, service: svc}, nil
}

// newSources uses the HTTP providers when a base URL is configured and the
// seeded simulation otherwise. Both simulated sources share one player pool.
func newSources(cfg *config.Config, log logger.Logger) (*collector.ReferenceCollector, *collector.CorroboratingCollector) {
	var sim *collector.Simulated
	simulated := func() *collector.Simulated {
		if sim == nil {
			sim = collector.NewSimulated(cfg.SimulationSeed)
		}
		return sim
	}

	var refProvider collector.ReferenceProvider
	if cfg.ReferenceBaseURL != "" {
		refProvider = collector.NewHTTPReference(collector.NewClient(collector.ClientConfig{
			BaseURL:   cfg.ReferenceBaseURL,
			APIKey:    cfg.ReferenceAPIKey,
			Timeout:   cfg.CollectorTimeout,
			RateLimit: cfg.ReferenceRateLimit,
		}))
	} else {
		refProvider = simulated()
	}

	var searchProvider collector.SearchProvider
	if cfg.SearchBaseURL != "" {
		searchProvider = collector.NewHTTPSearch(collector.NewClient(collector.ClientConfig{
			BaseURL:   cfg.SearchBaseURL,
			APIKey:    cfg.SearchAPIKey,
			Timeout:   cfg.CollectorTimeout,
			RateLimit: cfg.SearchRateLimit,
		}))
	} else {
		searchProvider = simulated()
	}

	opts := []collector.Option{
		collector.WithLogger(log.Named("collector")),
		collector.WithTimeout(cfg.CollectorTimeout),
		collector.WithConcurrency(cfg.CollectorConcurrency),
	}
	return collector.NewReferenceCollector(refProvider, opts...), collector.NewCorroboratingCollector(searchProvider, opts...)
}

func newPublisher(ctx context.Context, cfg *config.Config, log logger.Logger) (notify.Publisher, error) {
	if cfg.RedisURL == "" {
		return notify.Noop{}, nil
	}
	p, err := notify.NewRedis(notify.RedisConfig{
		URL:     cfg.RedisURL,
		Channel: cfg.RedisChannel,
		Retries: notify.DefaultRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("redis publisher: %w", err)
	}
	log.Info(ctx, "publishing run events to redis", logger.String("channel", cfg.RedisChannel))
	return p, nil
}

// parseSports drops sports without a catalog entry.
func parseSports(ctx context.Context, names []string, log logger.Logger) ([]model.Sport, error) {
	sports := make([]model.Sport, 0, len(names))
	for _, name := range names {
		s := model.Sport(strings.ToLower(strings.TrimSpace(name)))
		if !catalog.Known(s) {
			log.Warn(ctx, "ignoring unsupported sport", logger.String("sport", name))
			continue
		}
		sports = append(sports, s)
	}
	if len(sports) == 0 {
		return nil, errNoSports
	}
	return sports, nil
}
