package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/okian/sportsintel/internal/adapters/http/api"
	"github.com/okian/sportsintel/internal/adapters/http/site"
	"github.com/okian/sportsintel/internal/adapters/http/swagger"
	"github.com/okian/sportsintel/internal/adapters/mcpserver"
	"github.com/okian/sportsintel/internal/adapters/repository"
	service "github.com/okian/sportsintel/internal/app"
	"github.com/okian/sportsintel/internal/config"
	"github.com/okian/sportsintel/internal/domain/model"
	"github.com/okian/sportsintel/pkg/logger"
	"github.com/okian/sportsintel/pkg/metrics"
)

// HTTP server timeout constants. Manual runs are synchronous, so the write
// timeout follows the configured run timeout plus writeTimeoutMargin.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Minute
	writeTimeoutMargin        = time.Minute
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
	defaultHistoryLimit       = 20
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "sportsintel",
		Usage:   "Nightly sports intelligence aggregation and reconciliation",
		Version: service.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"SPORTSINTEL_CONFIG"},
			},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the scheduler and the HTTP API (default)",
				Action: serveAction,
			},
			{
				Name:   "run",
				Usage:  "Run the pipeline once and print the outcome",
				Action: runAction,
			},
			{
				Name:   "latest",
				Usage:  "Print the latest completed run from the store",
				Action: latestAction,
			},
			{
				Name:  "history",
				Usage: "List stored runs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to list",
						Value: defaultHistoryLimit,
					},
				},
				Action: historyAction,
			},
		},
	}
}

// bootstrap loads configuration and initializes the global logger on w.
func bootstrap(c *cli.Context, w io.Writer) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(c.Context, c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		return nil, nil, fmt.Errorf("failed to set log format: %w", err)
	}
	if err := logger.InitWithWriter(w); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.Get()
	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(c.Context, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, log, nil
}

func serveAction(c *cli.Context) error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := bootstrap(c, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	comps, err := build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}
	defer comps.Close(context.Background(), log)

	svc := comps.service
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	go startSystemMetricsUpdater(ctx)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, api.DefaultMaxLimit).Register(ctx, mux)
	site.Register(ctx, mux, svc, cfg.MCPEnabled)
	if cfg.MCPEnabled {
		mcpserver.Register(mux, mcpserver.NewServer(svc, service.Version, log.Named("mcp")))
		log.Info(ctx, "mcp endpoint enabled", logger.String("path", mcpserver.Path))
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeoutFor(cfg.RunTimeout),
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
	return nil
}

// writeTimeoutFor leaves a synchronous manual run time to answer before the
// server cuts the response.
func writeTimeoutFor(runTimeout time.Duration) time.Duration {
	if runTimeout <= 0 {
		return writeTimeout
	}
	return runTimeout + writeTimeoutMargin
}

type sportSummary struct {
	Agreement     float64 `json:"agreement"`
	Confidence    float64 `json:"confidence"`
	Discrepancies int     `json:"discrepancies"`
	Rankings      int     `json:"rankings"`
	RosterEntries int     `json:"roster_entries"`
}

type runReport struct {
	Outcome service.RunOutcome           `json:"outcome"`
	Sports  map[model.Sport]sportSummary `json:"sports,omitempty"`
}

func runAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := bootstrap(c, c.App.ErrWriter)
	if err != nil {
		return err
	}
	comps, err := build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}
	defer comps.Close(context.Background(), log)

	out, results := comps.service.RunManualAnalysis(ctx)
	report := runReport{Outcome: out}
	if results != nil {
		report.Sports = make(map[model.Sport]sportSummary, len(results.Reconciliation))
		for sport, rec := range results.Reconciliation {
			report.Sports[sport] = sportSummary{
				Agreement:     rec.Agreement,
				Confidence:    rec.Confidence,
				Discrepancies: len(rec.Discrepancies),
				Rankings:      len(results.Predictions[sport].PlayerRankings),
				RosterEntries: results.Roster.Count(sport),
			}
		}
	}
	if err := printJSON(c.App.Writer, report); err != nil {
		return err
	}
	if out.Status == model.RunFailed {
		return cli.Exit("analysis failed: "+out.Error, 1)
	}
	return nil
}

func latestAction(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, store repository.Store) error {
		rec, err := store.Latest(ctx)
		if errors.Is(err, repository.ErrNotFound) {
			return cli.Exit("no completed run stored", 1)
		}
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, rec)
	})
}

func historyAction(c *cli.Context) error {
	limit := c.Int("limit")
	if limit < 1 {
		return cli.Exit("--limit must be positive", 2)
	}
	return withStore(c, func(ctx context.Context, store repository.Store) error {
		runs, err := store.List(ctx, limit)
		if err != nil {
			return err
		}
		if runs == nil {
			runs = []model.RunSummary{}
		}
		return printJSON(c.App.Writer, runs)
	})
}

// withStore opens only the configured store, for read commands.
func withStore(c *cli.Context, fn func(context.Context, repository.Store) error) error {
	cfg, log, err := bootstrap(c, c.App.ErrWriter)
	if err != nil {
		return err
	}
	store, err := repository.Open(c.Context, cfg.StoreDriver, cfg.StoreDSN, repository.WithLogger(log.Named("repository")))
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()
	return fn(c.Context, store)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
