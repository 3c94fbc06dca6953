// Package config defines service configuration and its defaults.
//
// Values are layered by Load: defaults from New, an optional YAML file, then
// SPORTSINTEL_* environment variables. Keys are flat snake_case.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Store drivers understood by the repository adapter.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
	DriverMemory   = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Sports lists the sports processed by every run, in order.
	Sports []string `koanf:"sports"`

	// Schedule is a standard 5-field cron expression evaluated in Timezone.
	Schedule string `koanf:"schedule"`
	Timezone string `koanf:"timezone"`

	// MissedRunThreshold is the age of the last run after which startup
	// triggers a catch-up run. StartupGrace delays that run.
	MissedRunThreshold time.Duration `koanf:"missed_run_threshold"`
	StartupGrace       time.Duration `koanf:"startup_grace"`

	// CollectorTimeout bounds every provider call. RunTimeout bounds a whole run.
	CollectorTimeout     time.Duration `koanf:"collector_timeout"`
	RunTimeout           time.Duration `koanf:"run_timeout"`
	CollectorConcurrency int           `koanf:"collector_concurrency"`

	// FreshnessWindow is how recent a corroborating entry must be to count as fresh.
	FreshnessWindow time.Duration `koanf:"freshness_window"`

	RosterCap     int `koanf:"roster_cap"`
	RankingsLimit int `koanf:"rankings_limit"`

	// StoreDriver is one of sqlite3, pgx or memory.
	StoreDriver string `koanf:"store_driver"`
	StoreDSN    string `koanf:"store_dsn"`

	// Reference and search providers. An empty base URL selects the
	// simulated provider seeded with SimulationSeed.
	ReferenceBaseURL   string  `koanf:"reference_base_url"`
	ReferenceAPIKey    string  `koanf:"reference_api_key"`
	ReferenceRateLimit float64 `koanf:"reference_rate_limit"`
	SearchBaseURL      string  `koanf:"search_base_url"`
	SearchAPIKey       string  `koanf:"search_api_key"`
	SearchRateLimit    float64 `koanf:"search_rate_limit"`
	SimulationSeed     int64   `koanf:"simulation_seed"`

	// RedisURL enables run-completed notifications when set.
	RedisURL     string `koanf:"redis_url"`
	RedisChannel string `koanf:"redis_channel"`

	// PersistFailedRuns writes a failed RunRecord when a phase fails.
	PersistFailedRuns bool `koanf:"persist_failed_runs"`

	MCPEnabled bool `koanf:"mcp_enabled"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		Sports:               []string{"nfl", "nba", "mlb", "nhl"},
		Schedule:             "0 2 * * *",
		Timezone:             "America/Chicago",
		MissedRunThreshold:   25 * time.Hour,
		StartupGrace:         5 * time.Second,
		CollectorTimeout:     10 * time.Second,
		RunTimeout:           30 * time.Minute,
		CollectorConcurrency: 8,
		FreshnessWindow:      24 * time.Hour,
		RosterCap:            5,
		RankingsLimit:        20,
		StoreDriver:          DriverSQLite,
		StoreDSN:             "file:sportsintel.db?_busy_timeout=5000",
		ReferenceRateLimit:   5,
		SearchRateLimit:      2,
		SimulationSeed:       1,
		RedisChannel:         "sportsintel:runs",
		MCPEnabled:           true,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if len(c.Sports) == 0 {
		return fmt.Errorf("%w: sports must not be empty", ErrInvalidConfig)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: %w %q: %v", ErrInvalidConfig, ErrUnknownTimezone, c.Timezone, err)
	}
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("%w: %w %q: %v", ErrInvalidConfig, ErrInvalidSchedule, c.Schedule, err)
	}
	switch c.StoreDriver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, ErrUnknownDriver, c.StoreDriver)
	}
	if c.StoreDriver != DriverMemory && c.StoreDSN == "" {
		return fmt.Errorf("%w: store_dsn is required for %s", ErrInvalidConfig, c.StoreDriver)
	}
	if c.RosterCap <= 0 || c.RankingsLimit <= 0 || c.CollectorConcurrency <= 0 {
		return fmt.Errorf("%w: roster_cap, rankings_limit and collector_concurrency must be positive", ErrInvalidConfig)
	}
	if c.MissedRunThreshold <= 0 || c.CollectorTimeout <= 0 || c.FreshnessWindow <= 0 {
		return fmt.Errorf("%w: durations must be positive", ErrInvalidConfig)
	}
	return nil
}

// Location returns the configured timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
