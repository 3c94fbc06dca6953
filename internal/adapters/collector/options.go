package collector

import (
	"time"

	"github.com/okian/sportsintel/pkg/logger"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultConcurrency = 8
)

type settings struct {
	log         logger.Logger
	timeout     time.Duration
	concurrency int
	now         func() time.Time
}

func newSettings(component string, opts []Option) settings {
	s := settings{timeout: defaultTimeout, concurrency: defaultConcurrency, now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	if s.log == nil {
		s.log = logger.Get().Named(component)
	}
	return s
}

// Option configures a collector.
type Option func(*settings)

// WithLogger sets the collector logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithTimeout bounds every provider call.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithConcurrency bounds in-flight provider calls.
func WithConcurrency(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClock sets the clock used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}
