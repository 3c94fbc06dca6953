// Package notify announces finished pipeline runs to external consumers.
package notify

import (
	"context"
	"time"

	"github.com/okian/sportsintel/internal/domain/model"
)

// EventType is the type tag carried by every run-completed event.
const EventType = "run_completed"

// RunCompletedEvent is published after each run, successful or not.
type RunCompletedEvent struct {
	EventType           string          `json:"event_type"`
	RunID               string          `json:"run_id"`
	Status              model.RunStatus `json:"status"`
	RunDate             time.Time       `json:"run_date"`
	DurationMs          int64           `json:"duration_ms"`
	DataPointsCollected int             `json:"data_points_collected"`
	Persisted           bool            `json:"persisted"`
	Trigger             string          `json:"trigger"`
	Error               string          `json:"error,omitempty"`
	// Confidence is the reconciliation confidence per sport.
	Confidence map[model.Sport]float64 `json:"confidence,omitempty"`
}

// Publisher delivers run-completed events.
type Publisher interface {
	Publish(ctx context.Context, event *RunCompletedEvent) error
	Close() error
}

// Noop discards events.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, *RunCompletedEvent) error { return nil }

// Close implements Publisher.
func (Noop) Close() error { return nil }
