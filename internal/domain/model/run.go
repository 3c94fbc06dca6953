package model

import "time"

// RunStatus is the terminal state of a stored run.
type RunStatus string

// Run statuses.
const (
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunRecord is the persisted result of one pipeline execution. It is written
// once at the end of a run and never updated.
type RunRecord struct {
	ID                  string            `json:"id"`
	RunDate             time.Time         `json:"run_date"`
	ReferenceData       ReferenceData     `json:"reference_data"`
	CorroboratingData   CorroboratingData `json:"corroborating_data"`
	Reconciliation      Reconciliation    `json:"reconciliation,omitempty"`
	Predictions         Predictions       `json:"predictions,omitempty"`
	ProcessingTimeMs    int64             `json:"processing_time_ms"`
	DataPointsCollected int               `json:"data_points_collected"`
	Status              RunStatus         `json:"status"`
	Error               string            `json:"error,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
}

// RunSummary is a RunRecord without its payloads.
type RunSummary struct {
	ID                  string    `json:"id"`
	RunDate             time.Time `json:"run_date"`
	ProcessingTimeMs    int64     `json:"processing_time_ms"`
	DataPointsCollected int       `json:"data_points_collected"`
	Status              RunStatus `json:"status"`
	Error               string    `json:"error,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// Summary strips the payloads.
func (r *RunRecord) Summary() RunSummary {
	return RunSummary{
		ID:                  r.ID,
		RunDate:             r.RunDate,
		ProcessingTimeMs:    r.ProcessingTimeMs,
		DataPointsCollected: r.DataPointsCollected,
		Status:              r.Status,
		Error:               r.Error,
		CreatedAt:           r.CreatedAt,
	}
}
