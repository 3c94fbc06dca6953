// Package repository persists pipeline run records.
package repository

import (
	"context"

	"github.com/okian/sportsintel/internal/domain/model"
)

// Store is an append-only log of run records.
type Store interface {
	// Insert writes a record in a single atomic statement.
	Insert(ctx context.Context, rec *model.RunRecord) error

	// Latest returns the most recent completed run by run date.
	// Returns ErrNotFound when no completed run exists.
	Latest(ctx context.Context) (*model.RunRecord, error)

	// Get returns the run with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*model.RunRecord, error)

	// List returns up to limit run summaries, newest first.
	List(ctx context.Context, limit int) ([]model.RunSummary, error)

	Close() error
}
