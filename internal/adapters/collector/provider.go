// Package collector gathers reference projections and corroborating search
// results for every sport, isolating failures per position and category.
package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/sportsintel/internal/domain/catalog"
	"github.com/okian/sportsintel/internal/domain/model"
)

// Sentinel kinds for provider errors.
var (
	ErrProviderStatus   = errors.New("provider returned an error status")
	ErrProviderResponse = errors.New("provider returned an unreadable response")
	ErrProviderPanic    = errors.New("provider panicked")
)

// ReferenceProvider returns projections for one sport and position.
type ReferenceProvider interface {
	Projections(ctx context.Context, sport model.Sport, position string) ([]model.PlayerRecord, error)
}

// SearchProvider runs one corroborating search for a sport.
type SearchProvider interface {
	Search(ctx context.Context, sport model.Sport, q catalog.Query) ([]model.SearchResult, error)
}

// Call outcomes recorded in metrics.
const (
	outcomeOK      = "ok"
	outcomeError   = "error"
	outcomeTimeout = "timeout"
)

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, context.DeadlineExceeded):
		return outcomeTimeout
	default:
		return outcomeError
	}
}

// guard runs call, reporting a panic as an ErrProviderPanic error.
func guard[T any](call func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out, err = zero, fmt.Errorf("%w: %v", ErrProviderPanic, r)
		}
	}()
	return call()
}
