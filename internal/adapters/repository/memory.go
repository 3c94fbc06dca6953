package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/sportsintel/internal/domain/model"
)

// MemoryStore keeps runs in process memory. It loses everything on restart
// and suits tests and local experiments.
type MemoryStore struct {
	mu   sync.RWMutex
	runs []model.RunRecord
	ids  map[string]int
	now  func() time.Time
	// FailInsert makes Insert return the error when set. Tests use it to
	// simulate an unavailable database.
	FailInsert error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ids: make(map[string]int), now: time.Now}
}

// Insert implements Store.
func (m *MemoryStore) Insert(_ context.Context, rec *model.RunRecord) error {
	if rec == nil || rec.ID == "" {
		return ErrInvalidRecord
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailInsert != nil {
		return m.FailInsert
	}
	if _, ok := m.ids[rec.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.ID)
	}
	cp := *rec
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = m.now()
	}
	m.ids[cp.ID] = len(m.runs)
	m.runs = append(m.runs, cp)
	return nil
}

// Latest implements Store.
func (m *MemoryStore) Latest(_ context.Context) (*model.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *model.RunRecord
	for i := range m.runs {
		r := &m.runs[i]
		if r.Status != model.RunCompleted {
			continue
		}
		if best == nil || r.RunDate.After(best.RunDate) {
			best = r
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	cp := *best
	return &cp, nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (*model.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.ids[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := m.runs[i]
	return &cp, nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, limit int) ([]model.RunSummary, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	m.mu.RLock()
	out := make([]model.RunSummary, 0, len(m.runs))
	for i := range m.runs {
		out = append(out, m.runs[i].Summary())
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].RunDate.After(out[j].RunDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of stored runs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
