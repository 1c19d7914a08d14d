package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clubedata/matchsheet/internal/domain/runledger"
)

type RunLedgerRepository struct {
	mu      sync.RWMutex
	entries map[string]runledger.Entry
}

func NewRunLedgerRepository() *RunLedgerRepository {
	return &RunLedgerRepository{entries: make(map[string]runledger.Entry)}
}

func (r *RunLedgerRepository) Begin(_ context.Context, entry runledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[entry.ID] = entry
	return nil
}

func (r *RunLedgerRepository) Finish(_ context.Context, id string, status string, summary map[string]int, errorText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	entry.Status = status
	entry.Summary = summary
	entry.ErrorText = errorText
	entry.FinishedAt = &now
	r.entries[id] = entry
	return nil
}

func (r *RunLedgerRepository) GetByID(_ context.Context, id string) (*runledger.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (r *RunLedgerRepository) List(_ context.Context, kind string, limit int) ([]runledger.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]runledger.Entry, 0)
	for _, entry := range r.entries {
		if kind == "" || entry.Kind == kind {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *RunLedgerRepository) ListStale(_ context.Context, olderThan time.Duration) ([]runledger.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	out := make([]runledger.Entry, 0)
	for _, entry := range r.entries {
		if entry.Status == runledger.StatusRunning && entry.StartedAt.Before(cutoff) {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}
