package memory

import (
	"context"
	"sync"
	"time"

	"github.com/clubedata/matchsheet/internal/domain/fixture"
)

type FixtureRepository struct {
	mu       sync.RWMutex
	fixtures map[string]fixture.Fixture
}

func NewFixtureRepository() *FixtureRepository {
	return &FixtureRepository{fixtures: make(map[string]fixture.Fixture)}
}

func (r *FixtureRepository) UpsertBatch(_ context.Context, fixtures []fixture.Fixture) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Duplicates within a batch collapse to the same natural key; the
	// last value wins.
	for _, item := range fixtures {
		item.LastSeenAt = time.Now().UTC()
		r.fixtures[item.Source+"|"+item.SourceURL] = item
	}
	return len(fixtures), nil
}

func (r *FixtureRepository) ListByCompetition(_ context.Context, competitionID string) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0)
	for _, item := range r.fixtures {
		if item.CompetitionID == competitionID {
			out = append(out, item)
		}
	}
	return out, nil
}

// Stored returns the number of distinct natural keys held, used by tests
// to verify upsert collapse.
func (r *FixtureRepository) Stored() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.fixtures)
}

type SyncStateRepository struct {
	mu     sync.RWMutex
	states map[string]fixture.SyncState
}

func NewSyncStateRepository() *SyncStateRepository {
	return &SyncStateRepository{states: make(map[string]fixture.SyncState)}
}

func (r *SyncStateRepository) Get(_ context.Context, competitionID string) (*fixture.SyncState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.states[competitionID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (r *SyncStateRepository) TouchChecked(_ context.Context, competitionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.states[competitionID]
	state.CompetitionID = competitionID
	state.LastCheckedAt = time.Now().UTC()
	r.states[competitionID] = state
	return nil
}

func (r *SyncStateRepository) SaveChanged(_ context.Context, competitionID string, contentHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	state := r.states[competitionID]
	state.CompetitionID = competitionID
	state.ContentHash = contentHash
	state.LastCheckedAt = now
	state.LastChangedAt = &now
	r.states[competitionID] = state
	return nil
}
