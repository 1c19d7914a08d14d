package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/clubedata/matchsheet/internal/domain/athletestat"
)

type AthleteStatRepository struct {
	mu    sync.RWMutex
	stats map[string][]athletestat.MatchStat
}

func NewAthleteStatRepository() *AthleteStatRepository {
	return &AthleteStatRepository{stats: make(map[string][]athletestat.MatchStat)}
}

func (r *AthleteStatRepository) ReplaceDerived(_ context.Context, matchKey string, stats []athletestat.MatchStat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, stat := range stats {
		if stat.Source != athletestat.SourceDerived {
			return fmt.Errorf("refusing non-DERIVED stat row for match_key %s", matchKey)
		}
	}

	cloned := make([]athletestat.MatchStat, len(stats))
	copy(cloned, stats)
	r.stats[matchKey] = cloned
	return nil
}

func (r *AthleteStatRepository) ListByMatchKey(_ context.Context, matchKey string) ([]athletestat.MatchStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.stats[matchKey]
	out := make([]athletestat.MatchStat, len(items))
	copy(out, items)
	return out, nil
}
