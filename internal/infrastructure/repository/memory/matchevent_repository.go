package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/clubedata/matchsheet/internal/domain/matchevent"
)

type MatchEventRepository struct {
	mu   sync.RWMutex
	sets map[string]matchevent.EventSet
}

func NewMatchEventRepository() *MatchEventRepository {
	return &MatchEventRepository{sets: make(map[string]matchevent.EventSet)}
}

func (r *MatchEventRepository) Replace(_ context.Context, matchKey string, set matchevent.EventSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Mirrors the production uniqueness constraint on (match_key, event_uid).
	seen := make(map[string]struct{})
	check := func(uid string) error {
		if _, dup := seen[uid]; dup {
			return fmt.Errorf("duplicate event_uid %s for match_key %s", uid, matchKey)
		}
		seen[uid] = struct{}{}
		return nil
	}
	for _, row := range set.Lineups {
		if err := check(row.EventUID); err != nil {
			return err
		}
	}
	for _, row := range set.Goals {
		if err := check(row.EventUID); err != nil {
			return err
		}
	}
	for _, row := range set.Cards {
		if err := check(row.EventUID); err != nil {
			return err
		}
	}
	for _, row := range set.Substitutions {
		if err := check(row.EventUID); err != nil {
			return err
		}
	}

	r.sets[matchKey] = cloneEventSet(set)
	return nil
}

func (r *MatchEventRepository) Load(_ context.Context, matchKey string) (matchevent.EventSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneEventSet(r.sets[matchKey]), nil
}

func cloneEventSet(set matchevent.EventSet) matchevent.EventSet {
	cloned := matchevent.EventSet{
		Lineups:       make([]matchevent.Lineup, len(set.Lineups)),
		Goals:         make([]matchevent.Goal, len(set.Goals)),
		Cards:         make([]matchevent.Card, len(set.Cards)),
		Substitutions: make([]matchevent.Substitution, len(set.Substitutions)),
	}
	copy(cloned.Lineups, set.Lineups)
	copy(cloned.Goals, set.Goals)
	copy(cloned.Cards, set.Cards)
	copy(cloned.Substitutions, set.Substitutions)
	return cloned
}
