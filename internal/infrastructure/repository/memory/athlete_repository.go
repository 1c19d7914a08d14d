package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/clubedata/matchsheet/internal/domain/athlete"
)

type AthleteRepository struct {
	mu       sync.RWMutex
	athletes map[string]athlete.Athlete
}

func NewAthleteRepository(seed []athlete.Athlete) *AthleteRepository {
	athletes := make(map[string]athlete.Athlete, len(seed))
	for _, item := range seed {
		athletes[item.ID] = item
	}
	return &AthleteRepository{athletes: athletes}
}

func (r *AthleteRepository) ListByTeams(_ context.Context, teams []string) ([]athlete.Athlete, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(teams))
	for _, team := range teams {
		wanted[strings.ToLower(strings.TrimSpace(team))] = struct{}{}
	}

	out := make([]athlete.Athlete, 0)
	for _, item := range r.athletes {
		if _, ok := wanted[strings.ToLower(item.Team)]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *AthleteRepository) Upsert(_ context.Context, athletes []athlete.Athlete) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range athletes {
		r.athletes[item.ID] = item
	}
	return len(athletes), nil
}
