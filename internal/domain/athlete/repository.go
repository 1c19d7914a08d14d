package athlete

import "context"

// Repository exposes the athlete registry used to resolve parsed names to
// athlete ids.
type Repository interface {
	ListByTeams(ctx context.Context, teams []string) ([]Athlete, error)
	Upsert(ctx context.Context, athletes []Athlete) (int, error)
}
