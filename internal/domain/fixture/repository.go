package fixture

import "context"

// Repository persists scraped fixtures. UpsertBatch keys on
// (source, source_url); duplicate keys within one batch collapse with the
// last value winning.
type Repository interface {
	UpsertBatch(ctx context.Context, fixtures []Fixture) (int, error)
	ListByCompetition(ctx context.Context, competitionID string) ([]Fixture, error)
}

// SyncStateRepository stores per-competition change-detection state.
type SyncStateRepository interface {
	Get(ctx context.Context, competitionID string) (*SyncState, error)
	TouchChecked(ctx context.Context, competitionID string) error
	SaveChanged(ctx context.Context, competitionID string, contentHash string) error
}
