package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/clubedata/matchsheet/internal/domain/fixture"
	qb "github.com/clubedata/matchsheet/internal/platform/querybuilder"
)

type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

// UpsertBatch writes the batch keyed by (source, source_url). One
// transaction per batch, so a half-written sweep never becomes visible.
func (r *FixtureRepository) UpsertBatch(ctx context.Context, fixtures []fixture.Fixture) (int, error) {
	if len(fixtures) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx upsert fixtures: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range fixtures {
		query, args, err := qb.InsertModel("fixtures", fixtureToModel(item), `ON CONFLICT (source, source_url)
DO UPDATE SET
    competition_id = EXCLUDED.competition_id,
    home_team = EXCLUDED.home_team,
    away_team = EXCLUDED.away_team,
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    kickoff_at = EXCLUDED.kickoff_at,
    round = EXCLUDED.round,
    venue = EXCLUDED.venue,
    status = EXCLUDED.status,
    last_seen_at = EXCLUDED.last_seen_at`)
		if err != nil {
			return 0, fmt.Errorf("build upsert fixture query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("upsert fixture source_url=%s: %w", item.SourceURL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert fixtures tx: %w", err)
	}
	return len(fixtures), nil
}

func (r *FixtureRepository) ListByCompetition(ctx context.Context, competitionID string) ([]fixture.Fixture, error) {
	query, args, err := qb.Select(
		"id", "competition_id", "source", "source_url", "home_team", "away_team",
		"home_score", "away_score", "kickoff_at", "round", "venue", "status", "last_seen_at",
	).From("fixtures").
		Where(qb.Eq("competition_id", competitionID)).
		OrderBy("kickoff_at", "source_url").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fixtures by competition query: %w", err)
	}

	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fixtures by competition: %w", err)
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

type SyncStateRepository struct {
	db *sqlx.DB
}

func NewSyncStateRepository(db *sqlx.DB) *SyncStateRepository {
	return &SyncStateRepository{db: db}
}

func (r *SyncStateRepository) Get(ctx context.Context, competitionID string) (*fixture.SyncState, error) {
	query, args, err := qb.Select(
		"competition_id", "content_hash", "last_checked_at", "last_changed_at",
	).From("fixture_sync_state").
		Where(qb.Eq("competition_id", competitionID)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get sync state query: %w", err)
	}

	var row syncStateTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sync state: %w", err)
	}

	state := row.toDomain()
	return &state, nil
}

func (r *SyncStateRepository) TouchChecked(ctx context.Context, competitionID string) error {
	if _, err := r.db.ExecContext(ctx, `INSERT INTO fixture_sync_state (competition_id, content_hash, last_checked_at)
VALUES ($1, '', NOW())
ON CONFLICT (competition_id)
DO UPDATE SET last_checked_at = NOW()`, competitionID); err != nil {
		return fmt.Errorf("touch sync state: %w", err)
	}
	return nil
}

func (r *SyncStateRepository) SaveChanged(ctx context.Context, competitionID string, contentHash string) error {
	if _, err := r.db.ExecContext(ctx, `INSERT INTO fixture_sync_state (competition_id, content_hash, last_checked_at, last_changed_at)
VALUES ($1, $2, NOW(), NOW())
ON CONFLICT (competition_id)
DO UPDATE SET
    content_hash = EXCLUDED.content_hash,
    last_checked_at = NOW(),
    last_changed_at = NOW()`, competitionID, contentHash); err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}
	return nil
}
