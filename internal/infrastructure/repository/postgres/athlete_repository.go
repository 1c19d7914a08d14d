package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/clubedata/matchsheet/internal/domain/athlete"
	qb "github.com/clubedata/matchsheet/internal/platform/querybuilder"
)

type athleteTableModel struct {
	ID          string        `db:"id"`
	Team        string        `db:"team"`
	Name        string        `db:"name"`
	ShirtNumber sql.NullInt32 `db:"shirt_number"`
	Active      bool          `db:"active"`
}

func (m athleteTableModel) toDomain() athlete.Athlete {
	return athlete.Athlete{
		ID:          m.ID,
		Team:        m.Team,
		Name:        m.Name,
		ShirtNumber: nullInt32ToPtr(m.ShirtNumber),
		Active:      m.Active,
	}
}

type AthleteRepository struct {
	db *sqlx.DB
}

func NewAthleteRepository(db *sqlx.DB) *AthleteRepository {
	return &AthleteRepository{db: db}
}

func (r *AthleteRepository) ListByTeams(ctx context.Context, teams []string) ([]athlete.Athlete, error) {
	if len(teams) == 0 {
		return nil, nil
	}

	values := make([]any, 0, len(teams))
	for _, team := range teams {
		values = append(values, strings.ToLower(strings.TrimSpace(team)))
	}

	query, args, err := qb.Select(
		"id", "team", "name", "shirt_number", "active",
	).From("athletes").
		Where(
			qb.In("LOWER(team)", values),
			qb.Eq("active", true),
		).
		OrderBy("team", "name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list athletes by teams query: %w", err)
	}

	var rows []athleteTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list athletes by teams: %w", err)
	}

	out := make([]athlete.Athlete, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *AthleteRepository) Upsert(ctx context.Context, athletes []athlete.Athlete) (int, error) {
	if len(athletes) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx upsert athletes: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range athletes {
		model := athleteTableModel{
			ID:          item.ID,
			Team:        item.Team,
			Name:        item.Name,
			ShirtNumber: ptrToNullInt32(item.ShirtNumber),
			Active:      item.Active,
		}
		query, args, err := qb.InsertModel("athletes", model, `ON CONFLICT (id)
DO UPDATE SET
    team = EXCLUDED.team,
    name = EXCLUDED.name,
    shirt_number = EXCLUDED.shirt_number,
    active = EXCLUDED.active`)
		if err != nil {
			return 0, fmt.Errorf("build upsert athlete query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("upsert athlete id=%s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert athletes tx: %w", err)
	}
	return len(athletes), nil
}
