package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/clubedata/matchsheet/internal/domain/matchevent"
	qb "github.com/clubedata/matchsheet/internal/platform/querybuilder"
)

var eventTables = []string{
	"match_lineups",
	"match_goals",
	"match_cards",
	"match_substitutions",
}

type MatchEventRepository struct {
	db *sqlx.DB
}

func NewMatchEventRepository(db *sqlx.DB) *MatchEventRepository {
	return &MatchEventRepository{db: db}
}

// Replace swaps the whole event set for a match_key in one transaction:
// delete from all four tables, then insert the new rows. Re-running with
// the same canonical input lands on identical rows.
func (r *MatchEventRepository) Replace(ctx context.Context, matchKey string, set matchevent.EventSet) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace match events: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range eventTables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE match_key = $1", table), matchKey); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, row := range set.Lineups {
		query, args, err := qb.InsertModel("match_lineups", lineupToModel(row), "")
		if err != nil {
			return fmt.Errorf("build insert lineup query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert lineup uid=%s: %w", row.EventUID, err)
		}
	}
	for _, row := range set.Goals {
		query, args, err := qb.InsertModel("match_goals", goalToModel(row), "")
		if err != nil {
			return fmt.Errorf("build insert goal query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert goal uid=%s: %w", row.EventUID, err)
		}
	}
	for _, row := range set.Cards {
		query, args, err := qb.InsertModel("match_cards", cardToModel(row), "")
		if err != nil {
			return fmt.Errorf("build insert card query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert card uid=%s: %w", row.EventUID, err)
		}
	}
	for _, row := range set.Substitutions {
		query, args, err := qb.InsertModel("match_substitutions", substitutionToModel(row), "")
		if err != nil {
			return fmt.Errorf("build insert substitution query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert substitution uid=%s: %w", row.EventUID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace match events tx: %w", err)
	}
	return nil
}

func (r *MatchEventRepository) Load(ctx context.Context, matchKey string) (matchevent.EventSet, error) {
	set := matchevent.EventSet{}

	lineupQuery, lineupArgs, err := qb.Select(
		"match_key", "event_uid", "document_id", "team_side", "role",
		"captain", "athlete_id", "athlete_name", "shirt_number",
	).From("match_lineups").
		Where(qb.Eq("match_key", matchKey)).
		OrderBy("event_uid").
		ToSQL()
	if err != nil {
		return set, fmt.Errorf("build select lineups query: %w", err)
	}
	var lineupRows []lineupRowModel
	if err := r.db.SelectContext(ctx, &lineupRows, lineupQuery, lineupArgs...); err != nil {
		return set, fmt.Errorf("select lineups: %w", err)
	}
	for _, row := range lineupRows {
		set.Lineups = append(set.Lineups, row.toDomain())
	}

	goalQuery, goalArgs, err := qb.Select(
		"match_key", "event_uid", "document_id", "team_side",
		"half", "minute", "kind", "athlete_id", "athlete_name",
	).From("match_goals").
		Where(qb.Eq("match_key", matchKey)).
		OrderBy("half", "minute", "event_uid").
		ToSQL()
	if err != nil {
		return set, fmt.Errorf("build select goals query: %w", err)
	}
	var goalRows []goalRowModel
	if err := r.db.SelectContext(ctx, &goalRows, goalQuery, goalArgs...); err != nil {
		return set, fmt.Errorf("select goals: %w", err)
	}
	for _, row := range goalRows {
		set.Goals = append(set.Goals, row.toDomain())
	}

	cardQuery, cardArgs, err := qb.Select(
		"match_key", "event_uid", "document_id", "team_side",
		"half", "minute", "card_type", "reason", "athlete_id", "athlete_name",
	).From("match_cards").
		Where(qb.Eq("match_key", matchKey)).
		OrderBy("half", "minute", "event_uid").
		ToSQL()
	if err != nil {
		return set, fmt.Errorf("build select cards query: %w", err)
	}
	var cardRows []cardRowModel
	if err := r.db.SelectContext(ctx, &cardRows, cardQuery, cardArgs...); err != nil {
		return set, fmt.Errorf("select cards: %w", err)
	}
	for _, row := range cardRows {
		set.Cards = append(set.Cards, row.toDomain())
	}

	subQuery, subArgs, err := qb.Select(
		"match_key", "event_uid", "document_id", "team_side", "half", "minute",
		"athlete_out_id", "athlete_out_name", "athlete_in_id", "athlete_in_name",
	).From("match_substitutions").
		Where(qb.Eq("match_key", matchKey)).
		OrderBy("half", "minute", "event_uid").
		ToSQL()
	if err != nil {
		return set, fmt.Errorf("build select substitutions query: %w", err)
	}
	var subRows []substitutionRowModel
	if err := r.db.SelectContext(ctx, &subRows, subQuery, subArgs...); err != nil {
		return set, fmt.Errorf("select substitutions: %w", err)
	}
	for _, row := range subRows {
		set.Substitutions = append(set.Substitutions, row.toDomain())
	}

	return set, nil
}
