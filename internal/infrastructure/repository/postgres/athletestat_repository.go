package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/clubedata/matchsheet/internal/domain/athletestat"
	qb "github.com/clubedata/matchsheet/internal/platform/querybuilder"
)

type athleteStatRowModel struct {
	MatchKey      string         `db:"match_key"`
	EventUID      string         `db:"event_uid"`
	TeamSide      string         `db:"team_side"`
	AthleteID     sql.NullString `db:"athlete_id"`
	AthleteName   string         `db:"athlete_name"`
	Started       bool           `db:"started"`
	Captain       bool           `db:"captain"`
	Participated  bool           `db:"participated"`
	MinutesPlayed int            `db:"minutes_played"`
	Goals         int            `db:"goals"`
	Assists       int            `db:"assists"`
	YellowCards   int            `db:"yellow_cards"`
	RedCards      int            `db:"red_cards"`
	Source        string         `db:"source"`
}

func (m athleteStatRowModel) toDomain() athletestat.MatchStat {
	return athletestat.MatchStat{
		MatchKey:      m.MatchKey,
		EventUID:      m.EventUID,
		TeamSide:      m.TeamSide,
		AthleteID:     nullStringToPtr(m.AthleteID),
		AthleteName:   m.AthleteName,
		Started:       m.Started,
		Captain:       m.Captain,
		Participated:  m.Participated,
		MinutesPlayed: m.MinutesPlayed,
		Goals:         m.Goals,
		Assists:       m.Assists,
		YellowCards:   m.YellowCards,
		RedCards:      m.RedCards,
		Source:        m.Source,
	}
}

type AthleteStatRepository struct {
	db *sqlx.DB
}

func NewAthleteStatRepository(db *sqlx.DB) *AthleteStatRepository {
	return &AthleteStatRepository{db: db}
}

// ReplaceDerived swaps the whole DERIVED block for a match_key. Rows from
// any other source are rejected before the transaction opens, so manual
// rows can never slip in through this path.
func (r *AthleteStatRepository) ReplaceDerived(ctx context.Context, matchKey string, rows []athletestat.MatchStat) error {
	for _, row := range rows {
		if row.Source != athletestat.SourceDerived {
			return fmt.Errorf("refusing non-DERIVED stat row uid=%s source=%s", row.EventUID, row.Source)
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace derived stats: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM athlete_match_stats WHERE match_key = $1 AND source = $2",
		matchKey, athletestat.SourceDerived,
	); err != nil {
		return fmt.Errorf("clear derived stats: %w", err)
	}

	for _, row := range rows {
		model := athleteStatRowModel{
			MatchKey:      row.MatchKey,
			EventUID:      row.EventUID,
			TeamSide:      row.TeamSide,
			AthleteID:     ptrToNullString(row.AthleteID),
			AthleteName:   row.AthleteName,
			Started:       row.Started,
			Captain:       row.Captain,
			Participated:  row.Participated,
			MinutesPlayed: row.MinutesPlayed,
			Goals:         row.Goals,
			Assists:       row.Assists,
			YellowCards:   row.YellowCards,
			RedCards:      row.RedCards,
			Source:        row.Source,
		}
		query, args, err := qb.InsertModel("athlete_match_stats", model, "")
		if err != nil {
			return fmt.Errorf("build insert derived stat query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert derived stat uid=%s: %w", row.EventUID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace derived stats tx: %w", err)
	}
	return nil
}

func (r *AthleteStatRepository) ListByMatchKey(ctx context.Context, matchKey string) ([]athletestat.MatchStat, error) {
	query, args, err := qb.Select(
		"match_key", "event_uid", "team_side", "athlete_id", "athlete_name",
		"started", "captain", "participated", "minutes_played",
		"goals", "assists", "yellow_cards", "red_cards", "source",
	).From("athlete_match_stats").
		Where(qb.Eq("match_key", matchKey)).
		OrderBy("team_side", "event_uid").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list athlete stats query: %w", err)
	}

	var rows []athleteStatRowModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list athlete stats: %w", err)
	}

	out := make([]athletestat.MatchStat, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
