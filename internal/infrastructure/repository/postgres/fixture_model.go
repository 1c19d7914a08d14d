package postgres

import (
	"database/sql"
	"time"

	"github.com/clubedata/matchsheet/internal/domain/fixture"
)

type fixtureTableModel struct {
	ID            string        `db:"id"`
	CompetitionID string        `db:"competition_id"`
	Source        string        `db:"source"`
	SourceURL     string        `db:"source_url"`
	HomeTeam      string        `db:"home_team"`
	AwayTeam      string        `db:"away_team"`
	HomeScore     sql.NullInt32 `db:"home_score"`
	AwayScore     sql.NullInt32 `db:"away_score"`
	KickoffAt     time.Time     `db:"kickoff_at"`
	Round         string        `db:"round"`
	Venue         string        `db:"venue"`
	Status        string        `db:"status"`
	LastSeenAt    time.Time     `db:"last_seen_at"`
}

func fixtureToModel(item fixture.Fixture) fixtureTableModel {
	return fixtureTableModel{
		ID:            item.ID,
		CompetitionID: item.CompetitionID,
		Source:        item.Source,
		SourceURL:     item.SourceURL,
		HomeTeam:      item.HomeTeam,
		AwayTeam:      item.AwayTeam,
		HomeScore:     ptrToNullInt32(item.HomeScore),
		AwayScore:     ptrToNullInt32(item.AwayScore),
		KickoffAt:     item.KickoffAt.UTC(),
		Round:         item.Round,
		Venue:         item.Venue,
		Status:        item.Status,
		LastSeenAt:    time.Now().UTC(),
	}
}

func (m fixtureTableModel) toDomain() fixture.Fixture {
	return fixture.Fixture{
		ID:            m.ID,
		CompetitionID: m.CompetitionID,
		Source:        m.Source,
		SourceURL:     m.SourceURL,
		HomeTeam:      m.HomeTeam,
		AwayTeam:      m.AwayTeam,
		HomeScore:     nullInt32ToPtr(m.HomeScore),
		AwayScore:     nullInt32ToPtr(m.AwayScore),
		KickoffAt:     m.KickoffAt,
		Round:         m.Round,
		Venue:         m.Venue,
		Status:        m.Status,
		LastSeenAt:    m.LastSeenAt,
	}
}

type syncStateTableModel struct {
	CompetitionID string       `db:"competition_id"`
	ContentHash   string       `db:"content_hash"`
	LastCheckedAt time.Time    `db:"last_checked_at"`
	LastChangedAt sql.NullTime `db:"last_changed_at"`
}

func (m syncStateTableModel) toDomain() fixture.SyncState {
	return fixture.SyncState{
		CompetitionID: m.CompetitionID,
		ContentHash:   m.ContentHash,
		LastCheckedAt: m.LastCheckedAt,
		LastChangedAt: nullTimeToPtr(m.LastChangedAt),
	}
}
