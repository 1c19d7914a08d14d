package postgres

import (
	"database/sql"

	"github.com/clubedata/matchsheet/internal/domain/matchevent"
)

type lineupRowModel struct {
	MatchKey    string         `db:"match_key"`
	EventUID    string         `db:"event_uid"`
	DocumentID  sql.NullString `db:"document_id"`
	TeamSide    string         `db:"team_side"`
	Role        string         `db:"role"`
	Captain     bool           `db:"captain"`
	AthleteID   sql.NullString `db:"athlete_id"`
	AthleteName string         `db:"athlete_name"`
	ShirtNumber sql.NullInt32  `db:"shirt_number"`
}

type goalRowModel struct {
	MatchKey    string         `db:"match_key"`
	EventUID    string         `db:"event_uid"`
	DocumentID  sql.NullString `db:"document_id"`
	TeamSide    string         `db:"team_side"`
	Half        int            `db:"half"`
	Minute      int            `db:"minute"`
	Kind        string         `db:"kind"`
	AthleteID   sql.NullString `db:"athlete_id"`
	AthleteName string         `db:"athlete_name"`
}

type cardRowModel struct {
	MatchKey    string         `db:"match_key"`
	EventUID    string         `db:"event_uid"`
	DocumentID  sql.NullString `db:"document_id"`
	TeamSide    string         `db:"team_side"`
	Half        int            `db:"half"`
	Minute      int            `db:"minute"`
	CardType    string         `db:"card_type"`
	Reason      string         `db:"reason"`
	AthleteID   sql.NullString `db:"athlete_id"`
	AthleteName string         `db:"athlete_name"`
}

type substitutionRowModel struct {
	MatchKey       string         `db:"match_key"`
	EventUID       string         `db:"event_uid"`
	DocumentID     sql.NullString `db:"document_id"`
	TeamSide       string         `db:"team_side"`
	Half           int            `db:"half"`
	Minute         int            `db:"minute"`
	AthleteOutID   sql.NullString `db:"athlete_out_id"`
	AthleteOutName string         `db:"athlete_out_name"`
	AthleteInID    sql.NullString `db:"athlete_in_id"`
	AthleteInName  string         `db:"athlete_in_name"`
}

func lineupToModel(row matchevent.Lineup) lineupRowModel {
	return lineupRowModel{
		MatchKey:    row.MatchKey,
		EventUID:    row.EventUID,
		DocumentID:  ptrToNullString(row.DocumentID),
		TeamSide:    row.TeamSide,
		Role:        row.Role,
		Captain:     row.Captain,
		AthleteID:   ptrToNullString(row.AthleteID),
		AthleteName: row.AthleteName,
		ShirtNumber: ptrToNullInt32(row.ShirtNumber),
	}
}

func (m lineupRowModel) toDomain() matchevent.Lineup {
	return matchevent.Lineup{
		MatchKey:    m.MatchKey,
		EventUID:    m.EventUID,
		DocumentID:  nullStringToPtr(m.DocumentID),
		TeamSide:    m.TeamSide,
		Role:        m.Role,
		Captain:     m.Captain,
		AthleteID:   nullStringToPtr(m.AthleteID),
		AthleteName: m.AthleteName,
		ShirtNumber: nullInt32ToPtr(m.ShirtNumber),
	}
}

func goalToModel(row matchevent.Goal) goalRowModel {
	return goalRowModel{
		MatchKey:    row.MatchKey,
		EventUID:    row.EventUID,
		DocumentID:  ptrToNullString(row.DocumentID),
		TeamSide:    row.TeamSide,
		Half:        row.Half,
		Minute:      row.Minute,
		Kind:        row.Kind,
		AthleteID:   ptrToNullString(row.AthleteID),
		AthleteName: row.AthleteName,
	}
}

func (m goalRowModel) toDomain() matchevent.Goal {
	return matchevent.Goal{
		MatchKey:    m.MatchKey,
		EventUID:    m.EventUID,
		DocumentID:  nullStringToPtr(m.DocumentID),
		TeamSide:    m.TeamSide,
		Half:        m.Half,
		Minute:      m.Minute,
		Kind:        m.Kind,
		AthleteID:   nullStringToPtr(m.AthleteID),
		AthleteName: m.AthleteName,
	}
}

func cardToModel(row matchevent.Card) cardRowModel {
	return cardRowModel{
		MatchKey:    row.MatchKey,
		EventUID:    row.EventUID,
		DocumentID:  ptrToNullString(row.DocumentID),
		TeamSide:    row.TeamSide,
		Half:        row.Half,
		Minute:      row.Minute,
		CardType:    row.CardType,
		Reason:      row.Reason,
		AthleteID:   ptrToNullString(row.AthleteID),
		AthleteName: row.AthleteName,
	}
}

func (m cardRowModel) toDomain() matchevent.Card {
	return matchevent.Card{
		MatchKey:    m.MatchKey,
		EventUID:    m.EventUID,
		DocumentID:  nullStringToPtr(m.DocumentID),
		TeamSide:    m.TeamSide,
		Half:        m.Half,
		Minute:      m.Minute,
		CardType:    m.CardType,
		Reason:      m.Reason,
		AthleteID:   nullStringToPtr(m.AthleteID),
		AthleteName: m.AthleteName,
	}
}

func substitutionToModel(row matchevent.Substitution) substitutionRowModel {
	return substitutionRowModel{
		MatchKey:       row.MatchKey,
		EventUID:       row.EventUID,
		DocumentID:     ptrToNullString(row.DocumentID),
		TeamSide:       row.TeamSide,
		Half:           row.Half,
		Minute:         row.Minute,
		AthleteOutID:   ptrToNullString(row.AthleteOutID),
		AthleteOutName: row.AthleteOutName,
		AthleteInID:    ptrToNullString(row.AthleteInID),
		AthleteInName:  row.AthleteInName,
	}
}

func (m substitutionRowModel) toDomain() matchevent.Substitution {
	return matchevent.Substitution{
		MatchKey:       m.MatchKey,
		EventUID:       m.EventUID,
		DocumentID:     nullStringToPtr(m.DocumentID),
		TeamSide:       m.TeamSide,
		Half:           m.Half,
		Minute:         m.Minute,
		AthleteOutID:   nullStringToPtr(m.AthleteOutID),
		AthleteOutName: m.AthleteOutName,
		AthleteInID:    nullStringToPtr(m.AthleteInID),
		AthleteInName:  m.AthleteInName,
	}
}
