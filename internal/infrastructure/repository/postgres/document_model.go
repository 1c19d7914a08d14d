package postgres

import (
	"database/sql"
	"time"

	"github.com/clubedata/matchsheet/internal/domain/document"
)

type documentTableModel struct {
	ID             string         `db:"id"`
	Scope          string         `db:"scope"`
	MatchID        sql.NullString `db:"match_id"`
	SandboxMatchID sql.NullString `db:"sandbox_match_id"`
	MatchKey       string         `db:"match_key"`
	Bucket         string         `db:"bucket"`
	StoragePath    string         `db:"storage_path"`
	Checksum       string         `db:"checksum"`
	ParserVersion  string         `db:"parser_version"`
	Status         string         `db:"status"`
	RawText        string         `db:"raw_text"`
	CanonicalJSON  string         `db:"canonical_json"`
	ErrorMessage   string         `db:"error_message"`
	UploadedAt     time.Time      `db:"uploaded_at"`
	ExtractedAt    sql.NullTime   `db:"extracted_at"`
	ParsedAt       sql.NullTime   `db:"parsed_at"`
	IngestedAt     sql.NullTime   `db:"ingested_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

type documentInsertModel struct {
	ID             string         `db:"id"`
	Scope          string         `db:"scope"`
	MatchID        sql.NullString `db:"match_id"`
	SandboxMatchID sql.NullString `db:"sandbox_match_id"`
	MatchKey       string         `db:"match_key"`
	Bucket         string         `db:"bucket"`
	StoragePath    string         `db:"storage_path"`
	Checksum       string         `db:"checksum"`
	Status         string         `db:"status"`
}

func (m documentTableModel) toDomain() document.Document {
	return document.Document{
		ID:             m.ID,
		Scope:          m.Scope,
		MatchID:        nullStringToPtr(m.MatchID),
		SandboxMatchID: nullStringToPtr(m.SandboxMatchID),
		MatchKey:       m.MatchKey,
		Bucket:         m.Bucket,
		StoragePath:    m.StoragePath,
		Checksum:       m.Checksum,
		ParserVersion:  m.ParserVersion,
		Status:         m.Status,
		RawText:        m.RawText,
		CanonicalJSON:  m.CanonicalJSON,
		ErrorMessage:   m.ErrorMessage,
		UploadedAt:     m.UploadedAt,
		ExtractedAt:    nullTimeToPtr(m.ExtractedAt),
		ParsedAt:       nullTimeToPtr(m.ParsedAt),
		IngestedAt:     nullTimeToPtr(m.IngestedAt),
		UpdatedAt:      m.UpdatedAt,
	}
}
