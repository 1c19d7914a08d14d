package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/clubedata/matchsheet/internal/domain/document"
	qb "github.com/clubedata/matchsheet/internal/platform/querybuilder"
)

var documentColumns = []string{
	"id",
	"scope",
	"match_id",
	"sandbox_match_id",
	"match_key",
	"bucket",
	"storage_path",
	"checksum",
	"parser_version",
	"status",
	"raw_text",
	"canonical_json",
	"error_message",
	"uploaded_at",
	"extracted_at",
	"parsed_at",
	"ingested_at",
	"updated_at",
}

type DocumentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Insert(ctx context.Context, doc document.Document) error {
	model := documentInsertModel{
		ID:             doc.ID,
		Scope:          doc.Scope,
		MatchID:        ptrToNullString(doc.MatchID),
		SandboxMatchID: ptrToNullString(doc.SandboxMatchID),
		MatchKey:       doc.MatchKey,
		Bucket:         doc.Bucket,
		StoragePath:    doc.StoragePath,
		Checksum:       doc.Checksum,
		Status:         doc.Status,
	}

	query, args, err := qb.InsertModel("documents", model, "")
	if err != nil {
		return fmt.Errorf("build insert document query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*document.Document, error) {
	query, args, err := qb.Select(documentColumns...).From("documents").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get document query: %w", err)
	}

	var row documentTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	doc := row.toDomain()
	return &doc, nil
}

func (r *DocumentRepository) ListByMatchKey(ctx context.Context, matchKey string) ([]document.Document, error) {
	query, args, err := qb.Select(documentColumns...).From("documents").
		Where(qb.Eq("match_key", matchKey)).
		OrderBy("uploaded_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list documents by match key query: %w", err)
	}

	var rows []documentTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list documents by match key: %w", err)
	}

	out := make([]document.Document, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// SaveRawText is re-entrant: rerunning extraction overwrites the raw text
// and resets the status, earlier canonical output stays in place.
func (r *DocumentRepository) SaveRawText(ctx context.Context, id string, rawText string) error {
	query, args, err := qb.Update("documents").
		Set("raw_text", rawText).
		Set("status", document.StatusParsedRaw).
		Set("error_message", "").
		SetExpr("extracted_at", "NOW()").
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build save raw text query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save raw text: %w", err)
	}
	return nil
}

func (r *DocumentRepository) SaveCanonical(ctx context.Context, id string, canonicalJSON string, parserVersion string) error {
	query, args, err := qb.Update("documents").
		Set("canonical_json", canonicalJSON).
		Set("parser_version", parserVersion).
		Set("status", document.StatusCanonical).
		Set("error_message", "").
		SetExpr("parsed_at", "NOW()").
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build save canonical query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save canonical: %w", err)
	}
	return nil
}

func (r *DocumentRepository) MarkEventsSaved(ctx context.Context, id string) error {
	query, args, err := qb.Update("documents").
		Set("status", document.StatusEventsSaved).
		Set("error_message", "").
		SetExpr("ingested_at", "NOW()").
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark events saved query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark events saved: %w", err)
	}
	return nil
}

func (r *DocumentRepository) MarkError(ctx context.Context, id string, message string) error {
	query, args, err := qb.Update("documents").
		Set("status", document.StatusError).
		Set("error_message", message).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark document error query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark document error: %w", err)
	}
	return nil
}
