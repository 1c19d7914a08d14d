package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/clubedata/matchsheet/internal/domain/runledger"
	qb "github.com/clubedata/matchsheet/internal/platform/querybuilder"
)

type runTableModel struct {
	ID         string       `db:"id"`
	Kind       string       `db:"kind"`
	Subject    string       `db:"subject"`
	Status     string       `db:"status"`
	Summary    string       `db:"summary"`
	ErrorText  string       `db:"error_text"`
	StartedAt  time.Time    `db:"started_at"`
	FinishedAt sql.NullTime `db:"finished_at"`
}

func (m runTableModel) toDomain() (runledger.Entry, error) {
	entry := runledger.Entry{
		ID:         m.ID,
		Kind:       m.Kind,
		Subject:    m.Subject,
		Status:     m.Status,
		ErrorText:  m.ErrorText,
		StartedAt:  m.StartedAt,
		FinishedAt: nullTimeToPtr(m.FinishedAt),
	}
	if m.Summary != "" {
		if err := sonic.UnmarshalString(m.Summary, &entry.Summary); err != nil {
			return entry, fmt.Errorf("decode run summary id=%s: %w", m.ID, err)
		}
	}
	return entry, nil
}

type RunLedgerRepository struct {
	db *sqlx.DB
}

func NewRunLedgerRepository(db *sqlx.DB) *RunLedgerRepository {
	return &RunLedgerRepository{db: db}
}

func (r *RunLedgerRepository) Begin(ctx context.Context, entry runledger.Entry) error {
	if _, err := r.db.ExecContext(ctx, `INSERT INTO pipeline_runs (id, kind, subject, status, started_at)
VALUES ($1, $2, $3, $4, NOW())`, entry.ID, entry.Kind, entry.Subject, entry.Status); err != nil {
		return fmt.Errorf("insert pipeline run: %w", err)
	}
	return nil
}

func (r *RunLedgerRepository) Finish(ctx context.Context, id string, status string, summary map[string]int, errorText string) error {
	encoded := ""
	if len(summary) > 0 {
		var err error
		encoded, err = sonic.MarshalString(summary)
		if err != nil {
			return fmt.Errorf("encode run summary: %w", err)
		}
	}

	query, args, err := qb.Update("pipeline_runs").
		Set("status", status).
		Set("summary", encoded).
		Set("error_text", errorText).
		SetExpr("finished_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build finish pipeline run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("finish pipeline run: %w", err)
	}
	return nil
}

func (r *RunLedgerRepository) GetByID(ctx context.Context, id string) (*runledger.Entry, error) {
	query, args, err := qb.Select(
		"id", "kind", "subject", "status", "summary", "error_text", "started_at", "finished_at",
	).From("pipeline_runs").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get pipeline run query: %w", err)
	}

	var row runTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pipeline run: %w", err)
	}

	entry, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *RunLedgerRepository) List(ctx context.Context, kind string, limit int) ([]runledger.Entry, error) {
	builder := qb.Select(
		"id", "kind", "subject", "status", "summary", "error_text", "started_at", "finished_at",
	).From("pipeline_runs")
	if kind != "" {
		builder = builder.Where(qb.Eq("kind", kind))
	}
	query, args, err := builder.
		OrderBy("started_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pipeline runs query: %w", err)
	}

	var rows []runTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list pipeline runs: %w", err)
	}

	out := make([]runledger.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

// ListStale surfaces RUNNING entries older than the cutoff. They are
// reported, never swept: a stuck run is an operator signal, not garbage.
func (r *RunLedgerRepository) ListStale(ctx context.Context, olderThan time.Duration) ([]runledger.Entry, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	query, args, err := qb.Select(
		"id", "kind", "subject", "status", "summary", "error_text", "started_at", "finished_at",
	).From("pipeline_runs").
		Where(
			qb.Eq("status", runledger.StatusRunning),
			qb.Expr("started_at < ?", cutoff),
		).
		OrderBy("started_at").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list stale pipeline runs query: %w", err)
	}

	var rows []runTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list stale pipeline runs: %w", err)
	}

	out := make([]runledger.Entry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}
