package usecase

import (
	"context"
	"time"

	"github.com/clubedata/matchsheet/internal/domain/runledger"
	"github.com/clubedata/matchsheet/internal/platform/id"
	"github.com/clubedata/matchsheet/internal/platform/logging"
)

// Pipeline stage markers carried on failure results so operators can tell
// "never got a PDF" from "parsed but couldn't save events".
const (
	StageUpload  = "upload"
	StageExtract = "extract"
	StageParse   = "parse"
	StageIngest  = "ingest"
	StageRebuild = "rebuild"
	StageSync    = "sync"
)

// StageError pairs a pipeline failure with the stage it happened in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }
func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// beginRun opens a RUNNING ledger entry. A nil repo (tests that do not
// care about the ledger) yields an empty id and no-ops downstream.
func beginRun(ctx context.Context, runs runledger.Repository, ids id.Generator, kind string, subject string, logger *logging.Logger) string {
	if runs == nil {
		return ""
	}
	runID, err := ids.NewID()
	if err != nil {
		logger.WarnContext(ctx, "generate run id failed", "error", err)
		return ""
	}
	entry := runledger.Entry{
		ID:        runID,
		Kind:      kind,
		Subject:   subject,
		Status:    runledger.StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := runs.Begin(ctx, entry); err != nil {
		logger.WarnContext(ctx, "begin run ledger entry failed", "kind", kind, "error", err)
		return ""
	}
	return runID
}

func finishRun(ctx context.Context, runs runledger.Repository, runID string, status string, summary map[string]int, errText string, logger *logging.Logger) {
	if runs == nil || runID == "" {
		return
	}
	if err := runs.Finish(ctx, runID, status, summary, errText); err != nil {
		logger.WarnContext(ctx, "finish run ledger entry failed", "run_id", runID, "error", err)
	}
}
