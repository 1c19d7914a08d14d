package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clubedata/matchsheet/internal/domain/runledger"
)

const defaultRunListLimit = 50

// RunService exposes the run ledger to operators. Stale RUNNING entries
// are surfaced, not swept; deciding what to do with them stays a human
// call.
type RunService struct {
	runs runledger.Repository
}

func NewRunService(runs runledger.Repository) *RunService {
	return &RunService{runs: runs}
}

func (s *RunService) Get(ctx context.Context, runID string) (*runledger.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RunService.Get")
	defer span.End()

	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("%w: run_id is required", ErrInvalidInput)
	}
	entry, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	return entry, nil
}

func (s *RunService) List(ctx context.Context, kind string, limit int) ([]runledger.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RunService.List")
	defer span.End()

	kind = strings.ToUpper(strings.TrimSpace(kind))
	if kind != "" && !runledger.IsValidKind(kind) {
		return nil, fmt.Errorf("%w: unknown run kind %q", ErrInvalidInput, kind)
	}
	if limit <= 0 || limit > 500 {
		limit = defaultRunListLimit
	}
	return s.runs.List(ctx, kind, limit)
}

func (s *RunService) ListStale(ctx context.Context, olderThan time.Duration) ([]runledger.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RunService.ListStale")
	defer span.End()

	if olderThan <= 0 {
		return nil, fmt.Errorf("%w: older_than must be positive", ErrInvalidInput)
	}
	return s.runs.ListStale(ctx, olderThan)
}
