package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/clubedata/matchsheet/internal/domain/athlete"
	"github.com/clubedata/matchsheet/internal/platform/id"
)

// AthleteService maintains the registry used by ingestion to resolve
// parsed athlete names to ids.
type AthleteService struct {
	athletes athlete.Repository
	ids      id.Generator
}

func NewAthleteService(athletes athlete.Repository, ids id.Generator) *AthleteService {
	return &AthleteService{athletes: athletes, ids: ids}
}

func (s *AthleteService) Upsert(ctx context.Context, items []athlete.Athlete) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AthleteService.Upsert")
	defer span.End()

	if len(items) == 0 {
		return 0, fmt.Errorf("%w: athletes are required", ErrInvalidInput)
	}

	cleaned := make([]athlete.Athlete, 0, len(items))
	for _, item := range items {
		item.Team = strings.TrimSpace(item.Team)
		item.Name = strings.TrimSpace(item.Name)
		if item.ID == "" {
			generated, err := s.ids.NewID()
			if err != nil {
				return 0, fmt.Errorf("generate athlete id: %w", err)
			}
			item.ID = generated
		}
		if err := item.Validate(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		cleaned = append(cleaned, item)
	}

	count, err := s.athletes.Upsert(ctx, cleaned)
	if err != nil {
		return 0, fmt.Errorf("upsert athletes: %w", err)
	}
	return count, nil
}

func (s *AthleteService) ListByTeams(ctx context.Context, teams []string) ([]athlete.Athlete, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AthleteService.ListByTeams")
	defer span.End()

	trimmed := make([]string, 0, len(teams))
	for _, team := range teams {
		if t := strings.TrimSpace(team); t != "" {
			trimmed = append(trimmed, t)
		}
	}
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: at least one team is required", ErrInvalidInput)
	}
	return s.athletes.ListByTeams(ctx, trimmed)
}
