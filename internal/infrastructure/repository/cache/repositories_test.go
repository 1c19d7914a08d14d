package cache

import (
	"context"
	"testing"
	"time"

	"github.com/clubedata/matchsheet/internal/domain/fixture"
	"github.com/clubedata/matchsheet/internal/infrastructure/repository/memory"
	basecache "github.com/clubedata/matchsheet/internal/platform/cache"
)

func TestFixtureRepository_CachesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	next := &countingFixtureRepo{next: memory.NewFixtureRepository()}
	repo := NewFixtureRepository(next, basecache.NewStore(time.Minute))

	seed := []fixture.Fixture{{
		ID:            "f-1",
		CompetitionID: "paulista-2009",
		Source:        "federacao",
		SourceURL:     "https://example.org/jogo/1",
		HomeTeam:      "sao paulo fc",
		AwayTeam:      "guarani",
		KickoffAt:     time.Date(2009, 5, 3, 16, 0, 0, 0, time.UTC),
		Status:        "SCHEDULED",
	}}
	if _, err := repo.UpsertBatch(ctx, seed); err != nil {
		t.Fatalf("upsert batch: %v", err)
	}

	for range 3 {
		items, err := repo.ListByCompetition(ctx, "paulista-2009")
		if err != nil {
			t.Fatalf("list by competition: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("expected 1 fixture, got %d", len(items))
		}
	}
	if next.listCalls != 1 {
		t.Fatalf("expected 1 backing list call, got %d", next.listCalls)
	}

	seed[0].Status = "FINISHED"
	if _, err := repo.UpsertBatch(ctx, seed); err != nil {
		t.Fatalf("upsert batch: %v", err)
	}

	items, err := repo.ListByCompetition(ctx, "paulista-2009")
	if err != nil {
		t.Fatalf("list by competition after upsert: %v", err)
	}
	if next.listCalls != 2 {
		t.Fatalf("expected cache drop after upsert, list calls=%d", next.listCalls)
	}
	if items[0].Status != "FINISHED" {
		t.Fatalf("expected refreshed status, got %s", items[0].Status)
	}
}

type countingFixtureRepo struct {
	next      fixture.Repository
	listCalls int
}

func (r *countingFixtureRepo) UpsertBatch(ctx context.Context, fixtures []fixture.Fixture) (int, error) {
	return r.next.UpsertBatch(ctx, fixtures)
}

func (r *countingFixtureRepo) ListByCompetition(ctx context.Context, competitionID string) ([]fixture.Fixture, error) {
	r.listCalls++
	return r.next.ListByCompetition(ctx, competitionID)
}
