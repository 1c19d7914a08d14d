package cache

import (
	"context"

	"github.com/clubedata/matchsheet/internal/domain/athletestat"
	"github.com/clubedata/matchsheet/internal/domain/fixture"
	basecache "github.com/clubedata/matchsheet/internal/platform/cache"
)

// FixtureRepository caches competition listings in front of the real
// repository. An upsert drops the affected competition keys, so readers
// never see a listing older than the last sweep.
type FixtureRepository struct {
	next  fixture.Repository
	cache *basecache.Store
}

func NewFixtureRepository(next fixture.Repository, cache *basecache.Store) *FixtureRepository {
	return &FixtureRepository{next: next, cache: cache}
}

func (r *FixtureRepository) UpsertBatch(ctx context.Context, fixtures []fixture.Fixture) (int, error) {
	count, err := r.next.UpsertBatch(ctx, fixtures)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(fixtures))
	for _, item := range fixtures {
		if _, ok := seen[item.CompetitionID]; ok {
			continue
		}
		seen[item.CompetitionID] = struct{}{}
		r.cache.Delete(ctx, fixtureListKey(item.CompetitionID))
	}
	return count, nil
}

func (r *FixtureRepository) ListByCompetition(ctx context.Context, competitionID string) ([]fixture.Fixture, error) {
	v, err := r.cache.GetOrLoad(ctx, fixtureListKey(competitionID), func(ctx context.Context) (any, error) {
		items, err := r.next.ListByCompetition(ctx, competitionID)
		if err != nil {
			return nil, err
		}
		return append([]fixture.Fixture(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]fixture.Fixture)
	return append([]fixture.Fixture(nil), items...), nil
}

func fixtureListKey(competitionID string) string {
	return "fixture:list:" + competitionID
}

// AthleteStatRepository caches per-match stat listings. A rebuild replaces
// the whole DERIVED block, so it simply drops the match key.
type AthleteStatRepository struct {
	next  athletestat.Repository
	cache *basecache.Store
}

func NewAthleteStatRepository(next athletestat.Repository, cache *basecache.Store) *AthleteStatRepository {
	return &AthleteStatRepository{next: next, cache: cache}
}

func (r *AthleteStatRepository) ReplaceDerived(ctx context.Context, matchKey string, rows []athletestat.MatchStat) error {
	if err := r.next.ReplaceDerived(ctx, matchKey, rows); err != nil {
		return err
	}
	r.cache.Delete(ctx, statListKey(matchKey))
	return nil
}

func (r *AthleteStatRepository) ListByMatchKey(ctx context.Context, matchKey string) ([]athletestat.MatchStat, error) {
	v, err := r.cache.GetOrLoad(ctx, statListKey(matchKey), func(ctx context.Context) (any, error) {
		items, err := r.next.ListByMatchKey(ctx, matchKey)
		if err != nil {
			return nil, err
		}
		return append([]athletestat.MatchStat(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]athletestat.MatchStat)
	return append([]athletestat.MatchStat(nil), items...), nil
}

func statListKey(matchKey string) string {
	return "athlete-stat:list:" + matchKey
}
