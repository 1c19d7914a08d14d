package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/clubedata/matchsheet/internal/domain/fixture"
	"github.com/clubedata/matchsheet/internal/domain/matchkey"
	"github.com/clubedata/matchsheet/internal/domain/runledger"
	"github.com/clubedata/matchsheet/internal/platform/id"
	"github.com/clubedata/matchsheet/internal/platform/logging"
)

// CandidateFixture is one scraped record from the external feed. The feed
// is best effort: optional fields stay zero when a detail fetch failed.
type CandidateFixture struct {
	Source    string
	DetailURL string
	HomeTeam  string
	AwayTeam  string
	KickoffAt time.Time
	HomeScore *int
	AwayScore *int
	Round     string
	Venue     string
	Status    string
}

// FeedCounters reports what one fetch did, replacing any notion of shared
// state inside the adapter.
type FeedCounters struct {
	PagesFetched   int
	DetailsFetched int
	DetailFailures int
}

// FixtureFeed is the black-box scraping adapter. It never errors for
// "nothing found", only for transport failure.
type FixtureFeed interface {
	FetchFixtures(ctx context.Context, competitionURL string) ([]CandidateFixture, FeedCounters, error)
}

type CompetitionConfig struct {
	ID  string
	URL string
}

// FixtureSyncService reconciles scraped fixtures per competition using
// content-hash change detection: unchanged batches only touch
// last_checked_at, changed batches upsert by (source, source_url).
type FixtureSyncService struct {
	feed         FixtureFeed
	fixtures     fixture.Repository
	syncStates   fixture.SyncStateRepository
	runs         runledger.Repository
	ids          id.Generator
	competitions []CompetitionConfig
	logger       *logging.Logger
}

func NewFixtureSyncService(
	feed FixtureFeed,
	fixtures fixture.Repository,
	syncStates fixture.SyncStateRepository,
	runs runledger.Repository,
	ids id.Generator,
	competitions []CompetitionConfig,
	logger *logging.Logger,
) *FixtureSyncService {
	if logger == nil {
		logger = logging.Default()
	}

	return &FixtureSyncService{
		feed:         feed,
		fixtures:     fixtures,
		syncStates:   syncStates,
		runs:         runs,
		ids:          ids,
		competitions: competitions,
		logger:       logger,
	}
}

type SyncResult struct {
	RunID         string
	CompetitionID string
	Checked       int
	Changed       bool
	Upserted      int
	Dropped       int
	Counters      FeedCounters
	Err           string
}

// SyncAll reconciles every configured competition. A failing competition
// is recorded and skipped, never fatal for the rest.
func (s *FixtureSyncService) SyncAll(ctx context.Context) ([]SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureSyncService.SyncAll")
	defer span.End()

	if len(s.competitions) == 0 {
		return nil, stageErr(StageSync, fmt.Errorf("%w: no competitions configured", ErrInvalidInput))
	}

	results := make([]SyncResult, 0, len(s.competitions))
	for _, comp := range s.competitions {
		result, err := s.SyncCompetition(ctx, comp.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "competition sync failed", "competition_id", comp.ID, "error", err)
			results = append(results, SyncResult{CompetitionID: comp.ID, Err: err.Error()})
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

func (s *FixtureSyncService) SyncCompetition(ctx context.Context, competitionID string) (*SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureSyncService.SyncCompetition")
	defer span.End()

	competitionID = strings.TrimSpace(competitionID)
	comp, ok := s.findCompetition(competitionID)
	if !ok {
		return nil, stageErr(StageSync, fmt.Errorf("%w: unknown competition %q", ErrInvalidInput, competitionID))
	}

	runID := beginRun(ctx, s.runs, s.ids, runledger.KindFixtureSync, comp.ID, s.logger)

	candidates, counters, err := s.feed.FetchFixtures(ctx, comp.URL)
	if err != nil {
		wrapped := fmt.Errorf("%w: fetch fixtures: %v", ErrDependencyUnavailable, err)
		finishRun(ctx, s.runs, runID, runledger.StatusError, nil, wrapped.Error(), s.logger)
		return nil, stageErr(StageSync, wrapped)
	}

	normalized, dropped := normalizeCandidates(comp.ID, candidates)
	contentHash := hashFixtureBatch(normalized)

	result := SyncResult{
		RunID:         runID,
		CompetitionID: comp.ID,
		Checked:       len(normalized),
		Dropped:       dropped,
		Counters:      counters,
	}

	state, err := s.syncStates.Get(ctx, comp.ID)
	if err != nil {
		wrapped := fmt.Errorf("load sync state: %w", err)
		finishRun(ctx, s.runs, runID, runledger.StatusError, nil, wrapped.Error(), s.logger)
		return nil, stageErr(StageSync, wrapped)
	}

	if state != nil && state.ContentHash == contentHash {
		if err := s.syncStates.TouchChecked(ctx, comp.ID); err != nil {
			wrapped := fmt.Errorf("touch sync state: %w", err)
			finishRun(ctx, s.runs, runID, runledger.StatusError, nil, wrapped.Error(), s.logger)
			return nil, stageErr(StageSync, wrapped)
		}
		finishRun(ctx, s.runs, runID, runledger.StatusDone, s.summary(result), "", s.logger)
		s.logger.InfoContext(ctx, "fixtures unchanged", "competition_id", comp.ID, "checked", result.Checked)
		return &result, nil
	}

	upserted, err := s.fixtures.UpsertBatch(ctx, normalized)
	if err != nil {
		wrapped := fmt.Errorf("upsert fixtures: %w", err)
		finishRun(ctx, s.runs, runID, runledger.StatusError, nil, wrapped.Error(), s.logger)
		return nil, stageErr(StageSync, wrapped)
	}
	if err := s.syncStates.SaveChanged(ctx, comp.ID, contentHash); err != nil {
		wrapped := fmt.Errorf("save sync state: %w", err)
		finishRun(ctx, s.runs, runID, runledger.StatusError, nil, wrapped.Error(), s.logger)
		return nil, stageErr(StageSync, wrapped)
	}

	result.Changed = true
	result.Upserted = upserted
	finishRun(ctx, s.runs, runID, runledger.StatusDone, s.summary(result), "", s.logger)

	s.logger.InfoContext(ctx, "fixtures reconciled",
		"competition_id", comp.ID,
		"checked", result.Checked,
		"upserted", upserted,
		"dropped", dropped,
		"detail_failures", counters.DetailFailures)
	return &result, nil
}

func (s *FixtureSyncService) ListByCompetition(ctx context.Context, competitionID string) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureSyncService.ListByCompetition")
	defer span.End()

	competitionID = strings.TrimSpace(competitionID)
	if competitionID == "" {
		return nil, fmt.Errorf("%w: competition_id is required", ErrInvalidInput)
	}
	return s.fixtures.ListByCompetition(ctx, competitionID)
}

func (s *FixtureSyncService) findCompetition(competitionID string) (CompetitionConfig, bool) {
	for _, comp := range s.competitions {
		if comp.ID == competitionID {
			return comp, true
		}
	}
	return CompetitionConfig{}, false
}

func (s *FixtureSyncService) summary(result SyncResult) map[string]int {
	changed := 0
	if result.Changed {
		changed = 1
	}
	return map[string]int{
		"checked":         result.Checked,
		"changed":         changed,
		"upserted":        result.Upserted,
		"dropped":         result.Dropped,
		"detail_failures": result.Counters.DetailFailures,
	}
}

// normalizeCandidates maps feed records onto fixture rows with the stable
// natural key stamped. Records missing both teams or a date are dropped
// with a counter.
func normalizeCandidates(competitionID string, candidates []CandidateFixture) ([]fixture.Fixture, int) {
	normalized := make([]fixture.Fixture, 0, len(candidates))
	dropped := 0
	for _, c := range candidates {
		home := strings.TrimSpace(c.HomeTeam)
		away := strings.TrimSpace(c.AwayTeam)
		source := strings.ToLower(strings.TrimSpace(c.Source))
		if home == "" || away == "" || c.KickoffAt.IsZero() || source == "" {
			dropped++
			continue
		}

		sourceURL := matchkey.SourceURL(source, c.DetailURL, c.KickoffAt, home, away)
		normalized = append(normalized, fixture.Fixture{
			ID:            syntheticFixtureID(source, sourceURL),
			CompetitionID: competitionID,
			Source:        source,
			SourceURL:     sourceURL,
			HomeTeam:      home,
			AwayTeam:      away,
			HomeScore:     cloneIntPtr(c.HomeScore),
			AwayScore:     cloneIntPtr(c.AwayScore),
			KickoffAt:     c.KickoffAt.UTC(),
			Round:         strings.TrimSpace(c.Round),
			Venue:         strings.TrimSpace(c.Venue),
			Status:        fixture.NormalizeStatus(c.Status),
		})
	}

	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].SourceURL < normalized[j].SourceURL
	})
	return normalized, dropped
}

// fixtureDigest is the canonical subset hashed for change detection.
type fixtureDigest struct {
	Source    string `json:"source"`
	SourceURL string `json:"source_url"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	HomeScore *int   `json:"home_score"`
	AwayScore *int   `json:"away_score"`
	KickoffAt string `json:"kickoff_at"`
	Round     string `json:"round"`
	Venue     string `json:"venue"`
	Status    string `json:"status"`
}

func hashFixtureBatch(fixtures []fixture.Fixture) string {
	digests := make([]fixtureDigest, 0, len(fixtures))
	for _, f := range fixtures {
		digests = append(digests, fixtureDigest{
			Source:    f.Source,
			SourceURL: f.SourceURL,
			HomeTeam:  f.HomeTeam,
			AwayTeam:  f.AwayTeam,
			HomeScore: f.HomeScore,
			AwayScore: f.AwayScore,
			KickoffAt: f.KickoffAt.UTC().Format(time.RFC3339),
			Round:     f.Round,
			Venue:     f.Venue,
			Status:    f.Status,
		})
	}

	payload, err := sonic.Marshal(digests)
	if err != nil {
		payload = []byte(fmt.Sprintf("%+v", digests))
	}
	hash := sha256.Sum256(payload)
	return hex.EncodeToString(hash[:])
}

func syntheticFixtureID(source string, sourceURL string) string {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(source))
	_, _ = hasher.Write([]byte{0})
	_, _ = hasher.Write([]byte(sourceURL))
	return fmt.Sprintf("fx-%016x", hasher.Sum64())
}

func cloneIntPtr(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
