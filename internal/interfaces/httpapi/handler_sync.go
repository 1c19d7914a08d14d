package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/clubedata/matchsheet/internal/domain/fixture"
	"github.com/clubedata/matchsheet/internal/usecase"
)

type syncFixturesRequest struct {
	CompetitionID string `json:"competition_id" validate:"omitempty,max=120"`
}

type syncResultDTO struct {
	RunID         string          `json:"run_id,omitempty"`
	CompetitionID string          `json:"competition_id"`
	Checked       int             `json:"checked"`
	Changed       bool            `json:"changed"`
	Upserted      int             `json:"upserted"`
	Dropped       int             `json:"dropped"`
	Counters      feedCountersDTO `json:"counters"`
	Error         string          `json:"error,omitempty"`
}

type feedCountersDTO struct {
	PagesFetched   int `json:"pages_fetched"`
	DetailsFetched int `json:"details_fetched"`
	DetailFailures int `json:"detail_failures"`
}

type fixtureDTO struct {
	ID            string `json:"id"`
	CompetitionID string `json:"competition_id"`
	Source        string `json:"source"`
	SourceURL     string `json:"source_url"`
	HomeTeam      string `json:"home_team"`
	AwayTeam      string `json:"away_team"`
	HomeScore     *int   `json:"home_score,omitempty"`
	AwayScore     *int   `json:"away_score,omitempty"`
	KickoffAt     string `json:"kickoff_at"`
	Round         string `json:"round,omitempty"`
	Venue         string `json:"venue,omitempty"`
	Status        string `json:"status"`
	LastSeenAt    string `json:"last_seen_at"`
}

func syncResultToDTO(result usecase.SyncResult) syncResultDTO {
	return syncResultDTO{
		RunID:         result.RunID,
		CompetitionID: result.CompetitionID,
		Checked:       result.Checked,
		Changed:       result.Changed,
		Upserted:      result.Upserted,
		Dropped:       result.Dropped,
		Counters: feedCountersDTO{
			PagesFetched:   result.Counters.PagesFetched,
			DetailsFetched: result.Counters.DetailsFetched,
			DetailFailures: result.Counters.DetailFailures,
		},
		Error: result.Err,
	}
}

func fixtureToDTO(item fixture.Fixture) fixtureDTO {
	return fixtureDTO{
		ID:            item.ID,
		CompetitionID: item.CompetitionID,
		Source:        item.Source,
		SourceURL:     item.SourceURL,
		HomeTeam:      item.HomeTeam,
		AwayTeam:      item.AwayTeam,
		HomeScore:     item.HomeScore,
		AwayScore:     item.AwayScore,
		KickoffAt:     item.KickoffAt.UTC().Format(time.RFC3339),
		Round:         item.Round,
		Venue:         item.Venue,
		Status:        item.Status,
		LastSeenAt:    item.LastSeenAt.UTC().Format(time.RFC3339),
	}
}

// SyncFixtures reconciles one competition when competition_id is set,
// otherwise every configured competition.
func (h *Handler) SyncFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncFixtures")
	defer span.End()

	// Empty body means "sync everything".
	var req syncFixturesRequest
	if r.ContentLength != 0 {
		if err := h.decodeRequest(ctx, r, &req); err != nil {
			writeError(ctx, w, err)
			return
		}
		if err := h.validateRequest(ctx, &req); err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	if competitionID := strings.TrimSpace(req.CompetitionID); competitionID != "" {
		result, err := h.syncService.SyncCompetition(ctx, competitionID)
		if err != nil {
			h.logger.ErrorContext(ctx, "fixture sync failed", "competition_id", competitionID, "error", err)
			writeError(ctx, w, err)
			return
		}
		writeSuccess(ctx, w, http.StatusOK, []syncResultDTO{syncResultToDTO(*result)})
		return
	}

	results, err := h.syncService.SyncAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "fixture sync failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]syncResultDTO, 0, len(results))
	for _, result := range results {
		items = append(items, syncResultToDTO(result))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListFixturesByCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixturesByCompetition")
	defer span.End()

	fixtures, err := h.syncService.ListByCompetition(ctx, r.PathValue("competitionID"))
	if err != nil {
		h.logger.WarnContext(ctx, "list fixtures failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]fixtureDTO, 0, len(fixtures))
	for _, item := range fixtures {
		items = append(items, fixtureToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}
