package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/clubedata/matchsheet/internal/domain/athletestat"
	"github.com/clubedata/matchsheet/internal/usecase"
)

type rebuildStatsRequest struct {
	MatchKey   string `json:"match_key" validate:"omitempty,max=120"`
	DocumentID string `json:"document_id" validate:"omitempty,max=120"`
}

type rebuildResultDTO struct {
	RunID    string `json:"run_id,omitempty"`
	MatchKey string `json:"match_key"`
	Athletes int    `json:"athletes"`
}

type athleteStatDTO struct {
	MatchKey      string  `json:"match_key"`
	EventUID      string  `json:"event_uid"`
	TeamSide      string  `json:"team_side"`
	AthleteID     *string `json:"athlete_id,omitempty"`
	AthleteName   string  `json:"athlete_name"`
	Started       bool    `json:"started"`
	Captain       bool    `json:"captain"`
	Participated  bool    `json:"participated"`
	MinutesPlayed int     `json:"minutes_played"`
	Goals         int     `json:"goals"`
	Assists       int     `json:"assists"`
	YellowCards   int     `json:"yellow_cards"`
	RedCards      int     `json:"red_cards"`
	Source        string  `json:"source"`
}

func athleteStatToDTO(row athletestat.MatchStat) athleteStatDTO {
	return athleteStatDTO{
		MatchKey:      row.MatchKey,
		EventUID:      row.EventUID,
		TeamSide:      row.TeamSide,
		AthleteID:     row.AthleteID,
		AthleteName:   row.AthleteName,
		Started:       row.Started,
		Captain:       row.Captain,
		Participated:  row.Participated,
		MinutesPlayed: row.MinutesPlayed,
		Goals:         row.Goals,
		Assists:       row.Assists,
		YellowCards:   row.YellowCards,
		RedCards:      row.RedCards,
		Source:        row.Source,
	}
}

// RebuildStats recomputes derived stats either for a match key or for the
// match a document belongs to. Exactly one selector must be set.
func (h *Handler) RebuildStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RebuildStats")
	defer span.End()

	var req rebuildStatsRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchKey := strings.TrimSpace(req.MatchKey)
	documentID := strings.TrimSpace(req.DocumentID)
	if (matchKey == "") == (documentID == "") {
		writeError(ctx, w, fmt.Errorf("%w: exactly one of match_key or document_id is required", usecase.ErrInvalidInput))
		return
	}

	var (
		result *usecase.RebuildResult
		err    error
	)
	if matchKey != "" {
		result, err = h.statsService.Rebuild(ctx, matchKey)
	} else {
		result, err = h.statsService.RebuildForDocument(ctx, documentID)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "rebuild stats failed", "match_key", matchKey, "document_id", documentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rebuildResultDTO{
		RunID:    result.RunID,
		MatchKey: result.MatchKey,
		Athletes: result.Athletes,
	})
}

func (h *Handler) ListMatchStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchStats")
	defer span.End()

	rows, err := h.statsService.ListByMatchKey(ctx, r.PathValue("matchKey"))
	if err != nil {
		h.logger.WarnContext(ctx, "list match stats failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]athleteStatDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, athleteStatToDTO(row))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}
