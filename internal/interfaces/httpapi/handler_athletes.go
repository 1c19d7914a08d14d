package httpapi

import (
	"net/http"
	"strings"

	"github.com/clubedata/matchsheet/internal/domain/athlete"
)

type upsertAthleteItem struct {
	ID          string `json:"id"`
	Team        string `json:"team" validate:"required"`
	Name        string `json:"name" validate:"required"`
	ShirtNumber *int   `json:"shirt_number"`
	Active      *bool  `json:"active"`
}

type upsertAthletesRequest struct {
	Athletes []upsertAthleteItem `json:"athletes" validate:"required,min=1,dive"`
}

type athleteDTO struct {
	ID          string `json:"id"`
	Team        string `json:"team"`
	Name        string `json:"name"`
	ShirtNumber *int   `json:"shirt_number,omitempty"`
	Active      bool   `json:"active"`
}

// UpsertAthletes replaces or creates roster entries used by ingestion to
// resolve parsed names to athlete ids.
func (h *Handler) UpsertAthletes(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpsertAthletes")
	defer span.End()

	var req upsertAthletesRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]athlete.Athlete, 0, len(req.Athletes))
	for _, item := range req.Athletes {
		active := true
		if item.Active != nil {
			active = *item.Active
		}
		items = append(items, athlete.Athlete{
			ID:          item.ID,
			Team:        item.Team,
			Name:        item.Name,
			ShirtNumber: item.ShirtNumber,
			Active:      active,
		})
	}

	count, err := h.athleteService.Upsert(ctx, items)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"upserted": count})
}

// ListAthletes returns active roster entries for the teams in the
// comma-separated "teams" query parameter.
func (h *Handler) ListAthletes(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAthletes")
	defer span.End()

	teams := strings.Split(r.URL.Query().Get("teams"), ",")

	items, err := h.athleteService.ListByTeams(ctx, teams)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]athleteDTO, 0, len(items))
	for _, item := range items {
		out = append(out, athleteDTO{
			ID:          item.ID,
			Team:        item.Team,
			Name:        item.Name,
			ShirtNumber: item.ShirtNumber,
			Active:      item.Active,
		})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}
