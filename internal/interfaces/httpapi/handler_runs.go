package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clubedata/matchsheet/internal/domain/runledger"
	"github.com/clubedata/matchsheet/internal/usecase"
)

const defaultStaleRunAge = 30 * time.Minute

type runEntryDTO struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Subject    string         `json:"subject"`
	Status     string         `json:"status"`
	Summary    map[string]int `json:"summary,omitempty"`
	ErrorText  string         `json:"error_text,omitempty"`
	StartedAt  string         `json:"started_at"`
	FinishedAt string         `json:"finished_at,omitempty"`
}

func runEntryToDTO(entry runledger.Entry) runEntryDTO {
	return runEntryDTO{
		ID:         entry.ID,
		Kind:       entry.Kind,
		Subject:    entry.Subject,
		Status:     entry.Status,
		Summary:    entry.Summary,
		ErrorText:  entry.ErrorText,
		StartedAt:  entry.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: formatOptionalTime(entry.FinishedAt),
	}
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRuns")
	defer span.End()

	kind := strings.TrimSpace(r.URL.Query().Get("kind"))
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(ctx, w, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	entries, err := h.runService.List(ctx, kind, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list runs failed", "kind", kind, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]runEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, runEntryToDTO(entry))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRun")
	defer span.End()

	entry, err := h.runService.Get(ctx, r.PathValue("runID"))
	if err != nil {
		h.logger.WarnContext(ctx, "get run failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, runEntryToDTO(*entry))
}

// ListStaleRuns surfaces RUNNING entries older than the cutoff so an
// operator can investigate crashed pipelines. Nothing is swept.
func (h *Handler) ListStaleRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListStaleRuns")
	defer span.End()

	olderThan := defaultStaleRunAge
	if raw := strings.TrimSpace(r.URL.Query().Get("older_than")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			writeError(ctx, w, fmt.Errorf("%w: older_than must be a positive duration", usecase.ErrInvalidInput))
			return
		}
		olderThan = parsed
	}

	entries, err := h.runService.ListStale(ctx, olderThan)
	if err != nil {
		h.logger.WarnContext(ctx, "list stale runs failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]runEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, runEntryToDTO(entry))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}
