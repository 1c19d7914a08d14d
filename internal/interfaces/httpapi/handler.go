package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/clubedata/matchsheet/internal/platform/logging"
	"github.com/clubedata/matchsheet/internal/usecase"
)

// maxRequestBodyBytes caps JSON request bodies. Sheet uploads go through
// the multipart path with its own limit.
const maxRequestBodyBytes = 1 << 20

type Handler struct {
	documentService *usecase.DocumentService
	ingestService   *usecase.IngestionService
	statsService    *usecase.StatsService
	athleteService  *usecase.AthleteService
	syncService     *usecase.FixtureSyncService
	runService      *usecase.RunService
	logger          *logging.Logger
	validator       *validator.Validate
}

func NewHandler(
	documentService *usecase.DocumentService,
	ingestService *usecase.IngestionService,
	statsService *usecase.StatsService,
	athleteService *usecase.AthleteService,
	syncService *usecase.FixtureSyncService,
	runService *usecase.RunService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		documentService: documentService,
		ingestService:   ingestService,
		statsService:    statsService,
		athleteService:  athleteService,
		syncService:     syncService,
		runService:      runService,
		logger:          logger,
		validator:       validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.decodeRequest")
	defer span.End()

	body := io.LimitReader(r.Body, maxRequestBodyBytes)
	if err := sonic.ConfigDefault.NewDecoder(body).Decode(payload); err != nil {
		return fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func formatOptionalTime(v *time.Time) string {
	if v == nil || v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}
