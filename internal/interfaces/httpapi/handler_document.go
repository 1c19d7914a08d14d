package httpapi

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clubedata/matchsheet/internal/domain/document"
	"github.com/clubedata/matchsheet/internal/usecase"
)

// maxUploadBytes caps one uploaded sheet. Federation PDFs are single-digit
// megabytes; anything past this is not a match sheet.
const maxUploadBytes = 20 << 20

type uploadDocumentRequest struct {
	Scope          string  `json:"scope" validate:"required"`
	MatchID        *string `json:"match_id,omitempty"`
	SandboxMatchID *string `json:"sandbox_match_id,omitempty"`
	FileName       string  `json:"file_name" validate:"omitempty,max=255"`
	DataBase64     string  `json:"data_base64" validate:"required"`
}

type documentDTO struct {
	ID             string  `json:"id"`
	Scope          string  `json:"scope"`
	MatchID        *string `json:"match_id,omitempty"`
	SandboxMatchID *string `json:"sandbox_match_id,omitempty"`
	MatchKey       string  `json:"match_key"`
	Bucket         string  `json:"bucket"`
	StoragePath    string  `json:"storage_path"`
	Checksum       string  `json:"checksum"`
	ParserVersion  string  `json:"parser_version,omitempty"`
	Status         string  `json:"status"`
	HasRawText     bool    `json:"has_raw_text"`
	HasCanonical   bool    `json:"has_canonical"`
	ErrorMessage   string  `json:"error_message,omitempty"`
	UploadedAt     string  `json:"uploaded_at"`
	ExtractedAt    string  `json:"extracted_at,omitempty"`
	ParsedAt       string  `json:"parsed_at,omitempty"`
	IngestedAt     string  `json:"ingested_at,omitempty"`
	UpdatedAt      string  `json:"updated_at"`
}

type ingestResultDTO struct {
	RunID    string         `json:"run_id,omitempty"`
	MatchKey string         `json:"match_key"`
	Inserted map[string]int `json:"inserted"`
	Dropped  int            `json:"dropped"`
}

func documentToDTO(doc document.Document) documentDTO {
	return documentDTO{
		ID:             doc.ID,
		Scope:          doc.Scope,
		MatchID:        doc.MatchID,
		SandboxMatchID: doc.SandboxMatchID,
		MatchKey:       doc.MatchKey,
		Bucket:         doc.Bucket,
		StoragePath:    doc.StoragePath,
		Checksum:       doc.Checksum,
		ParserVersion:  doc.ParserVersion,
		Status:         doc.Status,
		HasRawText:     doc.HasRawText(),
		HasCanonical:   doc.HasCanonical(),
		ErrorMessage:   doc.ErrorMessage,
		UploadedAt:     doc.UploadedAt.UTC().Format(time.RFC3339),
		ExtractedAt:    formatOptionalTime(doc.ExtractedAt),
		ParsedAt:       formatOptionalTime(doc.ParsedAt),
		IngestedAt:     formatOptionalTime(doc.IngestedAt),
		UpdatedAt:      doc.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// UploadDocument accepts either multipart/form-data (file plus scope
// fields) or a JSON body with base64 sheet bytes.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UploadDocument")
	defer span.End()

	input, err := h.parseUploadRequest(ctx, r)
	if err != nil {
		h.logger.WarnContext(ctx, "parse upload request failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	doc, err := h.documentService.Upload(ctx, *input)
	if err != nil {
		h.logger.ErrorContext(ctx, "upload document failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, documentToDTO(*doc))
}

func (h *Handler) parseUploadRequest(ctx context.Context, r *http.Request) (*usecase.UploadDocumentInput, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return h.parseMultipartUpload(ctx, r)
	}

	var req uploadDocumentRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		return nil, err
	}
	if err := h.validateRequest(ctx, &req); err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(req.DataBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: data_base64 is not valid base64: %v", usecase.ErrInvalidInput, err)
	}

	return &usecase.UploadDocumentInput{
		Scope:          req.Scope,
		MatchID:        req.MatchID,
		SandboxMatchID: req.SandboxMatchID,
		FileName:       req.FileName,
		Data:           data,
	}, nil
}

func (h *Handler) parseMultipartUpload(ctx context.Context, r *http.Request) (*usecase.UploadDocumentInput, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("%w: parse multipart form: %v", usecase.ErrInvalidInput, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: form field 'file' is required: %v", usecase.ErrInvalidInput, err)
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read uploaded file: %v", usecase.ErrInvalidInput, err)
	}

	input := usecase.UploadDocumentInput{
		Scope:    r.FormValue("scope"),
		FileName: header.Filename,
		Data:     data,
	}
	if v := strings.TrimSpace(r.FormValue("match_id")); v != "" {
		input.MatchID = &v
	}
	if v := strings.TrimSpace(r.FormValue("sandbox_match_id")); v != "" {
		input.SandboxMatchID = &v
	}
	return &input, nil
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetDocument")
	defer span.End()

	doc, err := h.documentService.Get(ctx, r.PathValue("documentID"))
	if err != nil {
		h.logger.WarnContext(ctx, "get document failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, documentToDTO(*doc))
}

func (h *Handler) ListDocumentsByMatchKey(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListDocumentsByMatchKey")
	defer span.End()

	docs, err := h.documentService.ListByMatchKey(ctx, r.PathValue("matchKey"))
	if err != nil {
		h.logger.WarnContext(ctx, "list documents failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]documentDTO, 0, len(docs))
	for _, doc := range docs {
		items = append(items, documentToDTO(doc))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ExtractDocument(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ExtractDocument")
	defer span.End()

	doc, err := h.documentService.Extract(ctx, r.PathValue("documentID"))
	if err != nil {
		h.logger.ErrorContext(ctx, "extract document failed", "document_id", r.PathValue("documentID"), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, documentToDTO(*doc))
}

func (h *Handler) ParseDocument(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ParseDocument")
	defer span.End()

	doc, err := h.documentService.Parse(ctx, r.PathValue("documentID"))
	if err != nil {
		h.logger.ErrorContext(ctx, "parse document failed", "document_id", r.PathValue("documentID"), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, documentToDTO(*doc))
}

func (h *Handler) IngestDocument(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.IngestDocument")
	defer span.End()

	result, err := h.ingestService.IngestDocument(ctx, r.PathValue("documentID"))
	if err != nil {
		h.logger.ErrorContext(ctx, "ingest document failed", "document_id", r.PathValue("documentID"), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, ingestResultDTO{
		RunID:    result.RunID,
		MatchKey: result.MatchKey,
		Inserted: result.Inserted,
		Dropped:  result.Dropped,
	})
}
