package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/clubedata/matchsheet/internal/domain/document"
	"github.com/clubedata/matchsheet/internal/domain/matchkey"
	"github.com/clubedata/matchsheet/internal/parser"
	"github.com/clubedata/matchsheet/internal/platform/id"
	"github.com/clubedata/matchsheet/internal/platform/logging"
	"github.com/clubedata/matchsheet/internal/platform/objstore"
)

// TextExtractor is the opaque bytes-to-text contract.
type TextExtractor func(data []byte) (string, error)

// DocumentService owns the document lifecycle: upload, raw-text
// extraction and canonical parse. Each stage is idempotent and
// re-entrant; rerunning a stage overwrites only that stage's output.
type DocumentService struct {
	docs    document.Repository
	store   objstore.Store
	extract TextExtractor
	ids     id.Generator
	bucket  string
	logger  *logging.Logger
}

func NewDocumentService(
	docs document.Repository,
	store objstore.Store,
	extract TextExtractor,
	ids id.Generator,
	bucket string,
	logger *logging.Logger,
) *DocumentService {
	if logger == nil {
		logger = logging.Default()
	}

	return &DocumentService{
		docs:    docs,
		store:   store,
		extract: extract,
		ids:     ids,
		bucket:  bucket,
		logger:  logger,
	}
}

type UploadDocumentInput struct {
	Scope          string
	MatchID        *string
	SandboxMatchID *string
	FileName       string
	Data           []byte
}

// Upload validates the scope/id pairing before anything touches storage,
// stores the sheet bytes and inserts the UPLOADED document row.
func (s *DocumentService) Upload(ctx context.Context, input UploadDocumentInput) (*document.Document, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DocumentService.Upload")
	defer span.End()

	key, err := matchkey.Derive(input.Scope, input.MatchID, input.SandboxMatchID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(input.Data) == 0 {
		return nil, fmt.Errorf("%w: document bytes are required", ErrInvalidInput)
	}

	docID, err := s.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate document id: %w", err)
	}

	checksum := sha256.Sum256(input.Data)
	storagePath := storagePathFor(key, docID, input.FileName)

	if err := s.store.Upload(ctx, s.bucket, storagePath, input.Data); err != nil {
		return nil, fmt.Errorf("%w: upload sheet bytes: %v", ErrDependencyUnavailable, err)
	}

	doc := document.Document{
		ID:             docID,
		Scope:          matchkey.NormalizeScope(input.Scope),
		MatchID:        cloneStringPtr(input.MatchID),
		SandboxMatchID: cloneStringPtr(input.SandboxMatchID),
		MatchKey:       key,
		Bucket:         s.bucket,
		StoragePath:    storagePath,
		Checksum:       hex.EncodeToString(checksum[:]),
		Status:         document.StatusUploaded,
	}
	if err := s.docs.Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	s.logger.InfoContext(ctx, "document uploaded",
		"document_id", docID, "match_key", key, "bytes", len(input.Data))

	stored, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("load stored document: %w", err)
	}
	return stored, nil
}

// Extract downloads the stored bytes and overwrites raw_text, resetting
// the document to PARSED_RAW even if it was further along.
func (s *DocumentService) Extract(ctx context.Context, documentID string) (*document.Document, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DocumentService.Extract")
	defer span.End()

	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}

	data, err := s.store.Download(ctx, doc.Bucket, doc.StoragePath)
	if err != nil {
		return nil, s.fail(ctx, doc.ID, fmt.Errorf("%w: download sheet bytes: %v", ErrDependencyUnavailable, err))
	}

	text, err := s.extract(data)
	if err != nil {
		return nil, s.fail(ctx, doc.ID, fmt.Errorf("extract text: %w", err))
	}

	if err := s.docs.SaveRawText(ctx, doc.ID, text); err != nil {
		return nil, fmt.Errorf("save raw text: %w", err)
	}

	s.logger.InfoContext(ctx, "document text extracted", "document_id", doc.ID, "chars", len(text))
	return s.docs.GetByID(ctx, doc.ID)
}

// Parse turns raw_text into the canonical report and stores it alongside
// the parser version. Tolerant: a sheet the heuristics cannot read still
// becomes an empty but valid canonical report.
func (s *DocumentService) Parse(ctx context.Context, documentID string) (*document.Document, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DocumentService.Parse")
	defer span.End()

	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.HasRawText() {
		return nil, fmt.Errorf("%w: document %s has no raw text to parse", ErrConflict, doc.ID)
	}

	rep, stats, err := parser.Parse(doc.RawText)
	if err != nil {
		return nil, s.fail(ctx, doc.ID, fmt.Errorf("parse report: %w", err))
	}

	canonical, err := sonic.MarshalString(rep)
	if err != nil {
		return nil, s.fail(ctx, doc.ID, fmt.Errorf("encode canonical report: %w", err))
	}

	if err := s.docs.SaveCanonical(ctx, doc.ID, canonical, parser.Version); err != nil {
		return nil, fmt.Errorf("save canonical report: %w", err)
	}

	s.logger.InfoContext(ctx, "document parsed",
		"document_id", doc.ID,
		"parser_version", parser.Version,
		"athlete_lines", stats.AthleteLines,
		"event_lines", stats.EventLines,
		"skipped_lines", stats.SkippedLines)

	return s.docs.GetByID(ctx, doc.ID)
}

func (s *DocumentService) Get(ctx context.Context, documentID string) (*document.Document, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DocumentService.Get")
	defer span.End()

	return s.load(ctx, documentID)
}

func (s *DocumentService) ListByMatchKey(ctx context.Context, key string) ([]document.Document, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DocumentService.ListByMatchKey")
	defer span.End()

	if _, _, err := matchkey.Parse(key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.docs.ListByMatchKey(ctx, key)
}

func (s *DocumentService) load(ctx context.Context, documentID string) (*document.Document, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return nil, fmt.Errorf("%w: document_id is required", ErrInvalidInput)
	}
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document %s", ErrNotFound, documentID)
	}
	return doc, nil
}

// fail records the stage failure on the document and passes the original
// error through. Prior stage output stays untouched so the stage can be
// retried.
func (s *DocumentService) fail(ctx context.Context, documentID string, cause error) error {
	if err := s.docs.MarkError(ctx, documentID, document.TruncateError(cause.Error())); err != nil {
		s.logger.ErrorContext(ctx, "mark document error failed", "document_id", documentID, "error", err)
	}
	return cause
}

func storagePathFor(key string, docID string, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if ext == "" {
		ext = ".pdf"
	}
	return strings.ReplaceAll(key, ":", "/") + "/" + docID + ext
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	cloned := strings.TrimSpace(*value)
	return &cloned
}
