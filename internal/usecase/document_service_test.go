package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/clubedata/matchsheet/internal/domain/document"
	"github.com/clubedata/matchsheet/internal/domain/report"
	"github.com/clubedata/matchsheet/internal/infrastructure/repository/memory"
	"github.com/clubedata/matchsheet/internal/parser"
	"github.com/clubedata/matchsheet/internal/platform/id"
)

type stubStore struct {
	objects     map[string][]byte
	uploadErr   error
	downloadErr error
}

func newStubStore() *stubStore {
	return &stubStore{objects: make(map[string][]byte)}
}

func (s *stubStore) Upload(_ context.Context, bucket string, path string, data []byte) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.objects[bucket+"/"+path] = data
	return nil
}

func (s *stubStore) Download(_ context.Context, bucket string, path string) ([]byte, error) {
	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	data, ok := s.objects[bucket+"/"+path]
	if !ok {
		return nil, fmt.Errorf("object %s/%s not found", bucket, path)
	}
	return data, nil
}

func passthroughExtractor(data []byte) (string, error) {
	return string(data), nil
}

func newDocumentService(store *stubStore, extract TextExtractor) (*DocumentService, *memory.DocumentRepository) {
	docs := memory.NewDocumentRepository()
	svc := NewDocumentService(docs, store, extract, id.NewRandomGenerator(), "sheets", nil)
	return svc, docs
}

func strPtr(v string) *string { return &v }

func TestDocumentService_Upload(t *testing.T) {
	store := newStubStore()
	svc, _ := newDocumentService(store, passthroughExtractor)

	doc, err := svc.Upload(t.Context(), UploadDocumentInput{
		Scope:    "PROD",
		MatchID:  strPtr("42"),
		FileName: "sumula.pdf",
		Data:     []byte("fake pdf bytes"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if doc.Status != document.StatusUploaded {
		t.Fatalf("unexpected status: %s", doc.Status)
	}
	if doc.MatchKey != "PROD:42" {
		t.Fatalf("unexpected match key: %s", doc.MatchKey)
	}
	if doc.Checksum == "" || len(doc.Checksum) != 64 {
		t.Fatalf("unexpected checksum: %q", doc.Checksum)
	}
	if len(store.objects) != 1 {
		t.Fatalf("expected one stored object, got %d", len(store.objects))
	}
}

func TestDocumentService_Upload_RejectsScopeMismatchBeforeStorage(t *testing.T) {
	store := newStubStore()
	svc, _ := newDocumentService(store, passthroughExtractor)

	_, err := svc.Upload(t.Context(), UploadDocumentInput{
		Scope:          "PROD",
		SandboxMatchID: strPtr("7"),
		Data:           []byte("bytes"),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(store.objects) != 0 {
		t.Fatal("nothing may be written to storage on validation failure")
	}
}

func TestDocumentService_ExtractAndParse(t *testing.T) {
	store := newStubStore()
	svc, _ := newDocumentService(store, passthroughExtractor)

	sheet := "MANDANTE: CORINTHIANS\nVISITANTE: PALMEIRAS\nPLACAR: 2 x 0"
	doc, err := svc.Upload(t.Context(), UploadDocumentInput{
		Scope:          "SANDBOX",
		SandboxMatchID: strPtr("7"),
		Data:           []byte(sheet),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	doc, err = svc.Extract(t.Context(), doc.ID)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if doc.Status != document.StatusParsedRaw || doc.RawText != sheet {
		t.Fatalf("unexpected document after extract: %+v", doc)
	}

	doc, err = svc.Parse(t.Context(), doc.ID)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Status != document.StatusCanonical {
		t.Fatalf("unexpected status after parse: %s", doc.Status)
	}
	if doc.ParserVersion != parser.Version {
		t.Fatalf("unexpected parser version: %s", doc.ParserVersion)
	}

	var rep report.Report
	if err := sonic.UnmarshalString(doc.CanonicalJSON, &rep); err != nil {
		t.Fatalf("decode canonical: %v", err)
	}
	if rep.HomeTeam != "CORINTHIANS" || rep.HomeScore == nil || *rep.HomeScore != 2 {
		t.Fatalf("unexpected canonical report: %+v", rep)
	}
}

func TestDocumentService_ExtractFailureMarksErrorAndStaysRetryable(t *testing.T) {
	store := newStubStore()
	failing := func([]byte) (string, error) { return "", errors.New("scrambled stream") }
	svc, docs := newDocumentService(store, failing)

	doc, err := svc.Upload(t.Context(), UploadDocumentInput{
		Scope:   "PROD",
		MatchID: strPtr("9"),
		Data:    []byte("bytes"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if _, err := svc.Extract(t.Context(), doc.ID); err == nil {
		t.Fatal("expected extract failure")
	}

	stored, err := docs.GetByID(t.Context(), doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != document.StatusError || stored.ErrorMessage == "" {
		t.Fatalf("expected ERROR status with message, got %+v", stored)
	}
}

func TestDocumentService_ParseWithoutRawTextIsConflict(t *testing.T) {
	store := newStubStore()
	svc, _ := newDocumentService(store, passthroughExtractor)

	doc, err := svc.Upload(t.Context(), UploadDocumentInput{
		Scope:   "PROD",
		MatchID: strPtr("1"),
		Data:    []byte("bytes"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if _, err := svc.Parse(t.Context(), doc.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestDocumentService_ReExtractResetsState(t *testing.T) {
	store := newStubStore()
	svc, _ := newDocumentService(store, passthroughExtractor)

	doc, err := svc.Upload(t.Context(), UploadDocumentInput{
		Scope:   "PROD",
		MatchID: strPtr("3"),
		Data:    []byte("PLACAR: 1 x 1\nMANDANTE: A\nVISITANTE: B"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if _, err := svc.Extract(t.Context(), doc.ID); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if _, err := svc.Parse(t.Context(), doc.ID); err != nil {
		t.Fatalf("parse: %v", err)
	}

	doc, err = svc.Extract(t.Context(), doc.ID)
	if err != nil {
		t.Fatalf("re-extract: %v", err)
	}
	if doc.Status != document.StatusParsedRaw {
		t.Fatalf("re-extract must reset status to PARSED_RAW, got %s", doc.Status)
	}
	if !doc.HasCanonical() {
		t.Fatal("prior canonical output must be preserved for reference")
	}
}
