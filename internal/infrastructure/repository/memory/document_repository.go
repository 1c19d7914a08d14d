package memory

import (
	"context"
	"sync"
	"time"

	"github.com/clubedata/matchsheet/internal/domain/document"
)

type DocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]document.Document
}

func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{docs: make(map[string]document.Document)}
}

func (r *DocumentRepository) Insert(_ context.Context, doc document.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	doc.UploadedAt = now
	doc.UpdatedAt = now
	r.docs[doc.ID] = doc
	return nil
}

func (r *DocumentRepository) GetByID(_ context.Context, id string) (*document.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByMatchKey(_ context.Context, matchKey string) ([]document.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]document.Document, 0)
	for _, doc := range r.docs {
		if doc.MatchKey == matchKey {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (r *DocumentRepository) SaveRawText(_ context.Context, id string, rawText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	doc.RawText = rawText
	doc.Status = document.StatusParsedRaw
	doc.ErrorMessage = ""
	doc.ExtractedAt = &now
	doc.UpdatedAt = now
	r.docs[id] = doc
	return nil
}

func (r *DocumentRepository) SaveCanonical(_ context.Context, id string, canonicalJSON string, parserVersion string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	doc.CanonicalJSON = canonicalJSON
	doc.ParserVersion = parserVersion
	doc.Status = document.StatusCanonical
	doc.ErrorMessage = ""
	doc.ParsedAt = &now
	doc.UpdatedAt = now
	r.docs[id] = doc
	return nil
}

func (r *DocumentRepository) MarkEventsSaved(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	doc.Status = document.StatusEventsSaved
	doc.ErrorMessage = ""
	doc.IngestedAt = &now
	doc.UpdatedAt = now
	r.docs[id] = doc
	return nil
}

func (r *DocumentRepository) MarkError(_ context.Context, id string, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil
	}
	doc.Status = document.StatusError
	doc.ErrorMessage = message
	doc.UpdatedAt = time.Now().UTC()
	r.docs[id] = doc
	return nil
}
