package document

import "context"

// Repository persists documents and their stage outputs. Each stage write
// fully overwrites that stage's own fields; earlier stage output is left
// untouched so a failed stage stays retryable.
type Repository interface {
	Insert(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id string) (*Document, error)
	ListByMatchKey(ctx context.Context, matchKey string) ([]Document, error)
	SaveRawText(ctx context.Context, id string, rawText string) error
	SaveCanonical(ctx context.Context, id string, canonicalJSON string, parserVersion string) error
	MarkEventsSaved(ctx context.Context, id string) error
	MarkError(ctx context.Context, id string, message string) error
}
