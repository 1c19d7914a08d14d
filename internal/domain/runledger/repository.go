package runledger

import (
	"context"
	"time"
)

// Repository stores run ledger entries.
type Repository interface {
	Begin(ctx context.Context, entry Entry) error
	Finish(ctx context.Context, id string, status string, summary map[string]int, errorText string) error
	GetByID(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, kind string, limit int) ([]Entry, error)
	ListStale(ctx context.Context, olderThan time.Duration) ([]Entry, error)
}
