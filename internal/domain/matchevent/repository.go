package matchevent

import "context"

// Repository stores match-scoped event rows. Replace swaps the entire
// event set for a match_key in one transaction: delete across all four
// tables plus the inserts commit or roll back together.
type Repository interface {
	Replace(ctx context.Context, matchKey string, set EventSet) error
	Load(ctx context.Context, matchKey string) (EventSet, error)
}
