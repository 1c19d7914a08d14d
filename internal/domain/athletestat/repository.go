package athletestat

import "context"

// Repository stores derived per-athlete match aggregates. ReplaceDerived
// deletes and reinserts the full DERIVED set for a match_key in one
// transaction; implementations reject rows whose source is not DERIVED.
type Repository interface {
	ReplaceDerived(ctx context.Context, matchKey string, stats []MatchStat) error
	ListByMatchKey(ctx context.Context, matchKey string) ([]MatchStat, error)
}
