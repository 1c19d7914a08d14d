package athletestat

import "github.com/clubedata/matchsheet/internal/domain/matchkey"

// SourceDerived tags rows owned by the stats rebuilder. Rows carrying it
// are immutable to every other writer.
const SourceDerived = "DERIVED"

// MatchStat is one athlete's recomputed aggregate for a single match.
// Never patched in place: the rebuilder replaces the whole set per
// match_key.
type MatchStat struct {
	MatchKey      string
	EventUID      string
	TeamSide      string
	AthleteID     *string
	AthleteName   string
	Started       bool
	Captain       bool
	Participated  bool
	MinutesPlayed int
	Goals         int
	Assists       int
	YellowCards   int
	RedCards      int
	Source        string
}

// Identity is the accumulator key: the resolved athlete id when linked,
// else the normalized name. Two real athletes with identical normalized
// names on the same side merge; that is a known precision limit of the
// name fallback, not something to paper over.
func (s MatchStat) Identity() string {
	if s.AthleteID != nil && *s.AthleteID != "" {
		return "id:" + *s.AthleteID
	}
	return "name:" + s.AthleteName
}

// UID derives the deterministic event_uid for a derived row so rebuilds
// are idempotent.
func UID(matchKey string, teamSide string, identity string) string {
	return matchkey.EventUID("derived_stat", matchKey, teamSide, identity)
}
