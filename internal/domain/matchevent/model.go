package matchevent

import (
	"strconv"

	"github.com/clubedata/matchsheet/internal/domain/matchkey"
)

const (
	RoleStarter    = "STARTER"
	RoleGoalkeeper = "GOALKEEPER"
	RoleReserve    = "RESERVE"
)

// Lineup is one athlete's slot in a match lineup.
type Lineup struct {
	MatchKey    string
	EventUID    string
	DocumentID  *string
	TeamSide    string
	Role        string
	Captain     bool
	AthleteID   *string
	AthleteName string
	ShirtNumber *int
}

// Goal is one scoring or assist entry. Kind ASSIST credits the athlete
// with an assist instead of a goal.
type Goal struct {
	MatchKey    string
	EventUID    string
	DocumentID  *string
	TeamSide    string
	Half        int
	Minute      int
	Kind        string
	AthleteID   *string
	AthleteName string
}

type Card struct {
	MatchKey    string
	EventUID    string
	DocumentID  *string
	TeamSide    string
	Half        int
	Minute      int
	CardType    string
	Reason      string
	AthleteID   *string
	AthleteName string
}

type Substitution struct {
	MatchKey       string
	EventUID       string
	DocumentID     *string
	TeamSide       string
	Half           int
	Minute         int
	AthleteOutID   *string
	AthleteOutName string
	AthleteInID    *string
	AthleteInName  string
}

// EventSet groups every event row belonging to one match_key. The set is
// always replaced as a whole, never patched.
type EventSet struct {
	Lineups       []Lineup
	Goals         []Goal
	Cards         []Card
	Substitutions []Substitution
}

func (s EventSet) Counts() map[string]int {
	return map[string]int{
		"lineups":       len(s.Lineups),
		"goals":         len(s.Goals),
		"cards":         len(s.Cards),
		"substitutions": len(s.Substitutions),
	}
}

// StartingRole reports whether a lineup role puts the athlete on the pitch
// at kickoff. The starting goalkeeper counts.
func StartingRole(role string) bool {
	return role == RoleStarter || role == RoleGoalkeeper
}

func LineupUID(matchKey string, row Lineup) string {
	return matchkey.EventUID("lineup", matchKey, row.TeamSide, row.Role, athleteIdentity(row.AthleteID, row.AthleteName))
}

func GoalUID(matchKey string, row Goal) string {
	return matchkey.EventUID("goal", matchKey, row.TeamSide, halfMinute(row.Half, row.Minute), row.Kind, athleteIdentity(row.AthleteID, row.AthleteName))
}

func CardUID(matchKey string, row Card) string {
	return matchkey.EventUID("card", matchKey, row.TeamSide, halfMinute(row.Half, row.Minute), row.CardType, athleteIdentity(row.AthleteID, row.AthleteName))
}

func SubstitutionUID(matchKey string, row Substitution) string {
	return matchkey.EventUID("substitution", matchKey, row.TeamSide, halfMinute(row.Half, row.Minute),
		athleteIdentity(row.AthleteOutID, row.AthleteOutName), athleteIdentity(row.AthleteInID, row.AthleteInName))
}

func athleteIdentity(id *string, name string) string {
	if id != nil && *id != "" {
		return "id:" + *id
	}
	return "name:" + name
}

func halfMinute(half int, minute int) string {
	return strconv.Itoa(half) + ":" + strconv.Itoa(minute)
}
