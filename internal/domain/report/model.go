package report

import "strings"

const (
	SideHome = "HOME"
	SideAway = "AWAY"
)

const (
	EventGoal         = "goal"
	EventCard         = "card"
	EventSubstitution = "substitution"
)

const (
	GoalKindRegular = "REGULAR"
	GoalKindPenalty = "PENALTY"
	GoalKindOwn     = "OWN_GOAL"
	GoalKindAssist  = "ASSIST"
)

const (
	CardYellow       = "YELLOW"
	CardSecondYellow = "SECOND_YELLOW"
	CardRed          = "RED"
)

// Report is the canonical structured form of one parsed match sheet.
// Every field is optional: a sheet the parser could not read at all still
// yields an empty but valid report.
type Report struct {
	HomeTeam  string   `json:"home_team"`
	AwayTeam  string   `json:"away_team"`
	HomeScore *int     `json:"home_score,omitempty"`
	AwayScore *int     `json:"away_score,omitempty"`
	Lineups   Lineups  `json:"lineups"`
	Events    []Event  `json:"events"`
	Warnings  []string `json:"warnings,omitempty"`
}

type Lineups struct {
	Home Lineup `json:"home"`
	Away Lineup `json:"away"`
}

type Lineup struct {
	Starters []Athlete `json:"starters"`
	Reserves []Athlete `json:"reserves"`
}

type Athlete struct {
	Name        string `json:"name"`
	ShirtNumber *int   `json:"shirt_number,omitempty"`
	Goalkeeper  bool   `json:"goalkeeper,omitempty"`
	Captain     bool   `json:"captain,omitempty"`
}

// Event is one timeline entry. Type selects which of the optional field
// groups is meaningful: goals use Athlete/AssistName/GoalKind, cards use
// Athlete/CardType, substitutions use AthleteOut/AthleteIn.
type Event struct {
	Type   string `json:"type"`
	Side   string `json:"side"`
	Half   int    `json:"half"`
	Minute int    `json:"minute"`

	Athlete    string `json:"athlete,omitempty"`
	GoalKind   string `json:"goal_kind,omitempty"`
	AssistName string `json:"assist_name,omitempty"`
	CardType   string `json:"card_type,omitempty"`
	AthleteOut string `json:"athlete_out,omitempty"`
	AthleteIn  string `json:"athlete_in,omitempty"`
}

func IsValidSide(side string) bool {
	return side == SideHome || side == SideAway
}

func IsValidCardType(cardType string) bool {
	switch cardType {
	case CardYellow, CardSecondYellow, CardRed:
		return true
	default:
		return false
	}
}

// NormalizeMinute maps a per-half minute onto the absolute match clock.
// Second-half minutes carry the 45 minute offset; anything beyond 120
// clamps to 120 so stoppage annotations cannot blow the range.
func NormalizeMinute(half int, minute int) int {
	if minute < 0 {
		minute = 0
	}
	if half == 2 {
		minute += 45
	}
	if minute > 120 {
		minute = 120
	}
	return minute
}

// NormalizeName folds an athlete name into its lookup form: trimmed,
// lowercased, inner whitespace collapsed.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
