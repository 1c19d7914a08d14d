// Package parser turns extracted match sheet text into a canonical report.
// It is heuristic and tolerant: extractors are tried in order, the first
// match wins, and lines that fit no known shape are counted and skipped.
// "Not found" is never an error; only unreadable input is.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/clubedata/matchsheet/internal/domain/report"
)

// Version tags documents with the heuristic revision that parsed them so a
// parser fix can target documents parsed by older revisions.
const Version = "heuristic-2"

var ErrUnreadableInput = errors.New("unreadable report text")

// Stats counts what the tolerant pass accepted and dropped.
type Stats struct {
	TotalLines     int
	AthleteLines   int
	EventLines     int
	SkippedLines   int
	HeaderMatches  int
	ScoreExtractor string
}

// Parse extracts a canonical report from free-form sheet text. Missing
// fields yield empty-but-valid structures.
func Parse(text string) (report.Report, Stats, error) {
	var stats Stats
	if strings.TrimSpace(text) == "" {
		return report.Report{}, stats, fmt.Errorf("%w: empty text", ErrUnreadableInput)
	}

	lines := splitLines(text)
	stats.TotalLines = len(lines)

	rep := report.Report{}
	applyScoreline(lines, &rep, &stats)

	section := sectionNone
	for _, line := range lines {
		if next, ok := matchSectionHeader(line); ok {
			section = next
			stats.HeaderMatches++
			continue
		}

		if event, ok := extractEvent(line); ok {
			rep.Events = append(rep.Events, event)
			stats.EventLines++
			continue
		}

		if section.rosterBucket(&rep) != nil {
			if ath, ok := extractAthleteLine(line); ok {
				bucket := section.rosterBucket(&rep)
				*bucket = append(*bucket, ath)
				stats.AthleteLines++
				continue
			}
		}

		if !isScorelineLine(line, rep) {
			stats.SkippedLines++
		}
	}

	return rep, stats, nil
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// --- score and team extraction ---

var (
	labeledScoreRe = regexp.MustCompile(`(?i)^(?:PLACAR|SCORE)\s*[:\-]\s*(\d{1,2})\s*[xX×]\s*(\d{1,2})\s*$`)
	labeledHomeRe  = regexp.MustCompile(`(?i)^(?:MANDANTE|HOME)\s*[:\-]\s*(.+)$`)
	labeledAwayRe  = regexp.MustCompile(`(?i)^(?:VISITANTE|AWAY)\s*[:\-]\s*(.+)$`)
	positionalRe   = regexp.MustCompile(`^(.{2,60}?)\s+(\d{1,2})\s*[xX×]\s*(\d{1,2})\s+(.{2,60})$`)
)

// scoreExtractor is one optional-result pass over the whole document.
type scoreExtractor struct {
	name  string
	apply func(lines []string, rep *report.Report) bool
}

var scoreExtractors = []scoreExtractor{
	{name: "labeled", apply: applyLabeledFields},
	{name: "positional", apply: applyPositionalScoreline},
}

func applyScoreline(lines []string, rep *report.Report, stats *Stats) {
	for _, ex := range scoreExtractors {
		if ex.apply(lines, rep) {
			stats.ScoreExtractor = ex.name
			return
		}
	}
}

func applyLabeledFields(lines []string, rep *report.Report) bool {
	found := false
	for _, line := range lines {
		if m := labeledHomeRe.FindStringSubmatch(line); m != nil && rep.HomeTeam == "" {
			rep.HomeTeam = strings.TrimSpace(m[1])
			found = true
		}
		if m := labeledAwayRe.FindStringSubmatch(line); m != nil && rep.AwayTeam == "" {
			rep.AwayTeam = strings.TrimSpace(m[1])
			found = true
		}
		if m := labeledScoreRe.FindStringSubmatch(line); m != nil && rep.HomeScore == nil {
			home, away := mustAtoi(m[1]), mustAtoi(m[2])
			rep.HomeScore, rep.AwayScore = &home, &away
			found = true
		}
	}
	return found && rep.HomeTeam != "" && rep.AwayTeam != ""
}

func applyPositionalScoreline(lines []string, rep *report.Report) bool {
	for _, line := range lines {
		m := positionalRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		rep.HomeTeam = strings.TrimSpace(m[1])
		rep.AwayTeam = strings.TrimSpace(m[4])
		home, away := mustAtoi(m[2]), mustAtoi(m[3])
		rep.HomeScore, rep.AwayScore = &home, &away
		return true
	}
	return false
}

// isScorelineLine keeps already-consumed metadata lines out of the skip
// counter.
func isScorelineLine(line string, rep report.Report) bool {
	if labeledScoreRe.MatchString(line) || labeledHomeRe.MatchString(line) || labeledAwayRe.MatchString(line) {
		return true
	}
	if m := positionalRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]) == rep.HomeTeam && strings.TrimSpace(m[4]) == rep.AwayTeam
	}
	return false
}

// --- roster sections ---

type section int

const (
	sectionNone section = iota
	sectionHomeStarters
	sectionHomeReserves
	sectionAwayStarters
	sectionAwayReserves
	sectionEvents
)

var sectionHeaderRe = regexp.MustCompile(`(?i)^(TITULARES|STARTERS|RESERVAS|SUPLENTES|RESERVES)\s+(MANDANTE|HOME|VISITANTE|AWAY)\s*$`)
var eventsHeaderRe = regexp.MustCompile(`(?i)^(EVENTOS|EVENTS)\s*$`)

func matchSectionHeader(line string) (section, bool) {
	if eventsHeaderRe.MatchString(line) {
		return sectionEvents, true
	}
	m := sectionHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return sectionNone, false
	}
	starters := strings.EqualFold(m[1], "TITULARES") || strings.EqualFold(m[1], "STARTERS")
	home := strings.EqualFold(m[2], "MANDANTE") || strings.EqualFold(m[2], "HOME")
	switch {
	case starters && home:
		return sectionHomeStarters, true
	case starters && !home:
		return sectionAwayStarters, true
	case !starters && home:
		return sectionHomeReserves, true
	default:
		return sectionAwayReserves, true
	}
}

func (s section) rosterBucket(rep *report.Report) *[]report.Athlete {
	switch s {
	case sectionHomeStarters:
		return &rep.Lineups.Home.Starters
	case sectionHomeReserves:
		return &rep.Lineups.Home.Reserves
	case sectionAwayStarters:
		return &rep.Lineups.Away.Starters
	case sectionAwayReserves:
		return &rep.Lineups.Away.Reserves
	default:
		return nil
	}
}

// athleteLineRe accepts "[number] NAME" with optional (GK) and (C)
// markers. Anything else in a roster section is skipped, not an error.
var athleteLineRe = regexp.MustCompile(`^(?:(\d{1,2})\s+)?([\p{L}][\p{L}'. -]{1,59})$`)

func extractAthleteLine(line string) (report.Athlete, bool) {
	var ath report.Athlete
	rest := line
	for {
		switch {
		case strings.HasSuffix(rest, "(GK)"):
			ath.Goalkeeper = true
			rest = strings.TrimSpace(strings.TrimSuffix(rest, "(GK)"))
		case strings.HasSuffix(rest, "(C)"):
			ath.Captain = true
			rest = strings.TrimSpace(strings.TrimSuffix(rest, "(C)"))
		default:
			m := athleteLineRe.FindStringSubmatch(rest)
			if m == nil {
				return report.Athlete{}, false
			}
			if m[1] != "" {
				num := mustAtoi(m[1])
				ath.ShirtNumber = &num
			}
			ath.Name = strings.TrimSpace(m[2])
			return ath, true
		}
	}
}

// --- timeline events ---

var (
	goalRe = regexp.MustCompile(`(?i)^(?:GOL|GOAL)(?:\s+(PENALTI|PENALTY|CONTRA|OWN))?\s+([12])T\s+(\d{1,3})'?\s+(MANDANTE|HOME|VISITANTE|AWAY)\s+(.+)$`)
	asstRe = regexp.MustCompile(`(?i)^(?:ASSISTENCIA|ASSIST)\s+([12])T\s+(\d{1,3})'?\s+(MANDANTE|HOME|VISITANTE|AWAY)\s+(.+)$`)
	cardRe = regexp.MustCompile(`(?i)^(?:CARTAO|CARD)\s+(AMARELO|YELLOW|SEGUNDO AMARELO|SECOND YELLOW|VERMELHO|RED)\s+([12])T\s+(\d{1,3})'?\s+(MANDANTE|HOME|VISITANTE|AWAY)\s+(.+)$`)
	subRe  = regexp.MustCompile(`(?i)^(?:SUBSTITUICAO|SUBSTITUTION|SUB)\s+([12])T\s+(\d{1,3})'?\s+(MANDANTE|HOME|VISITANTE|AWAY)\s+SAI\s+(.+?)\s+ENTRA\s+(.+)$`)
)

type eventExtractor func(line string) (report.Event, bool)

var eventExtractors = []eventExtractor{extractGoal, extractAssist, extractCard, extractSubstitution}

func extractEvent(line string) (report.Event, bool) {
	for _, extract := range eventExtractors {
		if event, ok := extract(line); ok {
			return event, true
		}
	}
	return report.Event{}, false
}

func extractGoal(line string) (report.Event, bool) {
	m := goalRe.FindStringSubmatch(line)
	if m == nil {
		return report.Event{}, false
	}
	kind := report.GoalKindRegular
	switch strings.ToUpper(m[1]) {
	case "PENALTI", "PENALTY":
		kind = report.GoalKindPenalty
	case "CONTRA", "OWN":
		kind = report.GoalKindOwn
	}
	return report.Event{
		Type:     report.EventGoal,
		Side:     normalizeSide(m[4]),
		Half:     mustAtoi(m[2]),
		Minute:   mustAtoi(m[3]),
		Athlete:  stripShirtNumber(m[5]),
		GoalKind: kind,
	}, true
}

func extractAssist(line string) (report.Event, bool) {
	m := asstRe.FindStringSubmatch(line)
	if m == nil {
		return report.Event{}, false
	}
	return report.Event{
		Type:     report.EventGoal,
		Side:     normalizeSide(m[3]),
		Half:     mustAtoi(m[1]),
		Minute:   mustAtoi(m[2]),
		Athlete:  stripShirtNumber(m[4]),
		GoalKind: report.GoalKindAssist,
	}, true
}

func extractCard(line string) (report.Event, bool) {
	m := cardRe.FindStringSubmatch(line)
	if m == nil {
		return report.Event{}, false
	}
	var cardType string
	switch strings.ToUpper(m[1]) {
	case "AMARELO", "YELLOW":
		cardType = report.CardYellow
	case "SEGUNDO AMARELO", "SECOND YELLOW":
		cardType = report.CardSecondYellow
	default:
		cardType = report.CardRed
	}
	return report.Event{
		Type:     report.EventCard,
		Side:     normalizeSide(m[4]),
		Half:     mustAtoi(m[2]),
		Minute:   mustAtoi(m[3]),
		Athlete:  stripShirtNumber(m[5]),
		CardType: cardType,
	}, true
}

func extractSubstitution(line string) (report.Event, bool) {
	m := subRe.FindStringSubmatch(line)
	if m == nil {
		return report.Event{}, false
	}
	return report.Event{
		Type:       report.EventSubstitution,
		Side:       normalizeSide(m[3]),
		Half:       mustAtoi(m[1]),
		Minute:     mustAtoi(m[2]),
		AthleteOut: stripShirtNumber(m[4]),
		AthleteIn:  stripShirtNumber(m[5]),
	}, true
}

func normalizeSide(raw string) string {
	switch strings.ToUpper(raw) {
	case "MANDANTE", "HOME":
		return report.SideHome
	default:
		return report.SideAway
	}
}

var leadingNumberRe = regexp.MustCompile(`^\d{1,2}\s+`)

func stripShirtNumber(name string) string {
	return strings.TrimSpace(leadingNumberRe.ReplaceAllString(strings.TrimSpace(name), ""))
}

func mustAtoi(raw string) int {
	v, _ := strconv.Atoi(raw)
	return v
}
