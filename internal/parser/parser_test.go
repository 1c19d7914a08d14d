package parser

import (
	"errors"
	"testing"

	"github.com/clubedata/matchsheet/internal/domain/report"
)

const sampleSheet = `FEDERACAO PAULISTA DE FUTEBOL
SAO PAULO FC 2 x 1 GUARANI
TITULARES MANDANTE
1 ROGERIO CENI (GK) (C)
2 CICINHO
8 JOSUE
9 LUIS FABIANO
RESERVAS MANDANTE
17 JO
TITULARES VISITANTE
1 JEFFERSON (GK)
5 BELTRANO
10 FULANO (C)
RESERVAS VISITANTE
14 SICRANO
EVENTOS
GOL 1T 23 MANDANTE 9 LUIS FABIANO
ASSISTENCIA 1T 23 MANDANTE 8 JOSUE
GOL PENALTI 2T 10 VISITANTE 10 FULANO
GOL 2T 44 MANDANTE 17 JO
CARTAO AMARELO 1T 30 VISITANTE 5 BELTRANO
CARTAO SEGUNDO AMARELO 2T 41 VISITANTE 5 BELTRANO
SUBSTITUICAO 2T 15 MANDANTE SAI 9 LUIS FABIANO ENTRA 17 JO
carimbo ilegivel xyz 123456`

func TestParse_FullSheet(t *testing.T) {
	rep, stats, err := Parse(sampleSheet)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if rep.HomeTeam != "SAO PAULO FC" || rep.AwayTeam != "GUARANI" {
		t.Fatalf("unexpected teams: %q vs %q", rep.HomeTeam, rep.AwayTeam)
	}
	if rep.HomeScore == nil || *rep.HomeScore != 2 || rep.AwayScore == nil || *rep.AwayScore != 1 {
		t.Fatalf("unexpected score: %v x %v", rep.HomeScore, rep.AwayScore)
	}

	if len(rep.Lineups.Home.Starters) != 4 {
		t.Fatalf("unexpected home starters: %d", len(rep.Lineups.Home.Starters))
	}
	keeper := rep.Lineups.Home.Starters[0]
	if keeper.Name != "ROGERIO CENI" || !keeper.Goalkeeper || !keeper.Captain {
		t.Fatalf("unexpected keeper row: %+v", keeper)
	}
	if keeper.ShirtNumber == nil || *keeper.ShirtNumber != 1 {
		t.Fatalf("unexpected keeper shirt number: %v", keeper.ShirtNumber)
	}
	if len(rep.Lineups.Home.Reserves) != 1 || len(rep.Lineups.Away.Starters) != 3 || len(rep.Lineups.Away.Reserves) != 1 {
		t.Fatalf("unexpected roster sizes: %+v", rep.Lineups)
	}

	if len(rep.Events) != 7 {
		t.Fatalf("unexpected event count: %d", len(rep.Events))
	}

	goal := rep.Events[0]
	if goal.Type != report.EventGoal || goal.Side != report.SideHome || goal.Half != 1 || goal.Minute != 23 {
		t.Fatalf("unexpected first goal: %+v", goal)
	}
	if goal.Athlete != "LUIS FABIANO" || goal.GoalKind != report.GoalKindRegular {
		t.Fatalf("unexpected first goal athlete: %+v", goal)
	}

	assist := rep.Events[1]
	if assist.GoalKind != report.GoalKindAssist || assist.Athlete != "JOSUE" {
		t.Fatalf("unexpected assist: %+v", assist)
	}

	penalty := rep.Events[2]
	if penalty.GoalKind != report.GoalKindPenalty || penalty.Side != report.SideAway {
		t.Fatalf("unexpected penalty: %+v", penalty)
	}

	secondYellow := rep.Events[5]
	if secondYellow.Type != report.EventCard || secondYellow.CardType != report.CardSecondYellow {
		t.Fatalf("unexpected second yellow: %+v", secondYellow)
	}

	sub := rep.Events[6]
	if sub.Type != report.EventSubstitution || sub.AthleteOut != "LUIS FABIANO" || sub.AthleteIn != "JO" {
		t.Fatalf("unexpected substitution: %+v", sub)
	}

	if stats.EventLines != 7 || stats.AthleteLines != 9 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.SkippedLines == 0 {
		t.Fatal("expected the stamp line to be counted as skipped")
	}
	if stats.ScoreExtractor != "positional" {
		t.Fatalf("unexpected score extractor: %s", stats.ScoreExtractor)
	}
}

func TestParse_LabeledFieldsWinOverPositional(t *testing.T) {
	text := `MANDANTE: CORINTHIANS
VISITANTE: PALMEIRAS
PLACAR: 0 x 0`

	rep, stats, err := Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rep.HomeTeam != "CORINTHIANS" || rep.AwayTeam != "PALMEIRAS" {
		t.Fatalf("unexpected teams: %+v", rep)
	}
	if rep.HomeScore == nil || *rep.HomeScore != 0 {
		t.Fatalf("unexpected score: %+v", rep)
	}
	if stats.ScoreExtractor != "labeled" {
		t.Fatalf("unexpected extractor: %s", stats.ScoreExtractor)
	}
	if stats.SkippedLines != 0 {
		t.Fatalf("labeled lines must not count as skipped, got %d", stats.SkippedLines)
	}
}

func TestParse_UnmatchedTextYieldsEmptyValidReport(t *testing.T) {
	rep, stats, err := Parse("totally unrelated text\nwith no match data at all")
	if err != nil {
		t.Fatalf("parse must tolerate unmatched text: %v", err)
	}
	if rep.HomeTeam != "" || rep.AwayTeam != "" || rep.HomeScore != nil {
		t.Fatalf("expected empty report, got %+v", rep)
	}
	if len(rep.Events) != 0 || len(rep.Lineups.Home.Starters) != 0 {
		t.Fatalf("expected empty structures, got %+v", rep)
	}
	if stats.SkippedLines == 0 {
		t.Fatal("expected skipped lines to be counted")
	}
}

func TestParse_EmptyInputIsHardError(t *testing.T) {
	if _, _, err := Parse("   \n  "); !errors.Is(err, ErrUnreadableInput) {
		t.Fatalf("expected ErrUnreadableInput, got %v", err)
	}
}

func TestExtractAthleteLine_RejectsNonRosterShapes(t *testing.T) {
	for _, line := range []string{"", "123456", "!!!", "12 34 56"} {
		if _, ok := extractAthleteLine(line); ok {
			t.Fatalf("expected rejection for %q", line)
		}
	}

	ath, ok := extractAthleteLine("10 ZE ROBERTO")
	if !ok || ath.Name != "ZE ROBERTO" || ath.ShirtNumber == nil || *ath.ShirtNumber != 10 {
		t.Fatalf("unexpected athlete: %+v", ath)
	}

	ath, ok = extractAthleteLine("MARCOS (GK)")
	if !ok || !ath.Goalkeeper || ath.ShirtNumber != nil {
		t.Fatalf("unexpected keeper: %+v", ath)
	}
}
