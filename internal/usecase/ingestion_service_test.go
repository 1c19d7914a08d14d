package usecase

import (
	"errors"
	"sort"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/clubedata/matchsheet/internal/domain/athlete"
	"github.com/clubedata/matchsheet/internal/domain/document"
	"github.com/clubedata/matchsheet/internal/domain/matchevent"
	"github.com/clubedata/matchsheet/internal/domain/report"
	"github.com/clubedata/matchsheet/internal/infrastructure/repository/memory"
	"github.com/clubedata/matchsheet/internal/platform/id"
)

func intPtr(v int) *int { return &v }

func sampleReport() report.Report {
	home, away := 2, 1
	return report.Report{
		HomeTeam:  "Sao Paulo FC",
		AwayTeam:  "Guarani",
		HomeScore: &home,
		AwayScore: &away,
		Lineups: report.Lineups{
			Home: report.Lineup{
				Starters: []report.Athlete{
					{Name: "ROGERIO CENI", ShirtNumber: intPtr(1), Goalkeeper: true, Captain: true},
					{Name: "LUIS FABIANO", ShirtNumber: intPtr(9)},
				},
				Reserves: []report.Athlete{{Name: "JO", ShirtNumber: intPtr(17)}},
			},
			Away: report.Lineup{
				Starters: []report.Athlete{{Name: "BELTRANO", ShirtNumber: intPtr(5)}},
			},
		},
		Events: []report.Event{
			{Type: report.EventGoal, Side: report.SideHome, Half: 1, Minute: 23, Athlete: "LUIS FABIANO", GoalKind: report.GoalKindRegular},
			{Type: report.EventCard, Side: report.SideAway, Half: 2, Minute: 41, Athlete: "BELTRANO", CardType: report.CardSecondYellow},
			{Type: report.EventSubstitution, Side: report.SideHome, Half: 2, Minute: 15, AthleteOut: "LUIS FABIANO", AthleteIn: "JO"},
		},
	}
}

func seedCanonicalDocument(t *testing.T, docs *memory.DocumentRepository, docID string, matchKey string, rep report.Report) {
	t.Helper()

	canonical, err := sonic.MarshalString(rep)
	if err != nil {
		t.Fatalf("encode report: %v", err)
	}
	matchID := "42"
	if err := docs.Insert(t.Context(), document.Document{
		ID:       docID,
		Scope:    "PROD",
		MatchID:  &matchID,
		MatchKey: matchKey,
		Status:   document.StatusUploaded,
	}); err != nil {
		t.Fatalf("insert document: %v", err)
	}
	if err := docs.SaveRawText(t.Context(), docID, "raw"); err != nil {
		t.Fatalf("save raw: %v", err)
	}
	if err := docs.SaveCanonical(t.Context(), docID, canonical, "heuristic-test"); err != nil {
		t.Fatalf("save canonical: %v", err)
	}
}

func TestIngestionService_IngestDocument(t *testing.T) {
	docs := memory.NewDocumentRepository()
	events := memory.NewMatchEventRepository()
	runs := memory.NewRunLedgerRepository()
	registry := memory.NewAthleteRepository([]athlete.Athlete{
		{ID: "ath-ceni", Team: "Sao Paulo FC", Name: "Rogerio Ceni", Active: true},
	})

	svc := NewIngestionService(docs, events, registry, runs, id.NewRandomGenerator(), nil)
	seedCanonicalDocument(t, docs, "doc-1", "PROD:42", sampleReport())

	result, err := svc.IngestDocument(t.Context(), "doc-1")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if result.MatchKey != "PROD:42" {
		t.Fatalf("unexpected match key: %s", result.MatchKey)
	}
	if result.Inserted["lineups"] != 4 || result.Inserted["goals"] != 1 ||
		result.Inserted["cards"] != 1 || result.Inserted["substitutions"] != 1 {
		t.Fatalf("unexpected counts: %+v", result.Inserted)
	}
	if result.Dropped != 0 {
		t.Fatalf("unexpected dropped count: %d", result.Dropped)
	}

	doc, err := docs.GetByID(t.Context(), "doc-1")
	if err != nil {
		t.Fatalf("get doc: %v", err)
	}
	if doc.Status != document.StatusEventsSaved {
		t.Fatalf("unexpected status: %s", doc.Status)
	}

	set, err := events.Load(t.Context(), "PROD:42")
	if err != nil {
		t.Fatalf("load events: %v", err)
	}
	var keeper *string
	for _, row := range set.Lineups {
		if row.AthleteName == "ROGERIO CENI" {
			keeper = row.AthleteID
		}
	}
	if keeper == nil || *keeper != "ath-ceni" {
		t.Fatalf("registry resolution failed: %v", keeper)
	}

	entry, err := runs.GetByID(t.Context(), result.RunID)
	if err != nil || entry == nil {
		t.Fatalf("missing run entry: %v", err)
	}
	if entry.Status != "DONE" || entry.Summary["lineups"] != 4 {
		t.Fatalf("unexpected run entry: %+v", entry)
	}
}

func TestIngestionService_ReingestIsIdempotent(t *testing.T) {
	docs := memory.NewDocumentRepository()
	events := memory.NewMatchEventRepository()

	svc := NewIngestionService(docs, events, nil, nil, id.NewRandomGenerator(), nil)
	seedCanonicalDocument(t, docs, "doc-1", "PROD:42", sampleReport())

	if _, err := svc.IngestDocument(t.Context(), "doc-1"); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	first, err := events.Load(t.Context(), "PROD:42")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, err := svc.IngestDocument(t.Context(), "doc-1"); err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	second, err := events.Load(t.Context(), "PROD:42")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(uidsOf(first)) == 0 || !equalStringSlices(uidsOf(first), uidsOf(second)) {
		t.Fatalf("event uid sets differ between runs:\n%v\n%v", uidsOf(first), uidsOf(second))
	}
}

func TestIngestionService_DropsMalformedEvents(t *testing.T) {
	docs := memory.NewDocumentRepository()
	events := memory.NewMatchEventRepository()

	rep := sampleReport()
	rep.Events = append(rep.Events,
		report.Event{Type: report.EventGoal, Side: "NEUTRAL", Half: 1, Minute: 10, Athlete: "X"},
		report.Event{Type: report.EventCard, Side: report.SideHome, Half: 3, Minute: 10, Athlete: "X", CardType: report.CardYellow},
		report.Event{Type: report.EventCard, Side: report.SideHome, Half: 1, Minute: 10, Athlete: "X", CardType: "BLUE"},
		report.Event{Type: "throw_in", Side: report.SideHome, Half: 1, Minute: 10},
	)

	svc := NewIngestionService(docs, events, nil, nil, id.NewRandomGenerator(), nil)
	seedCanonicalDocument(t, docs, "doc-1", "PROD:42", rep)

	result, err := svc.IngestDocument(t.Context(), "doc-1")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Dropped != 4 {
		t.Fatalf("expected 4 dropped events, got %d", result.Dropped)
	}
	if result.Inserted["goals"] != 1 || result.Inserted["cards"] != 1 {
		t.Fatalf("valid events must survive: %+v", result.Inserted)
	}
}

func TestIngestionService_RequiresCanonical(t *testing.T) {
	docs := memory.NewDocumentRepository()
	matchID := "42"
	if err := docs.Insert(t.Context(), document.Document{
		ID: "doc-1", Scope: "PROD", MatchID: &matchID, MatchKey: "PROD:42", Status: document.StatusUploaded,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	runs := memory.NewRunLedgerRepository()

	svc := NewIngestionService(docs, memory.NewMatchEventRepository(), nil, runs, id.NewRandomGenerator(), nil)

	_, err := svc.IngestDocument(t.Context(), "doc-1")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	entries, listErr := runs.List(t.Context(), "", 10)
	if listErr != nil {
		t.Fatalf("list runs: %v", listErr)
	}
	if len(entries) != 0 {
		t.Fatal("validation failures must not create ledger entries")
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageIngest {
		t.Fatalf("expected ingest stage marker, got %v", err)
	}
}

func uidsOf(set matchevent.EventSet) []string {
	uids := make([]string, 0)
	for _, row := range set.Lineups {
		uids = append(uids, row.EventUID)
	}
	for _, row := range set.Goals {
		uids = append(uids, row.EventUID)
	}
	for _, row := range set.Cards {
		uids = append(uids, row.EventUID)
	}
	for _, row := range set.Substitutions {
		uids = append(uids, row.EventUID)
	}
	return uids
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
