package usecase

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/clubedata/matchsheet/internal/domain/athlete"
	"github.com/clubedata/matchsheet/internal/domain/document"
	"github.com/clubedata/matchsheet/internal/domain/matchevent"
	"github.com/clubedata/matchsheet/internal/domain/report"
	"github.com/clubedata/matchsheet/internal/domain/runledger"
	"github.com/clubedata/matchsheet/internal/platform/id"
	"github.com/clubedata/matchsheet/internal/platform/logging"
)

// IngestionService materializes a document's canonical report into the
// four event tables, replacing any prior rows for the same match_key.
type IngestionService struct {
	docs     document.Repository
	events   matchevent.Repository
	athletes athlete.Repository
	runs     runledger.Repository
	ids      id.Generator
	logger   *logging.Logger
}

func NewIngestionService(
	docs document.Repository,
	events matchevent.Repository,
	athletes athlete.Repository,
	runs runledger.Repository,
	ids id.Generator,
	logger *logging.Logger,
) *IngestionService {
	if logger == nil {
		logger = logging.Default()
	}

	return &IngestionService{
		docs:     docs,
		events:   events,
		athletes: athletes,
		runs:     runs,
		ids:      ids,
		logger:   logger,
	}
}

type IngestResult struct {
	RunID    string
	MatchKey string
	Inserted map[string]int
	Dropped  int
}

// IngestDocument replaces the whole event set for the document's
// match_key. The delete+insert pair is transactional in the repository;
// malformed individual events are dropped and counted, not fatal.
func (s *IngestionService) IngestDocument(ctx context.Context, documentID string) (*IngestResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.IngestDocument")
	defer span.End()

	doc, err := s.loadCanonical(ctx, documentID)
	if err != nil {
		return nil, stageErr(StageIngest, err)
	}

	var rep report.Report
	if err := sonic.UnmarshalString(doc.CanonicalJSON, &rep); err != nil {
		return nil, stageErr(StageIngest, s.failDocument(ctx, doc.ID, fmt.Errorf("decode canonical report: %w", err)))
	}

	runID := beginRun(ctx, s.runs, s.ids, runledger.KindIngestion, doc.MatchKey, s.logger)

	resolve := s.buildResolver(ctx, rep)
	set, dropped := translateReport(doc.MatchKey, doc.ID, rep, resolve)

	if err := s.events.Replace(ctx, doc.MatchKey, set); err != nil {
		wrapped := fmt.Errorf("replace event set: %w", err)
		finishRun(ctx, s.runs, runID, runledger.StatusError, set.Counts(), wrapped.Error(), s.logger)
		return nil, stageErr(StageIngest, s.failDocument(ctx, doc.ID, wrapped))
	}

	if err := s.docs.MarkEventsSaved(ctx, doc.ID); err != nil {
		wrapped := fmt.Errorf("advance document: %w", err)
		finishRun(ctx, s.runs, runID, runledger.StatusError, set.Counts(), wrapped.Error(), s.logger)
		return nil, stageErr(StageIngest, wrapped)
	}

	summary := set.Counts()
	summary["dropped"] = dropped
	finishRun(ctx, s.runs, runID, runledger.StatusDone, summary, "", s.logger)

	s.logger.InfoContext(ctx, "document ingested",
		"document_id", doc.ID,
		"match_key", doc.MatchKey,
		"lineups", summary["lineups"],
		"goals", summary["goals"],
		"cards", summary["cards"],
		"substitutions", summary["substitutions"],
		"dropped", dropped)

	return &IngestResult{RunID: runID, MatchKey: doc.MatchKey, Inserted: summary, Dropped: dropped}, nil
}

func (s *IngestionService) loadCanonical(ctx context.Context, documentID string) (*document.Document, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: document_id is required", ErrInvalidInput)
	}
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document %s", ErrNotFound, documentID)
	}
	if !doc.HasCanonical() {
		return nil, fmt.Errorf("%w: document %s has no canonical report", ErrConflict, documentID)
	}
	return doc, nil
}

func (s *IngestionService) failDocument(ctx context.Context, documentID string, cause error) error {
	if err := s.docs.MarkError(ctx, documentID, document.TruncateError(cause.Error())); err != nil {
		s.logger.ErrorContext(ctx, "mark document error failed", "document_id", documentID, "error", err)
	}
	return cause
}

// nameResolver maps (team side, athlete name) to a registry athlete id.
type nameResolver func(side string, name string) *string

// buildResolver loads registry athletes for both report teams. A registry
// miss degrades to the name fallback key; it never fails the run.
func (s *IngestionService) buildResolver(ctx context.Context, rep report.Report) nameResolver {
	noop := func(string, string) *string { return nil }
	if s.athletes == nil {
		return noop
	}

	teams := make([]string, 0, 2)
	if rep.HomeTeam != "" {
		teams = append(teams, rep.HomeTeam)
	}
	if rep.AwayTeam != "" {
		teams = append(teams, rep.AwayTeam)
	}
	if len(teams) == 0 {
		return noop
	}

	registered, err := s.athletes.ListByTeams(ctx, teams)
	if err != nil {
		s.logger.WarnContext(ctx, "athlete registry lookup failed", "error", err)
		return noop
	}

	byTeamName := make(map[string]string, len(registered))
	for _, ath := range registered {
		byTeamName[report.NormalizeName(ath.Team)+"|"+report.NormalizeName(ath.Name)] = ath.ID
	}

	teamBySide := map[string]string{
		report.SideHome: report.NormalizeName(rep.HomeTeam),
		report.SideAway: report.NormalizeName(rep.AwayTeam),
	}

	return func(side string, name string) *string {
		team, ok := teamBySide[side]
		if !ok || team == "" {
			return nil
		}
		if id, ok := byTeamName[team+"|"+report.NormalizeName(name)]; ok {
			return &id
		}
		return nil
	}
}

// translateReport converts canonical structures into event rows with
// event_uid and document_id stamped. Duplicate uids within one report
// collapse; malformed events are dropped and counted.
func translateReport(key string, documentID string, rep report.Report, resolve nameResolver) (matchevent.EventSet, int) {
	var set matchevent.EventSet
	dropped := 0
	seen := make(map[string]struct{})
	docID := documentID

	addLineup := func(side string, role string, ath report.Athlete) {
		if ath.Name == "" {
			dropped++
			return
		}
		row := matchevent.Lineup{
			MatchKey:    key,
			DocumentID:  &docID,
			TeamSide:    side,
			Role:        role,
			Captain:     ath.Captain,
			AthleteID:   resolve(side, ath.Name),
			AthleteName: ath.Name,
			ShirtNumber: ath.ShirtNumber,
		}
		row.EventUID = matchevent.LineupUID(key, row)
		if _, dup := seen[row.EventUID]; dup {
			dropped++
			return
		}
		seen[row.EventUID] = struct{}{}
		set.Lineups = append(set.Lineups, row)
	}

	for _, ath := range rep.Lineups.Home.Starters {
		addLineup(report.SideHome, lineupRole(ath), ath)
	}
	for _, ath := range rep.Lineups.Home.Reserves {
		addLineup(report.SideHome, matchevent.RoleReserve, ath)
	}
	for _, ath := range rep.Lineups.Away.Starters {
		addLineup(report.SideAway, lineupRole(ath), ath)
	}
	for _, ath := range rep.Lineups.Away.Reserves {
		addLineup(report.SideAway, matchevent.RoleReserve, ath)
	}

	for _, event := range rep.Events {
		if !report.IsValidSide(event.Side) || (event.Half != 1 && event.Half != 2) || event.Minute < 0 {
			dropped++
			continue
		}

		switch event.Type {
		case report.EventGoal:
			if event.Athlete == "" {
				dropped++
				continue
			}
			kind := event.GoalKind
			if kind == "" {
				kind = report.GoalKindRegular
			}
			row := matchevent.Goal{
				MatchKey:    key,
				DocumentID:  &docID,
				TeamSide:    event.Side,
				Half:        event.Half,
				Minute:      event.Minute,
				Kind:        kind,
				AthleteID:   resolve(event.Side, event.Athlete),
				AthleteName: event.Athlete,
			}
			row.EventUID = matchevent.GoalUID(key, row)
			if _, dup := seen[row.EventUID]; dup {
				dropped++
				continue
			}
			seen[row.EventUID] = struct{}{}
			set.Goals = append(set.Goals, row)

		case report.EventCard:
			if event.Athlete == "" || !report.IsValidCardType(event.CardType) {
				dropped++
				continue
			}
			row := matchevent.Card{
				MatchKey:    key,
				DocumentID:  &docID,
				TeamSide:    event.Side,
				Half:        event.Half,
				Minute:      event.Minute,
				CardType:    event.CardType,
				AthleteID:   resolve(event.Side, event.Athlete),
				AthleteName: event.Athlete,
			}
			row.EventUID = matchevent.CardUID(key, row)
			if _, dup := seen[row.EventUID]; dup {
				dropped++
				continue
			}
			seen[row.EventUID] = struct{}{}
			set.Cards = append(set.Cards, row)

		case report.EventSubstitution:
			if event.AthleteOut == "" || event.AthleteIn == "" {
				dropped++
				continue
			}
			row := matchevent.Substitution{
				MatchKey:       key,
				DocumentID:     &docID,
				TeamSide:       event.Side,
				Half:           event.Half,
				Minute:         event.Minute,
				AthleteOutID:   resolve(event.Side, event.AthleteOut),
				AthleteOutName: event.AthleteOut,
				AthleteInID:    resolve(event.Side, event.AthleteIn),
				AthleteInName:  event.AthleteIn,
			}
			row.EventUID = matchevent.SubstitutionUID(key, row)
			if _, dup := seen[row.EventUID]; dup {
				dropped++
				continue
			}
			seen[row.EventUID] = struct{}{}
			set.Substitutions = append(set.Substitutions, row)

		default:
			dropped++
		}
	}

	return set, dropped
}

func lineupRole(ath report.Athlete) string {
	if ath.Goalkeeper {
		return matchevent.RoleGoalkeeper
	}
	return matchevent.RoleStarter
}
