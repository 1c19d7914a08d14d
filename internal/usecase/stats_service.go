package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/clubedata/matchsheet/internal/domain/athletestat"
	"github.com/clubedata/matchsheet/internal/domain/document"
	"github.com/clubedata/matchsheet/internal/domain/matchevent"
	"github.com/clubedata/matchsheet/internal/domain/matchkey"
	"github.com/clubedata/matchsheet/internal/domain/report"
	"github.com/clubedata/matchsheet/internal/domain/runledger"
	"github.com/clubedata/matchsheet/internal/platform/id"
	"github.com/clubedata/matchsheet/internal/platform/logging"
)

const fullTimeMinute = 90

// StatsService recomputes the DERIVED per-athlete aggregates for a
// match_key from the four event tables. Always a full replace, never an
// incremental patch.
type StatsService struct {
	events matchevent.Repository
	stats  athletestat.Repository
	docs   document.Repository
	runs   runledger.Repository
	ids    id.Generator
	logger *logging.Logger
}

func NewStatsService(
	events matchevent.Repository,
	stats athletestat.Repository,
	docs document.Repository,
	runs runledger.Repository,
	ids id.Generator,
	logger *logging.Logger,
) *StatsService {
	if logger == nil {
		logger = logging.Default()
	}

	return &StatsService{
		events: events,
		stats:  stats,
		docs:   docs,
		runs:   runs,
		ids:    ids,
		logger: logger,
	}
}

type RebuildResult struct {
	RunID    string
	MatchKey string
	Athletes int
}

func (s *StatsService) Rebuild(ctx context.Context, key string) (*RebuildResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.Rebuild")
	defer span.End()

	if _, _, err := matchkey.Parse(key); err != nil {
		return nil, stageErr(StageRebuild, fmt.Errorf("%w: %v", ErrInvalidInput, err))
	}

	runID := beginRun(ctx, s.runs, s.ids, runledger.KindStatsRebuild, key, s.logger)

	set, err := s.events.Load(ctx, key)
	if err != nil {
		wrapped := fmt.Errorf("load event set: %w", err)
		finishRun(ctx, s.runs, runID, runledger.StatusError, nil, wrapped.Error(), s.logger)
		return nil, stageErr(StageRebuild, wrapped)
	}

	rows := computeMatchStats(key, set)

	if err := s.stats.ReplaceDerived(ctx, key, rows); err != nil {
		wrapped := fmt.Errorf("replace derived stats: %w", err)
		finishRun(ctx, s.runs, runID, runledger.StatusError, nil, wrapped.Error(), s.logger)
		return nil, stageErr(StageRebuild, wrapped)
	}

	summary := map[string]int{"athletes": len(rows)}
	finishRun(ctx, s.runs, runID, runledger.StatusDone, summary, "", s.logger)

	s.logger.InfoContext(ctx, "derived stats rebuilt", "match_key", key, "athletes", len(rows))
	return &RebuildResult{RunID: runID, MatchKey: key, Athletes: len(rows)}, nil
}

// RebuildForDocument resolves the document's match_key first, then
// rebuilds as usual.
func (s *StatsService) RebuildForDocument(ctx context.Context, documentID string) (*RebuildResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.RebuildForDocument")
	defer span.End()

	if documentID == "" {
		return nil, stageErr(StageRebuild, fmt.Errorf("%w: document_id is required", ErrInvalidInput))
	}
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, stageErr(StageRebuild, fmt.Errorf("load document: %w", err))
	}
	if doc == nil {
		return nil, stageErr(StageRebuild, fmt.Errorf("%w: document %s", ErrNotFound, documentID))
	}
	return s.Rebuild(ctx, doc.MatchKey)
}

func (s *StatsService) ListByMatchKey(ctx context.Context, key string) ([]athletestat.MatchStat, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.ListByMatchKey")
	defer span.End()

	if _, _, err := matchkey.Parse(key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.stats.ListByMatchKey(ctx, key)
}

// statAccumulator tracks one athlete identity across all event tables.
type statAccumulator struct {
	stat  athletestat.MatchStat
	entry *int
	exit  *int
}

// computeMatchStats folds the event set into one row per distinct athlete
// identity: resolved id when linked, else normalized name + team side.
func computeMatchStats(key string, set matchevent.EventSet) []athletestat.MatchStat {
	accs := make(map[string]*statAccumulator)
	order := make([]string, 0)

	get := func(side string, athleteID *string, name string) *statAccumulator {
		stat := athletestat.MatchStat{
			MatchKey:    key,
			TeamSide:    side,
			AthleteID:   athleteID,
			AthleteName: report.NormalizeName(name),
			Source:      athletestat.SourceDerived,
		}
		identity := stat.Identity()
		mapKey := side + "|" + identity
		if acc, ok := accs[mapKey]; ok {
			return acc
		}
		stat.Participated = true
		stat.EventUID = athletestat.UID(key, side, identity)
		acc := &statAccumulator{stat: stat}
		accs[mapKey] = acc
		order = append(order, mapKey)
		return acc
	}

	for _, row := range set.Lineups {
		acc := get(row.TeamSide, row.AthleteID, row.AthleteName)
		if matchevent.StartingRole(row.Role) {
			acc.stat.Started = true
		}
		if row.Captain {
			acc.stat.Captain = true
		}
	}

	for _, row := range set.Goals {
		acc := get(row.TeamSide, row.AthleteID, row.AthleteName)
		switch row.Kind {
		case report.GoalKindAssist:
			acc.stat.Assists++
		case report.GoalKindOwn:
			// Referenced and participated, but no goal credit.
		default:
			acc.stat.Goals++
		}
	}

	for _, row := range set.Cards {
		acc := get(row.TeamSide, row.AthleteID, row.AthleteName)
		switch row.CardType {
		case report.CardYellow:
			acc.stat.YellowCards++
		case report.CardSecondYellow:
			acc.stat.YellowCards++
			acc.stat.RedCards++
		case report.CardRed:
			acc.stat.RedCards++
		}
	}

	for _, row := range set.Substitutions {
		minute := report.NormalizeMinute(row.Half, row.Minute)

		out := get(row.TeamSide, row.AthleteOutID, row.AthleteOutName)
		if out.exit == nil {
			exit := minute
			out.exit = &exit
		}

		in := get(row.TeamSide, row.AthleteInID, row.AthleteInName)
		if in.entry == nil {
			entry := minute
			in.entry = &entry
		}
	}

	rows := make([]athletestat.MatchStat, 0, len(order))
	for _, mapKey := range order {
		acc := accs[mapKey]
		acc.stat.MinutesPlayed = minutesPlayed(acc)
		rows = append(rows, acc.stat)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TeamSide != rows[j].TeamSide {
			return rows[i].TeamSide < rows[j].TeamSide
		}
		return rows[i].EventUID < rows[j].EventUID
	})
	return rows
}

// minutesPlayed applies the clock rules: starters enter at 0, sub-ins at
// their first recorded entry, everyone else never enters. Exit defaults
// to full time and never counts past it.
func minutesPlayed(acc *statAccumulator) int {
	entry := 0
	switch {
	case acc.stat.Started:
		entry = 0
	case acc.entry != nil:
		entry = *acc.entry
	default:
		return 0
	}

	exit := fullTimeMinute
	if acc.exit != nil {
		exit = *acc.exit
	}
	if exit > fullTimeMinute {
		exit = fullTimeMinute
	}

	minutes := exit - entry
	if minutes < 0 {
		minutes = 0
	}
	return minutes
}
