package runledger

import "time"

const (
	StatusRunning = "RUNNING"
	StatusDone    = "DONE"
	StatusError   = "ERROR"
)

const (
	KindIngestion    = "INGESTION"
	KindStatsRebuild = "STATS_REBUILD"
	KindFixtureSync  = "FIXTURE_SYNC"
)

// Entry records one pipeline invocation. Created RUNNING at start and
// finalized exactly once. A crashed run leaves its entry RUNNING; stale
// entries are surfaced for operators, never swept automatically.
type Entry struct {
	ID         string
	Kind       string
	Subject    string
	Status     string
	Summary    map[string]int
	ErrorText  string
	StartedAt  time.Time
	FinishedAt *time.Time
}

func IsValidKind(kind string) bool {
	switch kind {
	case KindIngestion, KindStatsRebuild, KindFixtureSync:
		return true
	default:
		return false
	}
}
