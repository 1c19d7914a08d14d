package fixture

import (
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusCancelled = "CANCELLED"
	StatusPostponed = "POSTPONED"
)

// Fixture is one scraped candidate match, keyed by (source, source_url).
// The external site is the source of truth; upserts let the last value win.
type Fixture struct {
	ID            string
	CompetitionID string
	Source        string
	SourceURL     string
	HomeTeam      string
	AwayTeam      string
	HomeScore     *int
	AwayScore     *int
	KickoffAt     time.Time
	Round         string
	Venue         string
	Status        string
	LastSeenAt    time.Time
}

// SyncState tracks change detection per competition. Updated on every
// reconciliation run whether or not content changed.
type SyncState struct {
	CompetitionID string
	ContentHash   string
	LastCheckedAt time.Time
	LastChangedAt *time.Time
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	return status
}

func IsFinishedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFinished, "FT", "AET", "PEN":
		return true
	default:
		return false
	}
}

func IsCancelledLikeStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusCancelled, StatusPostponed, "ABANDONED":
		return true
	default:
		return false
	}
}
