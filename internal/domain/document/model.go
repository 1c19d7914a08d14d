package document

import (
	"strings"
	"time"
)

const (
	StatusUploaded    = "UPLOADED"
	StatusParsedRaw   = "PARSED_RAW"
	StatusCanonical   = "CANONICAL"
	StatusEventsSaved = "EVENTS_SAVED"
	StatusError       = "ERROR"
)

const maxErrorLength = 500

// Document is one uploaded match sheet. Created on upload, mutated only by
// the pipeline's own stage transitions, never deleted automatically.
type Document struct {
	ID             string
	Scope          string
	MatchID        *string
	SandboxMatchID *string
	MatchKey       string
	Bucket         string
	StoragePath    string
	Checksum       string
	ParserVersion  string
	Status         string
	RawText        string
	CanonicalJSON  string
	ErrorMessage   string
	UploadedAt     time.Time
	ExtractedAt    *time.Time
	ParsedAt       *time.Time
	IngestedAt     *time.Time
	UpdatedAt      time.Time
}

func IsValidStatus(status string) bool {
	switch status {
	case StatusUploaded, StatusParsedRaw, StatusCanonical, StatusEventsSaved, StatusError:
		return true
	default:
		return false
	}
}

// HasRawText reports whether the extraction stage has produced output,
// regardless of the current status. ERROR documents keep their prior
// stage output so retries can resume from it.
func (d Document) HasRawText() bool {
	return strings.TrimSpace(d.RawText) != ""
}

func (d Document) HasCanonical() bool {
	return strings.TrimSpace(d.CanonicalJSON) != ""
}

// TruncateError bounds persisted failure messages.
func TruncateError(message string) string {
	message = strings.TrimSpace(message)
	if len(message) <= maxErrorLength {
		return message
	}
	return message[:maxErrorLength]
}
