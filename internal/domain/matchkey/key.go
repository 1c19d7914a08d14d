package matchkey

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"
	"time"
)

const (
	ScopeProd    = "PROD"
	ScopeSandbox = "SANDBOX"
)

var (
	ErrInvalidScope = errors.New("invalid match scope")
	ErrScopeIDPair  = errors.New("scope and match id mismatch")
	ErrMalformedKey = errors.New("malformed match key")
)

// NormalizeScope uppercases and trims a scope value.
func NormalizeScope(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func IsValidScope(scope string) bool {
	switch NormalizeScope(scope) {
	case ScopeProd, ScopeSandbox:
		return true
	default:
		return false
	}
}

// Derive builds the canonical match key from a scope and exactly one id.
// A PROD scope requires matchID and forbids sandboxMatchID; SANDBOX is the
// inverse. The pairing is validated here so no row is ever written with a
// key that disagrees with its id columns.
func Derive(scope string, matchID, sandboxMatchID *string) (string, error) {
	normalized := NormalizeScope(scope)
	switch normalized {
	case ScopeProd:
		if !hasValue(matchID) || hasValue(sandboxMatchID) {
			return "", fmt.Errorf("%w: PROD requires match_id only", ErrScopeIDPair)
		}
		return ScopeProd + ":" + strings.TrimSpace(*matchID), nil
	case ScopeSandbox:
		if !hasValue(sandboxMatchID) || hasValue(matchID) {
			return "", fmt.Errorf("%w: SANDBOX requires sandbox_match_id only", ErrScopeIDPair)
		}
		return ScopeSandbox + ":" + strings.TrimSpace(*sandboxMatchID), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
}

// Parse splits a match key back into its scope and backing match id.
func Parse(key string) (string, string, error) {
	scope, id, found := strings.Cut(key, ":")
	if !found || strings.TrimSpace(id) == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	if !IsValidScope(scope) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
	return NormalizeScope(scope), id, nil
}

// EventUID returns a deterministic content hash identifying one event row
// within a match. Fields are joined with a NUL separator so distinct field
// sequences can never collide on concatenation.
func EventUID(kind string, matchKey string, fields ...string) string {
	hasher := sha256.New()
	writeHashPart(hasher, kind)
	writeHashPart(hasher, matchKey)
	for _, field := range fields {
		writeHashPart(hasher, field)
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// SourceURL returns the stable natural key for a scraped fixture. The
// detail URL wins when present; otherwise a synthetic URL is derived from
// the fixture date and team names so re-scrapes map to the same row.
func SourceURL(source string, detailURL string, date time.Time, homeTeam string, awayTeam string) string {
	trimmed := strings.TrimSpace(detailURL)
	if trimmed != "" {
		return trimmed
	}
	return fmt.Sprintf("synthetic://%s/%s/%s-vs-%s",
		slugify(source), date.UTC().Format("2006-01-02"), slugify(homeTeam), slugify(awayTeam))
}

func slugify(value string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), " ", "-")
}

func hasValue(value *string) bool {
	return value != nil && strings.TrimSpace(*value) != ""
}

func writeHashPart(hasher hash.Hash, value string) {
	_, _ = hasher.Write([]byte(value))
	_, _ = hasher.Write([]byte{0})
}
