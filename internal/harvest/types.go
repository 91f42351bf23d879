// Package harvest defines the core types and contracts of the incremental
// crawl pipeline: source identifiers, the visitation log, mode planners, and
// the validate-then-persist pipeline that feeds the record store.
package harvest

import (
	"fmt"
	"strings"
	"time"
)

// SourceID is the stable key naming one fetchable unit of content: a detail
// API URL for job postings, a company page URL for profiles, an essay page
// URL for cover letters. It is the primary key in both the visitation log
// and the record store.
type SourceID string

// Mode selects the crawl variant for one run.
type Mode string

// Crawl modes.
const (
	// ModeCreate fetches only identifiers with no visitation log entry.
	ModeCreate Mode = "create"
	// ModeUpdate re-fetches every identifier already in the log and
	// ignores quantity bounds.
	ModeUpdate Mode = "update"
)

// ParseMode converts a CLI/config string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeCreate:
		return ModeCreate, nil
	case ModeUpdate:
		return ModeUpdate, nil
	default:
		return "", fmt.Errorf("mode must be %q or %q, got %q", ModeCreate, ModeUpdate, s)
	}
}

// Status is the terminal outcome recorded for one processing attempt.
type Status string

// Visitation statuses persisted in the log.
const (
	StatusCollected Status = "collected"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// VisitEntry is one visitation log record. It is written once per terminal
// attempt for an identifier; a later attempt overwrites it.
type VisitEntry struct {
	ID        SourceID  `bson:"url" json:"url"`
	Status    Status    `bson:"status" json:"status"`
	CrawledAt time.Time `bson:"crawledAt" json:"crawledAt"`
}

// Violation names one schema constraint an item failed.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (v Violation) String() string {
	return v.Field + ": " + v.Reason
}
