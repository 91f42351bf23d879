// Package records defines the raw parsed item types for each source, their
// schema validation, and the versioned documents stored in the record store.
//
// Raw types carry every optional field as a pointer so "absent" survives the
// trip from the fetch clients; validation happens against the fixed contract
// before conversion into the stored form.
package records

import (
	"net/url"
	"time"

	"github.com/jobscope/harvester/internal/harvest"
)

// SchemaVersion is stamped into every stored document's metadata.
const SchemaVersion = 1

// Source platform names used in stored metadata.
const (
	PlatformWanted   = "wanted"
	PlatformJobkorea = "jobkorea"
)

// Metadata is the provenance block common to all stored documents.
type Metadata struct {
	Source        string    `bson:"source" json:"source"`
	SourceURL     string    `bson:"sourceUrl" json:"sourceUrl"`
	CrawledAt     time.Time `bson:"crawledAt" json:"crawledAt"`
	SchemaVersion int       `bson:"schemaVersion" json:"schemaVersion"`
}

// Address is the nested location block shared by postings and profiles.
type Address struct {
	Country      string `bson:"country" json:"country"`
	Location     string `bson:"location" json:"location"`
	District     string `bson:"district" json:"district"`
	FullLocation string `bson:"full_location" json:"full_location"`
}

func requirePresent(vs []harvest.Violation, field string, val *string) []harvest.Violation {
	if val == nil || *val == "" {
		return append(vs, harvest.Violation{Field: field, Reason: "required"})
	}
	return vs
}

func requireNonEmpty(vs []harvest.Violation, field, val string) []harvest.Violation {
	if val == "" {
		return append(vs, harvest.Violation{Field: field, Reason: "required"})
	}
	return vs
}

func requireURL(vs []harvest.Violation, field, val string) []harvest.Violation {
	if val == "" {
		return append(vs, harvest.Violation{Field: field, Reason: "required"})
	}
	if u, err := url.Parse(val); err != nil || u.Scheme == "" || u.Host == "" {
		return append(vs, harvest.Violation{Field: field, Reason: "must be an absolute URL"})
	}
	return vs
}

func requireEnum(vs []harvest.Violation, field string, val *string, allowed ...string) []harvest.Violation {
	if val == nil {
		return append(vs, harvest.Violation{Field: field, Reason: "required"})
	}
	for _, a := range allowed {
		if *val == a {
			return vs
		}
	}
	return append(vs, harvest.Violation{Field: field, Reason: "value not in allowed set"})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
