package harvest

import (
	"context"
	"time"
)

// VisitLog is the persisted record of which identifiers have been attempted
// and their outcome. Implementations are scoped to a single purpose (one
// source type), so Snapshot never returns another spider's entries.
type VisitLog interface {
	// Record upserts the entry for its identifier.
	Record(ctx context.Context, entry VisitEntry) error
	// Snapshot returns every entry in the log. It is read once per run;
	// all dedup decisions are made against that single in-process view.
	Snapshot(ctx context.Context) ([]VisitEntry, error)
}

// RecordStore persists validated domain records, keyed by SourceID with
// overwrite semantics.
type RecordStore interface {
	Upsert(ctx context.Context, id SourceID, doc any) error
}

// Item is one parsed unit ready for validation and storage. Implementations
// are the raw tagged structs in the records package.
type Item interface {
	SourceID() SourceID
	// Validate is pure and deterministic: required fields, types, and
	// enumerated value sets. An empty result means the item may be stored.
	Validate() []Violation
	// Document returns the stored form of the item. Only called after
	// Validate reports no violations.
	Document() any
}

// Emitter receives parsed items. The persistence pipeline and the dry-run
// file sink both implement it.
type Emitter interface {
	Emit(ctx context.Context, item Item) error
}

// Clock returns the current time (swappable in tests).
type Clock interface {
	Now() time.Time
}
