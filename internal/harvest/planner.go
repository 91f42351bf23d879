package harvest

import (
	"context"
	"fmt"
	"sort"
)

// Planner decides fetch-or-skip and the stop condition for one run. The two
// implementations correspond to the crawl modes and are selected once at run
// start, so each mode's invariants stay independently testable.
//
// Planners are not safe for concurrent use: all dedup and stop decisions are
// serialized on the orchestrator goroutine.
type Planner interface {
	// ShouldFetch reports whether the identifier is worth a network call.
	ShouldFetch(id SourceID) bool
	// NoteCollected counts one newly collected item toward the bound.
	NoteCollected()
	// Done reports whether the quantity bound has been reached.
	Done() bool
}

// NewPlanner builds the planner for mode. In create mode the visitation log
// is snapshotted once; maxItems <= 0 means unbounded. Update mode ignores
// maxItems entirely.
func NewPlanner(ctx context.Context, mode Mode, log VisitLog, maxItems int) (Planner, error) {
	switch mode {
	case ModeUpdate:
		return updatePlanner{}, nil
	case ModeCreate:
		entries, err := log.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("load visitation log: %w", err)
		}
		seen := make(map[SourceID]struct{}, len(entries))
		for _, e := range entries {
			// A failed entry suppresses re-fetching the same way a
			// collected one does; update mode is the retry path.
			seen[e.ID] = struct{}{}
		}
		return &createPlanner{seen: seen, max: maxItems}, nil
	default:
		return nil, fmt.Errorf("unknown crawl mode %q", mode)
	}
}

// UpdateCandidates returns every logged identifier, sorted for stable runs.
// In update mode the candidate set is exactly the log, not a fresh
// enumeration of the address space.
func UpdateCandidates(ctx context.Context, log VisitLog) ([]SourceID, error) {
	entries, err := log.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load visitation log: %w", err)
	}
	ids := make([]SourceID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type createPlanner struct {
	seen      map[SourceID]struct{}
	max       int
	collected int
}

func (p *createPlanner) ShouldFetch(id SourceID) bool {
	_, ok := p.seen[id]
	return !ok
}

func (p *createPlanner) NoteCollected() { p.collected++ }

func (p *createPlanner) Done() bool {
	return p.max > 0 && p.collected >= p.max
}

type updatePlanner struct{}

func (updatePlanner) ShouldFetch(SourceID) bool { return true }
func (updatePlanner) NoteCollected()            {}
func (updatePlanner) Done() bool                { return false }
