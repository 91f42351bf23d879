// Package memory provides in-memory store implementations for tests and
// local development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jobscope/harvester/internal/harvest"
)

// VisitLog is an in-memory harvest.VisitLog.
type VisitLog struct {
	mu      sync.RWMutex
	entries map[harvest.SourceID]harvest.VisitEntry
}

// NewVisitLog constructs an empty VisitLog.
func NewVisitLog() *VisitLog {
	return &VisitLog{entries: make(map[harvest.SourceID]harvest.VisitEntry)}
}

// Record upserts the entry for its identifier.
func (l *VisitLog) Record(_ context.Context, entry harvest.VisitEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[entry.ID] = entry
	return nil
}

// Snapshot returns all entries, sorted by identifier for stable iteration.
func (l *VisitLog) Snapshot(context.Context) ([]harvest.VisitEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]harvest.VisitEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns the entry for id, if present.
func (l *VisitLog) Get(id harvest.SourceID) (harvest.VisitEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[id]
	return e, ok
}

// Len returns the number of entries.
func (l *VisitLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
