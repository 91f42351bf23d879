// Package spider implements the crawl orchestrators: one per source type,
// each deciding what to fetch next, whether to skip, and when to stop. All
// dedup and stop-condition decisions run on the orchestrator goroutine
// against a single snapshot of the visitation log.
package spider

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jobscope/harvester/internal/harvest"
)

// Stats aggregates one run's outcomes for end-of-run reporting. Item-level
// failures never abort a run, so everything non-fatal lands here.
type Stats struct {
	RunID          string
	Mode           harvest.Mode
	Attempted      int
	Collected      int
	Skipped        int
	Failed         int
	StorageErrors  int
	ParentsVisited int
}

// Fields renders the stats as zap fields for the summary log line.
func (s Stats) Fields() []zap.Field {
	return []zap.Field{
		zap.String("run_id", s.RunID),
		zap.String("mode", string(s.Mode)),
		zap.Int("attempted", s.Attempted),
		zap.Int("collected", s.Collected),
		zap.Int("skipped", s.Skipped),
		zap.Int("failed", s.Failed),
		zap.Int("storage_errors", s.StorageErrors),
		zap.Int("parents_visited", s.ParentsVisited),
	}
}

// note classifies an emit outcome into the stats and reports whether the
// item was newly collected.
func (s *Stats) note(err error) bool {
	var verr *harvest.ValidationError
	var serr *harvest.StorageError
	switch {
	case err == nil:
		s.Collected++
		return true
	case errors.As(err, &verr):
		s.Failed++
	case errors.As(err, &serr):
		s.StorageErrors++
	default:
		s.Failed++
	}
	return false
}

// markFailed writes a failed visitation entry for a fetch/parse error so the
// identifier is not retried forever in create mode. Dry-run suppresses all
// bookkeeping writes.
func markFailed(
	ctx context.Context,
	log harvest.VisitLog,
	clock harvest.Clock,
	id harvest.SourceID,
	dryRun bool,
	logger *zap.Logger,
) {
	if dryRun {
		return
	}
	entry := harvest.VisitEntry{ID: id, Status: harvest.StatusFailed, CrawledAt: clock.Now()}
	if err := log.Record(ctx, entry); err != nil {
		logger.Warn("visitation log write failed", zap.String("source_id", string(id)), zap.Error(err))
	}
}
