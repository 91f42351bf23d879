package harvest

import (
	"context"

	"go.uber.org/zap"
)

// Pipeline is the validate-then-persist stage. On success it upserts the
// domain record and overwrites the visitation entry with status collected;
// on validation failure it drops the item and records a failed entry so
// create mode will not retry a permanently malformed page at full cost.
type Pipeline struct {
	source  string
	records RecordStore
	log     VisitLog
	clock   Clock
	logger  *zap.Logger
}

// NewPipeline constructs a Pipeline. source labels metrics and log lines.
func NewPipeline(source string, records RecordStore, log VisitLog, clock Clock, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		source:  source,
		records: records,
		log:     log,
		clock:   clock,
		logger:  logger.Named("pipeline"),
	}
}

// Emit validates and persists one item. It returns *ValidationError or
// *StorageError for item-level failures; callers aggregate these and keep
// going.
func (p *Pipeline) Emit(ctx context.Context, item Item) error {
	id := item.SourceID()

	if violations := item.Validate(); len(violations) > 0 {
		p.mark(ctx, id, StatusFailed)
		ValidationFailures.WithLabelValues(p.source).Inc()
		return &ValidationError{ID: id, Violations: violations}
	}

	if err := p.records.Upsert(ctx, id, item.Document()); err != nil {
		p.mark(ctx, id, StatusFailed)
		StorageFailures.WithLabelValues(p.source).Inc()
		return &StorageError{Op: "upsert record", ID: id, Err: err}
	}

	if err := p.log.Record(ctx, VisitEntry{ID: id, Status: StatusCollected, CrawledAt: p.clock.Now()}); err != nil {
		StorageFailures.WithLabelValues(p.source).Inc()
		return &StorageError{Op: "record visit", ID: id, Err: err}
	}

	ItemsCollected.WithLabelValues(p.source).Inc()
	p.logger.Debug("item persisted", zap.String("source_id", string(id)))
	return nil
}

// mark writes a failed entry, best effort. A log write failure here cannot
// change the item's outcome, so it is only logged.
func (p *Pipeline) mark(ctx context.Context, id SourceID, status Status) {
	entry := VisitEntry{ID: id, Status: status, CrawledAt: p.clock.Now()}
	if err := p.log.Record(ctx, entry); err != nil {
		p.logger.Warn("visitation log write failed",
			zap.String("source_id", string(id)),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}
