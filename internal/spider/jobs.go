package spider

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobscope/harvester/internal/harvest"
	"github.com/jobscope/harvester/internal/records"
)

const jobSource = "job_posting"

// JobStub identifies one posting found on a list page.
type JobStub struct {
	ID          int64
	DetailURL   string
	ExternalURL string
}

// JobClient is the fetch/parse primitive for job postings. Transport-level
// retries live behind this interface, not in the orchestrator.
type JobClient interface {
	// ListJobs returns the stubs on one list page and whether more pages
	// may follow.
	ListJobs(ctx context.Context, offset int) ([]JobStub, bool, error)
	// FetchJob fetches and parses one detail page. externalURL may be
	// empty (update mode re-derives it from the detail URL).
	FetchJob(ctx context.Context, detailURL, externalURL string) (*records.RawJobPosting, error)
}

// JobConfig bounds one job-posting run.
type JobConfig struct {
	Mode     harvest.Mode
	MaxJobs  int
	PageSize int
	DryRun   bool
}

// JobSpider enumerates the paged posting list and emits parsed postings.
type JobSpider struct {
	client JobClient
	log    harvest.VisitLog
	emit   harvest.Emitter
	clock  harvest.Clock
	logger *zap.Logger
	cfg    JobConfig
}

// NewJobSpider constructs a JobSpider.
func NewJobSpider(
	client JobClient,
	log harvest.VisitLog,
	emit harvest.Emitter,
	clock harvest.Clock,
	logger *zap.Logger,
	cfg JobConfig,
) *JobSpider {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	return &JobSpider{
		client: client,
		log:    log,
		emit:   emit,
		clock:  clock,
		logger: logger.Named("jobs"),
		cfg:    cfg,
	}
}

// Run drives one crawl to completion and returns the aggregate counters.
func (s *JobSpider) Run(ctx context.Context) (Stats, error) {
	stats := Stats{RunID: uuid.NewString(), Mode: s.cfg.Mode}
	s.logger.Info("run starting",
		zap.String("run_id", stats.RunID),
		zap.String("mode", string(s.cfg.Mode)),
		zap.Int("max_jobs", s.cfg.MaxJobs),
	)

	var err error
	if s.cfg.Mode == harvest.ModeUpdate {
		err = s.runUpdate(ctx, &stats)
	} else {
		err = s.runCreate(ctx, &stats)
	}
	s.logger.Info("run finished", stats.Fields()...)
	return stats, err
}

func (s *JobSpider) runCreate(ctx context.Context, stats *Stats) error {
	planner, err := harvest.NewPlanner(ctx, s.cfg.Mode, s.log, s.cfg.MaxJobs)
	if err != nil {
		return err
	}

	for offset := 0; ; offset += s.cfg.PageSize {
		if planner.Done() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		stubs, hasMore, err := s.client.ListJobs(ctx, offset)
		if err != nil {
			return fmt.Errorf("list jobs at offset %d: %w", offset, err)
		}
		for _, stub := range stubs {
			if planner.Done() {
				return nil
			}
			id := harvest.SourceID(stub.DetailURL)
			if !planner.ShouldFetch(id) {
				stats.Skipped++
				harvest.ItemsSkipped.WithLabelValues(jobSource).Inc()
				continue
			}
			s.visit(ctx, stub, planner, stats)
		}
		if !hasMore || len(stubs) == 0 {
			return nil
		}
	}
}

func (s *JobSpider) runUpdate(ctx context.Context, stats *Stats) error {
	planner, err := harvest.NewPlanner(ctx, s.cfg.Mode, s.log, 0)
	if err != nil {
		return err
	}
	ids, err := harvest.UpdateCandidates(ctx, s.log)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.visit(ctx, JobStub{DetailURL: string(id)}, planner, stats)
	}
	return nil
}

func (s *JobSpider) visit(ctx context.Context, stub JobStub, planner harvest.Planner, stats *Stats) {
	stats.Attempted++
	id := harvest.SourceID(stub.DetailURL)

	raw, err := s.client.FetchJob(ctx, stub.DetailURL, stub.ExternalURL)
	if err != nil {
		stats.Failed++
		harvest.FetchFailures.WithLabelValues(jobSource).Inc()
		s.logger.Warn("job fetch failed", zap.String("source_id", string(id)), zap.Error(err))
		markFailed(ctx, s.log, s.clock, id, s.cfg.DryRun, s.logger)
		return
	}

	err = s.emit.Emit(ctx, raw)
	if stats.note(err) {
		planner.NoteCollected()
		return
	}
	s.logger.Warn("job dropped", zap.String("source_id", string(id)), zap.Error(err))
}
