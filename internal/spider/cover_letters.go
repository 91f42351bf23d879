package spider

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobscope/harvester/internal/harvest"
	"github.com/jobscope/harvester/internal/records"
)

const coverLetterSource = "cover_letter"

// CoverLetterClient is the fetch/parse primitive for cover letters: an outer
// enumeration of companies, an inner enumeration of each company's essays,
// and the essay detail fetch.
type CoverLetterClient interface {
	// ListCompanies returns the PassAssay URLs on one company list page
	// and the next page number (0 when exhausted).
	ListCompanies(ctx context.Context, page int) ([]string, int, error)
	// ListEssays returns the essay URLs on one page of a company's essay
	// list and the next page number (0 when exhausted).
	ListEssays(ctx context.Context, passAssayURL string, page int) ([]string, int, error)
	// FetchEssay fetches and parses one essay page.
	FetchEssay(ctx context.Context, essayURL string) (*records.RawCoverLetter, error)
}

// CoverLetterConfig bounds one cover-letter run.
type CoverLetterConfig struct {
	Mode                harvest.Mode
	MaxCompanies        int
	MaxEssaysPerCompany int
	DryRun              bool
}

// CoverLetterSpider walks company list pages, and per company the nested
// essay lists. Dedup happens at the parent (company) granularity; individual
// essays are logged by the pipeline under their own purpose.
type CoverLetterSpider struct {
	client    CoverLetterClient
	parentLog harvest.VisitLog
	essayLog  harvest.VisitLog
	emit      harvest.Emitter
	clock     harvest.Clock
	logger    *zap.Logger
	cfg       CoverLetterConfig
}

// NewCoverLetterSpider constructs a CoverLetterSpider. parentLog tracks
// visited companies, essayLog tracks individual essays.
func NewCoverLetterSpider(
	client CoverLetterClient,
	parentLog harvest.VisitLog,
	essayLog harvest.VisitLog,
	emit harvest.Emitter,
	clock harvest.Clock,
	logger *zap.Logger,
	cfg CoverLetterConfig,
) *CoverLetterSpider {
	if cfg.MaxEssaysPerCompany <= 0 {
		cfg.MaxEssaysPerCompany = 10
	}
	return &CoverLetterSpider{
		client:    client,
		parentLog: parentLog,
		essayLog:  essayLog,
		emit:      emit,
		clock:     clock,
		logger:    logger.Named("coverletters"),
		cfg:       cfg,
	}
}

// Run drives one crawl to completion and returns the aggregate counters.
func (s *CoverLetterSpider) Run(ctx context.Context) (Stats, error) {
	stats := Stats{RunID: uuid.NewString(), Mode: s.cfg.Mode}
	s.logger.Info("run starting",
		zap.String("run_id", stats.RunID),
		zap.String("mode", string(s.cfg.Mode)),
		zap.Int("max_companies", s.cfg.MaxCompanies),
		zap.Int("max_essays_per_company", s.cfg.MaxEssaysPerCompany),
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

func (s *CoverLetterSpider) runCreate(ctx context.Context, stats *Stats) error {
	planner, err := harvest.NewPlanner(ctx, s.cfg.Mode, s.parentLog, s.cfg.MaxCompanies)
	if err != nil {
		return err
	}

	for page := 1; page > 0; {
		if planner.Done() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		companies, next, err := s.client.ListCompanies(ctx, page)
		if err != nil {
			return fmt.Errorf("list companies page %d: %w", page, err)
		}
		for _, passAssayURL := range companies {
			if planner.Done() {
				return nil
			}
			pid := harvest.SourceID(passAssayURL)
			if !planner.ShouldFetch(pid) {
				stats.Skipped++
				harvest.ItemsSkipped.WithLabelValues(coverLetterSource).Inc()
				continue
			}
			s.visitCompany(ctx, passAssayURL, planner, stats)
		}
		if len(companies) == 0 {
			return nil
		}
		page = next
	}
	return nil
}

// runUpdate re-fetches every essay previously logged; parent enumeration is
// not repeated.
func (s *CoverLetterSpider) runUpdate(ctx context.Context, stats *Stats) error {
	ids, err := harvest.UpdateCandidates(ctx, s.essayLog)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.visitEssay(ctx, string(id), stats)
	}
	return nil
}

// visitCompany walks one company's essay list pages. An essay failure does
// not abort the company's remaining essays; a company with zero essays is
// logged as skipped at the parent granularity so it is not re-scanned
// forever.
func (s *CoverLetterSpider) visitCompany(ctx context.Context, passAssayURL string, planner harvest.Planner, stats *Stats) {
	stats.ParentsVisited++
	pid := harvest.SourceID(passAssayURL)
	attempted := 0

	for page := 1; page > 0 && attempted < s.cfg.MaxEssaysPerCompany; {
		essays, next, err := s.client.ListEssays(ctx, passAssayURL, page)
		if err != nil {
			stats.Failed++
			harvest.FetchFailures.WithLabelValues(coverLetterSource).Inc()
			s.logger.Warn("essay list fetch failed", zap.String("source_id", passAssayURL), zap.Error(err))
			s.recordParent(ctx, pid, harvest.StatusFailed)
			return
		}
		for _, essayURL := range essays {
			if attempted >= s.cfg.MaxEssaysPerCompany {
				break
			}
			s.visitEssay(ctx, essayURL, stats)
			attempted++
		}
		if len(essays) == 0 {
			break
		}
		page = next
	}

	if attempted == 0 {
		s.recordParent(ctx, pid, harvest.StatusSkipped)
		return
	}
	s.recordParent(ctx, pid, harvest.StatusCollected)
	planner.NoteCollected()
}

func (s *CoverLetterSpider) visitEssay(ctx context.Context, essayURL string, stats *Stats) {
	stats.Attempted++
	id := harvest.SourceID(essayURL)

	raw, err := s.client.FetchEssay(ctx, essayURL)
	if err != nil {
		stats.Failed++
		harvest.FetchFailures.WithLabelValues(coverLetterSource).Inc()
		s.logger.Warn("essay fetch failed", zap.String("source_id", essayURL), zap.Error(err))
		markFailed(ctx, s.essayLog, s.clock, id, s.cfg.DryRun, s.logger)
		return
	}

	err = s.emit.Emit(ctx, raw)
	if !stats.note(err) {
		s.logger.Warn("essay dropped", zap.String("source_id", essayURL), zap.Error(err))
	}
}

func (s *CoverLetterSpider) recordParent(ctx context.Context, id harvest.SourceID, status harvest.Status) {
	if s.cfg.DryRun {
		return
	}
	entry := harvest.VisitEntry{ID: id, Status: status, CrawledAt: s.clock.Now()}
	if err := s.parentLog.Record(ctx, entry); err != nil {
		s.logger.Warn("parent log write failed", zap.String("source_id", string(id)), zap.Error(err))
	}
}
