package spider

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobscope/harvester/internal/harvest"
	"github.com/jobscope/harvester/internal/records"
)

const companySource = "company_profile"

// CompanyClient is the fetch/parse primitive for company profiles.
type CompanyClient interface {
	FetchCompany(ctx context.Context, companyURL string) (*records.RawCompanyProfile, error)
}

// CompanyConfig bounds one company-profile run. The address space is the
// numeric ID range 1..MaxCompanyID; MaxCompanies bounds new successes.
type CompanyConfig struct {
	Mode         harvest.Mode
	MaxCompanies int
	MaxCompanyID int
	BaseURL      string
	DryRun       bool
}

// CompanySpider enumerates company IDs in increasing order and emits parsed
// profiles.
type CompanySpider struct {
	client CompanyClient
	log    harvest.VisitLog
	emit   harvest.Emitter
	clock  harvest.Clock
	logger *zap.Logger
	cfg    CompanyConfig
}

// NewCompanySpider constructs a CompanySpider.
func NewCompanySpider(
	client CompanyClient,
	log harvest.VisitLog,
	emit harvest.Emitter,
	clock harvest.Clock,
	logger *zap.Logger,
	cfg CompanyConfig,
) *CompanySpider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.wanted.co.kr"
	}
	return &CompanySpider{
		client: client,
		log:    log,
		emit:   emit,
		clock:  clock,
		logger: logger.Named("companies"),
		cfg:    cfg,
	}
}

// CompanyURL builds the page URL for a numeric company ID.
func (s *CompanySpider) CompanyURL(id int) string {
	return fmt.Sprintf("%s/company/%d", s.cfg.BaseURL, id)
}

// Run drives one crawl to completion and returns the aggregate counters.
func (s *CompanySpider) Run(ctx context.Context) (Stats, error) {
	stats := Stats{RunID: uuid.NewString(), Mode: s.cfg.Mode}
	s.logger.Info("run starting",
		zap.String("run_id", stats.RunID),
		zap.String("mode", string(s.cfg.Mode)),
		zap.Int("max_companies", s.cfg.MaxCompanies),
		zap.Int("max_company_id", s.cfg.MaxCompanyID),
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

func (s *CompanySpider) runCreate(ctx context.Context, stats *Stats) error {
	planner, err := harvest.NewPlanner(ctx, s.cfg.Mode, s.log, s.cfg.MaxCompanies)
	if err != nil {
		return err
	}

	for id := 1; id <= s.cfg.MaxCompanyID; id++ {
		if planner.Done() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		sid := harvest.SourceID(s.CompanyURL(id))
		if !planner.ShouldFetch(sid) {
			stats.Skipped++
			harvest.ItemsSkipped.WithLabelValues(companySource).Inc()
			continue
		}
		s.visit(ctx, string(sid), planner, stats)
	}
	return nil
}

func (s *CompanySpider) runUpdate(ctx context.Context, stats *Stats) error {
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
		s.visit(ctx, string(id), planner, stats)
	}
	return nil
}

func (s *CompanySpider) visit(ctx context.Context, companyURL string, planner harvest.Planner, stats *Stats) {
	stats.Attempted++
	id := harvest.SourceID(companyURL)

	raw, err := s.client.FetchCompany(ctx, companyURL)
	if err != nil {
		stats.Failed++
		harvest.FetchFailures.WithLabelValues(companySource).Inc()
		s.logger.Warn("company fetch failed", zap.String("source_id", companyURL), zap.Error(err))
		markFailed(ctx, s.log, s.clock, id, s.cfg.DryRun, s.logger)
		return
	}

	err = s.emit.Emit(ctx, raw)
	if stats.note(err) {
		planner.NoteCollected()
		return
	}
	s.logger.Warn("company dropped", zap.String("source_id", companyURL), zap.Error(err))
}
