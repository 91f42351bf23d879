package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobscope/harvester/internal/app"
	"github.com/jobscope/harvester/internal/clock/system"
	"github.com/jobscope/harvester/internal/fetch/jobkorea"
	"github.com/jobscope/harvester/internal/fetch/wanted"
	"github.com/jobscope/harvester/internal/harvest"
	"github.com/jobscope/harvester/internal/spider"
)

// crawlFlags are shared by every crawl subcommand.
type crawlFlags struct {
	mode string
	out  string
}

// newCrawlCmd creates the 'crawl' command tree. Each subcommand drives one
// spider to completion; --out redirects items to a JSON-lines file and
// suppresses all bookkeeping (a dry run).
func newCrawlCmd() *cobra.Command {
	flags := &crawlFlags{}

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one harvest to completion",
	}
	cmd.PersistentFlags().StringVar(&flags.mode, "mode", "create", "crawl mode: create or update")
	cmd.PersistentFlags().StringVar(&flags.out, "out", "", "write items to a JSON-lines file instead of the store (dry run)")

	cmd.AddCommand(newCrawlJobsCmd(flags))
	cmd.AddCommand(newCrawlCompaniesCmd(flags))
	cmd.AddCommand(newCrawlCoverLettersCmd(flags))
	return cmd
}

func newCrawlJobsCmd(flags *crawlFlags) *cobra.Command {
	var maxJobs int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Harvest job postings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			mode, err := harvest.ParseMode(flags.mode)
			if err != nil {
				return err
			}
			cfg := a.Config()

			clock := system.New()
			client, err := wanted.New(wanted.Config{
				BaseURL:     cfg.Wanted.BaseURL,
				UserAgent:   cfg.Fetch.UserAgent,
				Timeout:     cfg.FetchTimeout(),
				Delay:       cfg.FetchDelay(),
				Parallelism: cfg.Fetch.Parallelism,
				JobSort:     cfg.Wanted.JobSort,
				Clock:       clock,
			}, a.Logger())
			if err != nil {
				return fmt.Errorf("init wanted client: %w", err)
			}

			log := a.Mongo().VisitLog(cfg.Mongo.LogCollection, "job_posting")
			emit, done, dryRun, err := buildEmitter(a, flags.out, "job_posting", cfg.Mongo.JobsCollection, clock)
			if err != nil {
				return err
			}
			defer done()

			s := spider.NewJobSpider(client, log, emit, clock, a.Logger(), spider.JobConfig{
				Mode:    mode,
				MaxJobs: maxJobs,
				DryRun:  dryRun,
			})
			return report(cmd.Context(), a, s.Run)
		},
	}
	cmd.Flags().IntVar(&maxJobs, "max-jobs", 0, "stop after collecting this many new postings (0 = unbounded)")
	return cmd
}

func newCrawlCompaniesCmd(flags *crawlFlags) *cobra.Command {
	var (
		maxCompanies int
		maxCompanyID int
	)

	cmd := &cobra.Command{
		Use:   "companies",
		Short: "Harvest company profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			mode, err := harvest.ParseMode(flags.mode)
			if err != nil {
				return err
			}
			cfg := a.Config()

			clock := system.New()
			client, err := wanted.New(wanted.Config{
				BaseURL:     cfg.Wanted.BaseURL,
				UserAgent:   cfg.Fetch.UserAgent,
				Timeout:     cfg.FetchTimeout(),
				Delay:       cfg.FetchDelay(),
				Parallelism: cfg.Fetch.Parallelism,
				Clock:       clock,
			}, a.Logger())
			if err != nil {
				return fmt.Errorf("init wanted client: %w", err)
			}

			log := a.Mongo().VisitLog(cfg.Mongo.LogCollection, "company_profile")
			emit, done, dryRun, err := buildEmitter(a, flags.out, "company_profile", cfg.Mongo.CompanyCollection, clock)
			if err != nil {
				return err
			}
			defer done()

			s := spider.NewCompanySpider(client, log, emit, clock, a.Logger(), spider.CompanyConfig{
				Mode:         mode,
				MaxCompanies: maxCompanies,
				MaxCompanyID: maxCompanyID,
				BaseURL:      cfg.Wanted.BaseURL,
				DryRun:       dryRun,
			})
			return report(cmd.Context(), a, s.Run)
		},
	}
	cmd.Flags().IntVar(&maxCompanies, "max-companies", 0, "stop after collecting this many new profiles (0 = unbounded)")
	cmd.Flags().IntVar(&maxCompanyID, "max-company-id", 100000, "highest numeric company ID to probe")
	return cmd
}

func newCrawlCoverLettersCmd(flags *crawlFlags) *cobra.Command {
	var (
		maxCompanies int
		maxEssays    int
	)

	cmd := &cobra.Command{
		Use:   "coverletters",
		Short: "Harvest accepted-applicant cover letters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			mode, err := harvest.ParseMode(flags.mode)
			if err != nil {
				return err
			}
			cfg := a.Config()

			clock := system.New()
			client, err := jobkorea.New(jobkorea.Config{
				BaseURL:     cfg.Korea.BaseURL,
				UserAgent:   cfg.Fetch.UserAgent,
				Timeout:     cfg.FetchTimeout(),
				Delay:       cfg.FetchDelay(),
				Parallelism: cfg.Fetch.Parallelism,
				Clock:       clock,
			}, a.Logger())
			if err != nil {
				return fmt.Errorf("init jobkorea client: %w", err)
			}

			parentLog := a.Mongo().VisitLog(cfg.Mongo.LogCollection, "pass_assay_list")
			essayLog := a.Mongo().VisitLog(cfg.Mongo.LogCollection, "cover_letter")
			emit, done, dryRun, err := buildEmitter(a, flags.out, "cover_letter", cfg.Mongo.CoverLetterCollection, clock)
			if err != nil {
				return err
			}
			defer done()

			s := spider.NewCoverLetterSpider(client, parentLog, essayLog, emit, clock, a.Logger(), spider.CoverLetterConfig{
				Mode:                mode,
				MaxCompanies:        maxCompanies,
				MaxEssaysPerCompany: maxEssays,
				DryRun:              dryRun,
			})
			return report(cmd.Context(), a, s.Run)
		},
	}
	cmd.Flags().IntVar(&maxCompanies, "max-companies", 5, "stop after collecting this many new companies (0 = unbounded)")
	cmd.Flags().IntVar(&maxEssays, "max-essays", 10, "essays to take per company")
	return cmd
}

// buildEmitter picks the destination for parsed items: the validating
// pipeline into Mongo, or a JSON-lines file when out is set. The returned
// bool reports whether the run is a dry run.
func buildEmitter(a *app.App, out, source, collection string, clock harvest.Clock) (harvest.Emitter, func(), bool, error) {
	if out != "" {
		sink, err := harvest.NewFileSink(out, a.Logger())
		if err != nil {
			return nil, nil, false, fmt.Errorf("open output file: %w", err)
		}
		closer := func() {
			if err := sink.Close(); err != nil {
				a.Logger().Warn("close output file", zap.Error(err))
			}
		}
		return sink, closer, true, nil
	}

	cfg := a.Config()
	log := a.Mongo().VisitLog(cfg.Mongo.LogCollection, source)
	records := a.Mongo().Records(collection)
	return harvest.NewPipeline(source, records, log, clock, a.Logger()), func() {}, false, nil
}

// report runs a spider and logs its aggregate counters. A canceled context
// is a clean stop, not an error.
func report(ctx context.Context, a *app.App, run func(context.Context) (spider.Stats, error)) error {
	stats, err := run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger().Error("crawl failed", append(stats.Fields(), zap.Error(err))...)
		return err
	}
	a.Logger().Info("crawl finished", stats.Fields()...)
	return nil
}
