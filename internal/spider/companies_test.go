package spider_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jobscope/harvester/internal/harvest"
	"github.com/jobscope/harvester/internal/records"
	"github.com/jobscope/harvester/internal/spider"
	"github.com/jobscope/harvester/internal/store/memory"
)

const companyBase = "https://www.wanted.co.kr"

func companyURL(id int) string {
	return fmt.Sprintf("%s/company/%d", companyBase, id)
}

// testClock pins Now for comparable log entries.
type testClock struct{ at time.Time }

func (c testClock) Now() time.Time { return c.at }

// fakeCompanyClient serves canned profiles keyed by URL. URLs in broken
// return a fetch error; URLs in nameless return a profile that fails
// validation.
type fakeCompanyClient struct {
	broken   map[string]bool
	nameless map[string]bool
	fetched  []string
}

func (c *fakeCompanyClient) FetchCompany(_ context.Context, companyURL string) (*records.RawCompanyProfile, error) {
	c.fetched = append(c.fetched, companyURL)
	if c.broken[companyURL] {
		return nil, fmt.Errorf("get %s: connection reset", companyURL)
	}
	raw := &records.RawCompanyProfile{CompanyURL: companyURL, CrawledAt: time.Now()}
	if !c.nameless[companyURL] {
		name := "company at " + companyURL
		raw.Name = &name
	}
	return raw, nil
}

type companyFixture struct {
	client  *fakeCompanyClient
	log     *memory.VisitLog
	records *memory.RecordStore
	spider  *spider.CompanySpider
}

func newCompanyFixture(t *testing.T, client *fakeCompanyClient, log *memory.VisitLog, cfg spider.CompanyConfig) companyFixture {
	t.Helper()
	recs := memory.NewRecordStore()
	logger := zaptest.NewLogger(t)
	clock := testClock{at: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	pipe := harvest.NewPipeline("company_profile", recs, log, clock, logger)
	return companyFixture{
		client:  client,
		log:     log,
		records: recs,
		spider:  spider.NewCompanySpider(client, log, pipe, clock, logger, cfg),
	}
}

func TestCompanyCreateStopsAtMaxCompanies(t *testing.T) {
	fix := newCompanyFixture(t, &fakeCompanyClient{}, memory.NewVisitLog(), spider.CompanyConfig{
		Mode:         harvest.ModeCreate,
		MaxCompanies: 10,
		MaxCompanyID: 50,
		BaseURL:      companyBase,
	})

	stats, err := fix.spider.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 10, stats.Collected)
	require.Equal(t, 10, stats.Attempted, "the bound stops enumeration, not just collection")
	require.Equal(t, 10, fix.records.Len())
	for id := 1; id <= 10; id++ {
		entry, ok := fix.log.Get(harvest.SourceID(companyURL(id)))
		require.True(t, ok, "every visited ID gets a log entry")
		require.Equal(t, harvest.StatusCollected, entry.Status)
	}
	require.Equal(t, 10, fix.log.Len(), "IDs beyond the bound are never touched")
}

func TestCompanyCreateSkipsLoggedIDs(t *testing.T) {
	log := memory.NewVisitLog()
	for _, id := range []int{1, 3, 5} {
		require.NoError(t, log.Record(context.Background(), harvest.VisitEntry{
			ID: harvest.SourceID(companyURL(id)), Status: harvest.StatusCollected, CrawledAt: time.Now(),
		}))
	}

	client := &fakeCompanyClient{}
	fix := newCompanyFixture(t, client, log, spider.CompanyConfig{
		Mode:         harvest.ModeCreate,
		MaxCompanies: 3,
		MaxCompanyID: 50,
		BaseURL:      companyBase,
	})

	stats, err := fix.spider.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{companyURL(2), companyURL(4), companyURL(6)}, client.fetched)
	require.Equal(t, 3, stats.Skipped)
	require.Equal(t, 3, stats.Collected)
}

func TestCompanyCreateLogsMalformedProfileAndContinues(t *testing.T) {
	client := &fakeCompanyClient{nameless: map[string]bool{companyURL(2): true}}
	fix := newCompanyFixture(t, client, memory.NewVisitLog(), spider.CompanyConfig{
		Mode:         harvest.ModeCreate,
		MaxCompanies: 3,
		MaxCompanyID: 50,
		BaseURL:      companyBase,
	})

	stats, err := fix.spider.Run(context.Background())
	require.NoError(t, err)

	entry, ok := fix.log.Get(harvest.SourceID(companyURL(2)))
	require.True(t, ok)
	require.Equal(t, harvest.StatusFailed, entry.Status)
	_, stored := fix.records.Get(harvest.SourceID(companyURL(2)))
	require.False(t, stored, "invalid profiles never reach the store")

	require.Equal(t, 3, stats.Collected, "the run keeps going past a malformed page")
	require.Equal(t, 1, stats.Failed)
	require.Equal(t, []string{companyURL(1), companyURL(2), companyURL(3), companyURL(4)}, client.fetched)
}

func TestCompanyCreateLogsFetchFailure(t *testing.T) {
	client := &fakeCompanyClient{broken: map[string]bool{companyURL(1): true}}
	fix := newCompanyFixture(t, client, memory.NewVisitLog(), spider.CompanyConfig{
		Mode:         harvest.ModeCreate,
		MaxCompanies: 1,
		MaxCompanyID: 5,
		BaseURL:      companyBase,
	})

	stats, err := fix.spider.Run(context.Background())
	require.NoError(t, err)

	entry, ok := fix.log.Get(harvest.SourceID(companyURL(1)))
	require.True(t, ok, "a fetch failure still leaves a failed entry")
	require.Equal(t, harvest.StatusFailed, entry.Status)
	require.Equal(t, 1, stats.Failed)
	require.Equal(t, 1, stats.Collected)
}

func TestCompanyUpdateRefetchesExactlyTheLog(t *testing.T) {
	log := memory.NewVisitLog()
	for _, id := range []int{7, 2, 9} {
		require.NoError(t, log.Record(context.Background(), harvest.VisitEntry{
			ID: harvest.SourceID(companyURL(id)), Status: harvest.StatusCollected, CrawledAt: time.Now(),
		}))
	}

	client := &fakeCompanyClient{}
	fix := newCompanyFixture(t, client, log, spider.CompanyConfig{
		Mode:         harvest.ModeUpdate,
		MaxCompanies: 1, // ignored in update mode
		MaxCompanyID: 100000,
		BaseURL:      companyBase,
	})

	stats, err := fix.spider.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, client.fetched, 3, "update visits the logged set, never the ID range")
	require.Equal(t, 3, stats.Collected)
	require.Equal(t, 0, stats.Skipped)
}

// dryEmitter records emitted items without any persistence.
type dryEmitter struct{ items []harvest.Item }

func (e *dryEmitter) Emit(_ context.Context, item harvest.Item) error {
	e.items = append(e.items, item)
	return nil
}

func TestCompanyDryRunWritesNoBookkeeping(t *testing.T) {
	log := memory.NewVisitLog()
	client := &fakeCompanyClient{broken: map[string]bool{companyURL(2): true}}
	emit := &dryEmitter{}
	s := spider.NewCompanySpider(client, log, emit, testClock{at: time.Now()}, zaptest.NewLogger(t), spider.CompanyConfig{
		Mode:         harvest.ModeCreate,
		MaxCompanies: 2,
		MaxCompanyID: 10,
		BaseURL:      companyBase,
		DryRun:       true,
	})

	stats, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, stats.Collected)
	require.Len(t, emit.items, 2)
	require.Equal(t, 0, log.Len(), "dry run leaves the visitation log untouched even for failures")
}
