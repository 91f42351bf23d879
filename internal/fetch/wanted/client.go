// Package wanted fetches job postings and company profiles from the Wanted
// web APIs using a Colly collector.
package wanted

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/jobscope/harvester/internal/clock/system"
	"github.com/jobscope/harvester/internal/harvest"
	"github.com/jobscope/harvester/internal/records"
	"github.com/jobscope/harvester/internal/spider"
)

// listPageSize is the page size the list API is asked for. A short page
// signals the end of the listing.
const listPageSize = 20

// Config controls collector behavior for the Wanted clients.
type Config struct {
	BaseURL     string
	UserAgent   string
	Timeout     time.Duration
	Delay       time.Duration
	Parallelism int
	JobSort     string
	// Clock stamps crawledAt on parsed items; wall clock when nil.
	Clock harvest.Clock
}

// Client implements spider.JobClient and spider.CompanyClient against the
// live site. One Client is safe for use by a single spider run.
type Client struct {
	cfg    Config
	base   *colly.Collector
	clock  harvest.Clock
	logger *zap.Logger
}

// New builds a Client. The base collector is cloned per request so hook
// registrations never leak between fetches.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("wanted: base URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.JobSort == "" {
		cfg.JobSort = "job.latest_order"
	}
	if cfg.Clock == nil {
		cfg.Clock = system.New()
	}

	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	// Clones share the visited-URL store; the same company page is fetched
	// once per posting that links it.
	c.AllowURLRevisit = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.SetRequestTimeout(cfg.Timeout)
	if cfg.Delay > 0 || cfg.Parallelism > 0 {
		if err := c.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Delay:       cfg.Delay,
			Parallelism: cfg.Parallelism,
		}); err != nil {
			return nil, fmt.Errorf("wanted: limit rule: %w", err)
		}
	}

	return &Client{
		cfg:    cfg,
		base:   c,
		clock:  cfg.Clock,
		logger: logger.Named("wanted"),
	}, nil
}

// fetchBytes runs one GET through a cloned collector and returns the body.
func (c *Client) fetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		body     []byte
		fetchErr error
	)
	collector := c.base.Clone()
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("get %s: %w", rawURL, err)
	})

	if err := collector.Visit(rawURL); err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	collector.Wait()
	if fetchErr != nil {
		return nil, fetchErr
	}
	return body, nil
}

// jobList is the shape of one /api/v4/jobs page.
type jobList struct {
	Data []struct {
		ID int64 `json:"id"`
	} `json:"data"`
}

// ListJobs implements spider.JobClient.
func (c *Client) ListJobs(ctx context.Context, offset int) ([]spider.JobStub, bool, error) {
	q := url.Values{}
	q.Set("country", "kr")
	q.Set("job_sort", c.cfg.JobSort)
	q.Set("locations", "all")
	q.Set("years", "-1")
	q.Set("limit", fmt.Sprint(listPageSize))
	q.Set("offset", fmt.Sprint(offset))
	listURL := fmt.Sprintf("%s/api/v4/jobs?%s", c.cfg.BaseURL, q.Encode())

	body, err := c.fetchBytes(ctx, listURL)
	if err != nil {
		return nil, false, err
	}

	var page jobList
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, false, fmt.Errorf("decode job list %s: %w", listURL, err)
	}

	stubs := make([]spider.JobStub, 0, len(page.Data))
	for _, j := range page.Data {
		stubs = append(stubs, spider.JobStub{
			ID:          j.ID,
			DetailURL:   c.DetailURL(j.ID),
			ExternalURL: c.ExternalURL(j.ID),
		})
	}
	c.logger.Debug("listed jobs", zap.Int("offset", offset), zap.Int("count", len(stubs)))
	return stubs, len(page.Data) == listPageSize, nil
}

// DetailURL is the JSON detail endpoint for a posting.
func (c *Client) DetailURL(id int64) string {
	return fmt.Sprintf("%s/api/chaos/jobs/v4/%d/details", c.cfg.BaseURL, id)
}

// ExternalURL is the human-facing posting page.
func (c *Client) ExternalURL(id int64) string {
	return fmt.Sprintf("%s/wd/%d", c.cfg.BaseURL, id)
}

// jobDetail is the shape of one /api/chaos/jobs/v4/{id}/details response.
// The payload sits inside a data envelope.
type jobDetail struct {
	Data struct {
		Job struct {
			Status  *string `json:"status"`
			DueTime *string `json:"due_time"`
			Detail  struct {
				Intro           *string `json:"intro"`
				MainTasks       *string `json:"main_tasks"`
				Requirements    *string `json:"requirements"`
				PreferredPoints *string `json:"preferred_points"`
				Benefits        *string `json:"benefits"`
				HireRounds      *string `json:"hire_rounds"`
			} `json:"detail"`
			CategoryTag struct {
				ParentTag *struct {
					Text string `json:"text"`
				} `json:"parent_tag"`
				ChildTags []struct {
					Text string `json:"text"`
				} `json:"child_tags"`
			} `json:"category_tag"`
			Company struct {
				ID      int64   `json:"id"`
				Name    *string `json:"name"`
				LogoImg *struct {
					Origin string `json:"origin"`
				} `json:"logo_img"`
			} `json:"company"`
			Address struct {
				Country      string `json:"country"`
				Location     string `json:"location"`
				District     string `json:"district"`
				FullLocation string `json:"full_location"`
			} `json:"address"`
			SkillTags []struct {
				Title string `json:"title"`
			} `json:"skill_tags"`
			TitleImg *struct {
				Origin string `json:"origin"`
			} `json:"title_img"`
		} `json:"job"`
	} `json:"data"`
}

// FetchJob implements spider.JobClient. Company-page enrichment is best
// effort: a failed profile fetch degrades the posting, it never fails it.
func (c *Client) FetchJob(ctx context.Context, detailURL, externalURL string) (*records.RawJobPosting, error) {
	body, err := c.fetchBytes(ctx, detailURL)
	if err != nil {
		return nil, err
	}

	var d jobDetail
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("decode job detail %s: %w", detailURL, err)
	}
	job := d.Data.Job

	if externalURL == "" {
		externalURL = externalFromDetail(detailURL)
	}

	raw := &records.RawJobPosting{
		DetailURL:       detailURL,
		ExternalURL:     externalURL,
		CrawledAt:       c.clock.Now(),
		Status:          normalizeJobStatus(job.Status),
		DueTime:         job.DueTime,
		Intro:           job.Detail.Intro,
		MainTasks:       job.Detail.MainTasks,
		Requirements:    job.Detail.Requirements,
		PreferredPoints: job.Detail.PreferredPoints,
		Benefits:        job.Detail.Benefits,
		HireRounds:      job.Detail.HireRounds,
		CompanyName:     job.Company.Name,
		Address: records.Address{
			Country:      job.Address.Country,
			Location:     job.Address.Location,
			District:     job.Address.District,
			FullLocation: job.Address.FullLocation,
		},
	}
	if p := job.CategoryTag.ParentTag; p != nil {
		raw.JobGroup = &p.Text
	}
	for _, t := range job.CategoryTag.ChildTags {
		raw.JobRoles = append(raw.JobRoles, t.Text)
	}
	if l := job.Company.LogoImg; l != nil {
		raw.LogoURL = &l.Origin
	}
	for _, t := range job.SkillTags {
		raw.SkillTags = append(raw.SkillTags, t.Title)
	}
	if t := job.TitleImg; t != nil {
		raw.TitleImages = append(raw.TitleImages, t.Origin)
	}

	if job.Company.ID > 0 {
		profile, err := c.FetchCompany(ctx, c.CompanyURL(job.Company.ID))
		if err != nil {
			c.logger.Warn("company enrichment failed",
				zap.String("detail_url", detailURL),
				zap.Int64("company_id", job.Company.ID),
				zap.Error(err))
		} else {
			raw.Features = profile.Features
			raw.AvgSalary = profile.AvgSalary
			raw.AvgEntrySalary = avgEntrySalary(profile.SourceData)
		}
	}
	return raw, nil
}

// CompanyURL is the public company page for an ID.
func (c *Client) CompanyURL(id int64) string {
	return fmt.Sprintf("%s/company/%d", c.cfg.BaseURL, id)
}

// externalFromDetail maps an api/chaos detail URL back to its /wd page.
func externalFromDetail(detailURL string) string {
	trimmed := strings.TrimSuffix(detailURL, "/details")
	i := strings.LastIndex(trimmed, "/")
	if i < 0 {
		return ""
	}
	id := trimmed[i+1:]
	j := strings.Index(detailURL, "/api/")
	if j < 0 {
		return ""
	}
	return detailURL[:j] + "/wd/" + id
}

// normalizeJobStatus folds the API's status vocabulary into active/closed.
func normalizeJobStatus(status *string) *string {
	if status == nil {
		return nil
	}
	s := "closed"
	if strings.EqualFold(*status, "active") {
		s = "active"
	}
	return &s
}
