// Package jobkorea fetches accepted-applicant cover letters from JobKorea.
// The site is server-rendered HTML, so everything is goquery selectors.
package jobkorea

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/jobscope/harvester/internal/clock/system"
	"github.com/jobscope/harvester/internal/harvest"
	"github.com/jobscope/harvester/internal/records"
)

// Config controls collector behavior for the JobKorea client.
type Config struct {
	BaseURL     string
	UserAgent   string
	Timeout     time.Duration
	Delay       time.Duration
	Parallelism int
	// Clock stamps crawledAt on parsed essays; wall clock when nil.
	Clock harvest.Clock
}

// Client implements spider.CoverLetterClient against the live site.
type Client struct {
	cfg    Config
	base   *colly.Collector
	clock  harvest.Clock
	logger *zap.Logger
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("jobkorea: base URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = system.New()
	}

	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	// Update runs revisit logged URLs within one process lifetime.
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
			return nil, fmt.Errorf("jobkorea: limit rule: %w", err)
		}
	}

	return &Client{
		cfg:    cfg,
		base:   c,
		clock:  cfg.Clock,
		logger: logger.Named("jobkorea"),
	}, nil
}

func (c *Client) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
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

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return doc, nil
}

// ListCompanies implements spider.CoverLetterClient. Companies are
// enumerated from the salary ranking index, which links every company with
// published data.
func (c *Client) ListCompanies(ctx context.Context, page int) ([]string, int, error) {
	if page < 1 {
		page = 1
	}
	listURL := fmt.Sprintf("%s/Salary/Index?orderCode=2&coPage=%d", c.cfg.BaseURL, page)

	doc, err := c.fetchDocument(ctx, listURL)
	if err != nil {
		return nil, 0, err
	}

	var urls []string
	doc.Find("ul#listCompany > li > a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		if id, ok := companyID(href); ok {
			urls = append(urls, c.PassAssayURL(id))
		}
	})

	next := 0
	if raw, ok := doc.Find("div.paginations a.next").First().Attr("data-page"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > page {
			next = n
		}
	}
	c.logger.Debug("listed companies",
		zap.Int("page", page), zap.Int("count", len(urls)), zap.Int("next", next))
	return urls, next, nil
}

// PassAssayURL is the cover-letter list page for a company.
func (c *Client) PassAssayURL(companyID string) string {
	return fmt.Sprintf("%s/company/%s/PassAssay", c.cfg.BaseURL, companyID)
}

// companyID extracts the ID from a /Company/{id}/... link.
func companyID(href string) (string, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	parts := strings.Split(u.Path, "/")
	if len(parts) > 2 && parts[1] == "Company" && parts[2] != "" {
		return parts[2], true
	}
	return "", false
}

// ListEssays implements spider.CoverLetterClient. Page 1 is the PassAssay
// URL itself; later pages go through the Page query parameter the
// pagination links carry.
func (c *Client) ListEssays(ctx context.Context, passAssayURL string, page int) ([]string, int, error) {
	pageURL := passAssayURL
	if page > 1 {
		sep := "?"
		if strings.Contains(passAssayURL, "?") {
			sep = "&"
		}
		pageURL = fmt.Sprintf("%s%sPage=%d", passAssayURL, sep, page)
	}

	doc, err := c.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, 0, err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	var essays []string
	doc.Find("div.starList li.assay a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		if abs := absoluteURL(base, href); abs != "" {
			essays = append(essays, abs)
		}
	})

	next := 0
	if len(essays) > 0 {
		nowText := strings.TrimSpace(doc.Find("div.tplPagination span.now").First().Text())
		if cur, err := strconv.Atoi(nowText); err == nil {
			sel := fmt.Sprintf(`div.tplPagination a[data-page="%d"]`, cur+1)
			if doc.Find(sel).Length() > 0 {
				next = cur + 1
			}
		}
	}
	return essays, next, nil
}

func absoluteURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

var (
	titlePattern  = regexp.MustCompile(`(\d{4})년\s*(상|하)반기\s+(?:신입|경력)\s+(.+?)\s+합격자소서`)
	lengthPattern = regexp.MustCompile(`글자수\s*([\d,]+)자`)
	suffixPattern = regexp.MustCompile(`\s*글자수\s*[\d,]+자\s*[\d,]+Byte$`)
)

// FetchEssay implements spider.CoverLetterClient. Only accepted essays are
// published on these pages, so status is fixed.
func (c *Client) FetchEssay(ctx context.Context, essayURL string) (*records.RawCoverLetter, error) {
	doc, err := c.fetchDocument(ctx, essayURL)
	if err != nil {
		return nil, err
	}

	status := "accepted"
	raw := &records.RawCoverLetter{
		URL:       essayURL,
		CrawledAt: c.clock.Now(),
		Status:    &status,
	}

	if name := strings.TrimSpace(doc.Find("div.company-header-branding-body .name").First().Text()); name != "" {
		raw.CompanyName = &name
	}

	title := strings.TrimSpace(doc.Find("article.detailView h2.tit").First().Text())
	position, applicationAt := parseTitle(title)
	raw.PositionName = &position
	if applicationAt != "" {
		raw.ApplicationAt = &applicationAt
	}

	doc.Find("div.items span.trm span.cell").Each(func(_ int, s *goquery.Selection) {
		if spec := strings.TrimSpace(s.Text()); spec != "" {
			raw.Applicant = append(raw.Applicant, spec)
		}
	})

	raw.Essays = parseEssays(doc)
	return raw, nil
}

// parseTitle pulls the position and a half-year application date out of the
// page title ("2024년 상반기 신입 백엔드 합격자소서").
func parseTitle(title string) (position, applicationAt string) {
	position = "unknown"
	m := titlePattern.FindStringSubmatch(title)
	if m == nil {
		return position, ""
	}
	position = strings.TrimSpace(m[3])
	if m[2] == "상" {
		applicationAt = m[1] + "-01-01"
	} else {
		applicationAt = m[1] + "-07-01"
	}
	return position, applicationAt
}

// parseEssays walks the dt/dd pairs of the Q&A list. The dd text carries a
// trailing character-count annotation that becomes MaxLength.
func parseEssays(doc *goquery.Document) []records.Essay {
	var (
		essays   []records.Essay
		question string
	)
	doc.Find("dl.qnaLists dt, dl.qnaLists dd").Each(func(_ int, s *goquery.Selection) {
		if s.Is("dt") {
			question = strings.TrimSpace(s.Find("span.tx").First().Text())
			return
		}
		if question == "" {
			return
		}
		text := strings.TrimSpace(s.Find("div.tx").First().Text())

		var maxLength *int
		if m := lengthPattern.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
				maxLength = &n
			}
		}
		answer := strings.TrimSpace(suffixPattern.ReplaceAllString(text, ""))

		if answer != "" {
			essays = append(essays, records.Essay{
				Question:  question,
				Answer:    answer,
				MaxLength: maxLength,
			})
		}
		question = ""
	})
	return essays
}
