package jobkorea

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jobscope/harvester/internal/records"
)

const salaryIndexPage = `<!DOCTYPE html>
<html><body>
<ul id="listCompany">
  <li><a href="/Company/1001/Salary">acme</a></li>
  <li><a href="/Company/1002/Salary">globex</a></li>
  <li><a href="/NotACompany/9/Salary">junk</a></li>
</ul>
<div class="paginations"><a class="next" data-page="2" href="?coPage=2">다음</a></div>
</body></html>`

const passAssayPage = `<!DOCTYPE html>
<html><body>
<div class="starList">
  <ul>
    <li class="assay"><a href="/starter/passassay/View/501">자소서 1</a></li>
    <li class="assay"><a href="/starter/passassay/View/502">자소서 2</a></li>
  </ul>
</div>
<div class="tplPagination">
  <span class="now">1</span>
  <a data-page="2" href="?Page=2">2</a>
</div>
</body></html>`

const essayPage = `<!DOCTYPE html>
<html><body>
<div class="company-header-branding-body"><div class="name">acme</div></div>
<article class="detailView">
<h2 class="tit">2024년 상반기 신입 서버 개발자 합격자소서</h2>
<div class="items">
  <span class="trm"><span class="cell">4년제</span><span class="cell">학점 3.8</span></span>
</div>
<dl class="qnaLists">
  <dt><span class="tx">지원 동기를 쓰시오</span></dt>
  <dd><div class="tx">회사가 좋아서요 글자수 1,000자 2,000Byte</div></dd>
  <dt><span class="tx">성장 과정을 쓰시오</span></dt>
  <dd><div class="tx">잘 자랐습니다</div></dd>
</dl>
</article>
</body></html>`

var harvestTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, Clock: fixedClock{harvestTime}}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c, srv
}

func TestListCompanies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Salary/Index", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2", r.URL.Query().Get("orderCode"))
		require.Equal(t, "1", r.URL.Query().Get("coPage"))
		fmt.Fprint(w, salaryIndexPage)
	})
	c, srv := newTestClient(t, mux)

	urls, next, err := c.ListCompanies(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, []string{
		srv.URL + "/company/1001/PassAssay",
		srv.URL + "/company/1002/PassAssay",
	}, urls, "non-company links are dropped")
	require.Equal(t, 2, next)
}

func TestListCompaniesLastPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/Salary/Index", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><ul id="listCompany"></ul></body></html>`)
	})
	c, _ := newTestClient(t, mux)

	urls, next, err := c.ListCompanies(context.Background(), 3)
	require.NoError(t, err)
	require.Empty(t, urls)
	require.Equal(t, 0, next)
}

func TestListEssays(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/company/1001/PassAssay", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "", r.URL.Query().Get("Page"), "page 1 is the bare list URL")
		fmt.Fprint(w, passAssayPage)
	})
	c, srv := newTestClient(t, mux)

	urls, next, err := c.ListEssays(context.Background(), srv.URL+"/company/1001/PassAssay", 1)
	require.NoError(t, err)
	require.Equal(t, []string{
		srv.URL + "/starter/passassay/View/501",
		srv.URL + "/starter/passassay/View/502",
	}, urls, "relative links are resolved against the list page")
	require.Equal(t, 2, next, "a link to the following page advances pagination")
}

func TestListEssaysStopsWithoutNextLink(t *testing.T) {
	page := `<html><body>
<div class="starList"><ul><li class="assay"><a href="/starter/passassay/View/501">a</a></li></ul></div>
<div class="tplPagination"><span class="now">3</span></div>
</body></html>`
	mux := http.NewServeMux()
	mux.HandleFunc("/company/1001/PassAssay", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "3", r.URL.Query().Get("Page"))
		fmt.Fprint(w, page)
	})
	c, srv := newTestClient(t, mux)

	urls, next, err := c.ListEssays(context.Background(), srv.URL+"/company/1001/PassAssay", 3)
	require.NoError(t, err)
	require.Len(t, urls, 1)
	require.Equal(t, 0, next)
}

func TestFetchEssay(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/starter/passassay/View/501", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, essayPage)
	})
	c, srv := newTestClient(t, mux)

	raw, err := c.FetchEssay(context.Background(), srv.URL+"/starter/passassay/View/501")
	require.NoError(t, err)

	require.Equal(t, "accepted", *raw.Status)
	require.Equal(t, "acme", *raw.CompanyName)
	require.Equal(t, "서버 개발자", *raw.PositionName)
	require.Equal(t, "2024-01-01", *raw.ApplicationAt, "상반기 maps to January 1st")
	require.Equal(t, []string{"4년제", "학점 3.8"}, raw.Applicant)

	require.Len(t, raw.Essays, 2)
	require.Equal(t, "지원 동기를 쓰시오", raw.Essays[0].Question)
	require.Equal(t, "회사가 좋아서요", raw.Essays[0].Answer, "the character-count suffix is stripped")
	require.Equal(t, 1000, *raw.Essays[0].MaxLength)
	require.Nil(t, raw.Essays[1].MaxLength)
	require.Empty(t, raw.Validate())

	doc := raw.Document().(records.CoverLetter)
	require.False(t, doc.Metadata.CrawledAt.IsZero(), "stored metadata.crawledAt must be the harvest time")
	require.Equal(t, harvestTime, doc.Metadata.CrawledAt)
}

func TestParseTitle(t *testing.T) {
	pos, at := parseTitle("2023년 하반기 경력 데이터 엔지니어 합격자소서")
	require.Equal(t, "데이터 엔지니어", pos)
	require.Equal(t, "2023-07-01", at, "하반기 maps to July 1st")

	pos, at = parseTitle("채용공고")
	require.Equal(t, "unknown", pos)
	require.Empty(t, at)
}

func TestCompanyID(t *testing.T) {
	id, ok := companyID("/Company/1001/Salary")
	require.True(t, ok)
	require.Equal(t, "1001", id)

	_, ok = companyID("/Salary/Index")
	require.False(t, ok)
}
