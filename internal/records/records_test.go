package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobscope/harvester/internal/harvest"
)

func strptr(s string) *string { return &s }

func validJobPosting() *RawJobPosting {
	return &RawJobPosting{
		DetailURL:   "https://www.wanted.co.kr/api/chaos/jobs/v4/1234/details",
		ExternalURL: "https://www.wanted.co.kr/wd/1234",
		CrawledAt:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:      strptr("active"),
		CompanyName: strptr("acme"),
		JobGroup:    strptr("engineering"),
		JobRoles:    []string{"backend"},
	}
}

func fields(vs []harvest.Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Field)
	}
	return out
}

func TestJobPostingValidate(t *testing.T) {
	require.Empty(t, validJobPosting().Validate())

	missing := validJobPosting()
	missing.CompanyName = nil
	missing.JobRoles = nil
	require.ElementsMatch(t, []string{"company.name", "detail.position.job"}, fields(missing.Validate()))

	badStatus := validJobPosting()
	badStatus.Status = strptr("paused")
	require.Equal(t, []string{"status"}, fields(badStatus.Validate()))

	relative := validJobPosting()
	relative.ExternalURL = "/wd/1234"
	require.Equal(t, []string{"externalUrl"}, fields(relative.Validate()))
}

func TestJobPostingDocumentShape(t *testing.T) {
	raw := validJobPosting()
	raw.Intro = strptr("we build things")
	raw.AvgSalary = intptr(5000)

	doc, ok := raw.Document().(JobPosting)
	require.True(t, ok)

	require.Equal(t, PlatformWanted, doc.Metadata.Source)
	require.Equal(t, raw.DetailURL, doc.Metadata.SourceURL, "records are keyed by the detail URL")
	require.Equal(t, SchemaVersion, doc.Metadata.SchemaVersion)
	require.Equal(t, "active", doc.Status)
	require.Equal(t, "engineering", doc.Detail.Position.JobGroup)
	require.Equal(t, []string{"backend"}, doc.Detail.Position.Roles)
	require.Equal(t, "we build things", doc.Detail.Intro)
	require.Equal(t, "acme", doc.Company.Name)
	require.Equal(t, 5000, *doc.Company.AvgSalary)
}

func intptr(n int) *int { return &n }

func TestCompanyProfileValidate(t *testing.T) {
	valid := &RawCompanyProfile{
		CompanyURL: "https://www.wanted.co.kr/company/42",
		Name:       strptr("acme"),
	}
	require.Empty(t, valid.Validate())

	nameless := &RawCompanyProfile{CompanyURL: "https://www.wanted.co.kr/company/42"}
	require.Equal(t, []string{"companyName"}, fields(nameless.Validate()))
}

func TestCompanyProfileDocumentDefaultsCountry(t *testing.T) {
	raw := &RawCompanyProfile{
		CompanyURL: "https://www.wanted.co.kr/company/42",
		Name:       strptr("acme"),
		CrawledAt:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	doc, ok := raw.Document().(CompanyProfile)
	require.True(t, ok)
	require.Equal(t, "한국", doc.Profile.Address.Country)
	require.Equal(t, "Wanted", doc.Source.Platform)
	require.Equal(t, raw.CompanyURL, doc.Metadata.SourceURL)
}

func validCoverLetter() *RawCoverLetter {
	return &RawCoverLetter{
		URL:          "https://www.jobkorea.co.kr/starter/passassay/View/1",
		Status:       strptr("accepted"),
		CompanyName:  strptr("acme"),
		PositionName: strptr("backend"),
		Essays:       []Essay{{Question: "why us", Answer: "because"}},
	}
}

func TestCoverLetterValidate(t *testing.T) {
	require.Empty(t, validCoverLetter().Validate())

	empty := validCoverLetter()
	empty.Essays = nil
	require.Equal(t, []string{"essays"}, fields(empty.Validate()))

	blankAnswer := validCoverLetter()
	blankAnswer.Essays = []Essay{{Question: "why us"}}
	require.Equal(t, []string{"essays.answer"}, fields(blankAnswer.Validate()))

	badDate := validCoverLetter()
	badDate.ApplicationAt = strptr("2024년 상반기")
	require.Equal(t, []string{"applicationAt"}, fields(badDate.Validate()))

	halfYear := validCoverLetter()
	halfYear.ApplicationAt = strptr("2024-07-01")
	require.Empty(t, halfYear.Validate())
}

func TestCoverLetterDocumentShape(t *testing.T) {
	raw := validCoverLetter()
	raw.CrawledAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	raw.Applicant = []string{"4년제", "학점 3.8"}

	doc, ok := raw.Document().(CoverLetter)
	require.True(t, ok)
	require.Equal(t, PlatformJobkorea, doc.Metadata.Source)
	require.Equal(t, raw.URL, doc.Metadata.SourceURL)
	require.Equal(t, "accepted", doc.Status)
	require.Len(t, doc.Essays, 1)
	require.Equal(t, []string{"4년제", "학점 3.8"}, doc.Applicant)
}
