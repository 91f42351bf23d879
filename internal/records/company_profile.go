package records

import (
	"time"

	"github.com/jobscope/harvester/internal/harvest"
)

// RawCompanyProfile is a company profile parsed out of the page's
// __NEXT_DATA__ payload, before validation.
type RawCompanyProfile struct {
	CompanyURL string    `json:"companyUrl"`
	CrawledAt  time.Time `json:"crawledAt"`

	Name      *string  `json:"name"`
	Features  []string `json:"features"`
	AvgSalary *int     `json:"avgSalary"`
	Address   Address  `json:"address"`

	// SourceData is the full dehydrated page payload, kept for re-parsing.
	SourceData map[string]any `json:"sourceData"`
}

// SourceID implements harvest.Item.
func (r *RawCompanyProfile) SourceID() harvest.SourceID {
	return harvest.SourceID(r.CompanyURL)
}

// Validate implements harvest.Item.
func (r *RawCompanyProfile) Validate() []harvest.Violation {
	var vs []harvest.Violation
	vs = requireURL(vs, "companyUrl", r.CompanyURL)
	vs = requirePresent(vs, "companyName", r.Name)
	return vs
}

// Document implements harvest.Item.
func (r *RawCompanyProfile) Document() any {
	addr := r.Address
	if addr.Country == "" {
		addr.Country = "한국"
	}
	return CompanyProfile{
		CompanyName: deref(r.Name),
		Source: SourceRef{
			URL:       r.CompanyURL,
			Platform:  "Wanted",
			CrawledAt: r.CrawledAt,
		},
		Profile: CompanyDetails{
			Features:  r.Features,
			AvgSalary: r.AvgSalary,
			Address:   addr,
		},
		Metadata: Metadata{
			Source:        PlatformWanted,
			SourceURL:     r.CompanyURL,
			CrawledAt:     r.CrawledAt,
			SchemaVersion: SchemaVersion,
		},
		SourceData: r.SourceData,
	}
}

// CompanyProfile is the stored form of a company profile.
type CompanyProfile struct {
	CompanyName string         `bson:"companyName" json:"companyName"`
	Source      SourceRef      `bson:"source" json:"source"`
	Profile     CompanyDetails `bson:"profile" json:"profile"`
	Metadata    Metadata       `bson:"metadata" json:"metadata"`
	SourceData  map[string]any `bson:"sourceData" json:"sourceData"`
}

// SourceRef names where the profile came from.
type SourceRef struct {
	URL       string    `bson:"url" json:"url"`
	Platform  string    `bson:"platform" json:"platform"`
	CrawledAt time.Time `bson:"crawledAt" json:"crawledAt"`
}

// CompanyDetails is the profile payload.
type CompanyDetails struct {
	Features  []string `bson:"features" json:"features"`
	AvgSalary *int     `bson:"avgSalary" json:"avgSalary"`
	Address   Address  `bson:"address" json:"address"`
}
