package records

import (
	"time"

	"github.com/jobscope/harvester/internal/harvest"
)

// Essay is one question/answer pair from a cover letter.
type Essay struct {
	Question  string `bson:"question" json:"question"`
	Answer    string `bson:"answer" json:"answer"`
	MaxLength *int   `bson:"maxLength" json:"maxLength"`
}

// RawCoverLetter is an accepted-applicant cover letter parsed from an essay
// detail page, before validation.
type RawCoverLetter struct {
	URL       string    `json:"url"`
	CrawledAt time.Time `json:"crawledAt"`

	Status        *string  `json:"status"`
	CompanyName   *string  `json:"companyName"`
	PositionName  *string  `json:"positionName"`
	ApplicationAt *string  `json:"applicationAt"`
	Applicant     []string `json:"applicant"`
	Essays        []Essay  `json:"essays"`

	SourceData string `json:"sourceData"`
}

// SourceID implements harvest.Item.
func (r *RawCoverLetter) SourceID() harvest.SourceID {
	return harvest.SourceID(r.URL)
}

// Validate implements harvest.Item.
func (r *RawCoverLetter) Validate() []harvest.Violation {
	var vs []harvest.Violation
	vs = requireURL(vs, "url", r.URL)
	vs = requireEnum(vs, "status", r.Status, "accepted", "rejected", "unknown")
	vs = requirePresent(vs, "companyName", r.CompanyName)
	vs = requirePresent(vs, "positionName", r.PositionName)
	if len(r.Essays) == 0 {
		vs = append(vs, harvest.Violation{Field: "essays", Reason: "at least one essay is required"})
	}
	for _, e := range r.Essays {
		vs = requireNonEmpty(vs, "essays.question", e.Question)
		vs = requireNonEmpty(vs, "essays.answer", e.Answer)
	}
	if r.ApplicationAt != nil {
		if _, err := time.Parse("2006-01-02", *r.ApplicationAt); err != nil {
			vs = append(vs, harvest.Violation{Field: "applicationAt", Reason: "must be a 2006-01-02 date"})
		}
	}
	return vs
}

// Document implements harvest.Item.
func (r *RawCoverLetter) Document() any {
	return CoverLetter{
		Status:        deref(r.Status),
		CompanyName:   deref(r.CompanyName),
		PositionName:  deref(r.PositionName),
		ApplicationAt: r.ApplicationAt,
		Applicant:     r.Applicant,
		Essays:        r.Essays,
		Metadata: Metadata{
			Source:        PlatformJobkorea,
			SourceURL:     r.URL,
			CrawledAt:     r.CrawledAt,
			SchemaVersion: SchemaVersion,
		},
		SourceData: r.SourceData,
	}
}

// CoverLetter is the stored form of a cover letter.
type CoverLetter struct {
	Status        string   `bson:"status" json:"status"`
	CompanyName   string   `bson:"companyName" json:"companyName"`
	PositionName  string   `bson:"positionName" json:"positionName"`
	ApplicationAt *string  `bson:"applicationAt" json:"applicationAt"`
	Applicant     []string `bson:"applicant" json:"applicant"`
	Essays        []Essay  `bson:"essays" json:"essays"`
	Metadata      Metadata `bson:"metadata" json:"metadata"`
	SourceData    string   `bson:"sourceData" json:"sourceData"`
}
