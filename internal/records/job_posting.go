package records

import (
	"time"

	"github.com/jobscope/harvester/internal/harvest"
)

// RawJobPosting is a job posting as parsed from the detail API, before
// validation. The detail URL doubles as the source identifier.
type RawJobPosting struct {
	DetailURL   string    `json:"detailUrl"`
	ExternalURL string    `json:"externalUrl"`
	CrawledAt   time.Time `json:"crawledAt"`

	Status  *string `json:"status"`
	DueTime *string `json:"due_time"`

	JobGroup *string  `json:"jobGroup"`
	JobRoles []string `json:"jobRoles"`

	Intro           *string `json:"intro"`
	MainTasks       *string `json:"main_tasks"`
	Requirements    *string `json:"requirements"`
	PreferredPoints *string `json:"preferred_points"`
	Benefits        *string `json:"benefits"`
	HireRounds      *string `json:"hire_rounds"`

	CompanyName *string `json:"companyName"`
	LogoURL     *string `json:"logoUrl"`
	Address     Address `json:"address"`

	// Company-page enrichment, best effort.
	Features       []string `json:"features"`
	AvgSalary      *int     `json:"avgSalary"`
	AvgEntrySalary *int     `json:"avgEntrySalary"`

	SkillTags   []string `json:"skill_tags"`
	TitleImages []string `json:"title_images"`
}

// SourceID implements harvest.Item.
func (r *RawJobPosting) SourceID() harvest.SourceID {
	return harvest.SourceID(r.DetailURL)
}

// Validate implements harvest.Item.
func (r *RawJobPosting) Validate() []harvest.Violation {
	var vs []harvest.Violation
	vs = requireURL(vs, "detailUrl", r.DetailURL)
	vs = requireURL(vs, "externalUrl", r.ExternalURL)
	vs = requireEnum(vs, "status", r.Status, "active", "closed")
	vs = requirePresent(vs, "company.name", r.CompanyName)
	vs = requirePresent(vs, "detail.position.jobGroup", r.JobGroup)
	if len(r.JobRoles) == 0 {
		vs = append(vs, harvest.Violation{Field: "detail.position.job", Reason: "at least one role is required"})
	}
	return vs
}

// Document implements harvest.Item.
func (r *RawJobPosting) Document() any {
	return JobPosting{
		Metadata: Metadata{
			Source:        PlatformWanted,
			SourceURL:     r.DetailURL,
			CrawledAt:     r.CrawledAt,
			SchemaVersion: SchemaVersion,
		},
		ExternalURL: r.ExternalURL,
		Status:      deref(r.Status),
		DueTime:     r.DueTime,
		Detail: JobDetail{
			Position: Position{
				JobGroup: deref(r.JobGroup),
				Roles:    r.JobRoles,
			},
			Intro:           deref(r.Intro),
			MainTasks:       deref(r.MainTasks),
			Requirements:    deref(r.Requirements),
			PreferredPoints: deref(r.PreferredPoints),
			Benefits:        deref(r.Benefits),
			HireRounds:      deref(r.HireRounds),
		},
		Company: JobCompany{
			Name:           deref(r.CompanyName),
			LogoImg:        r.LogoURL,
			Address:        r.Address,
			Features:       r.Features,
			AvgSalary:      r.AvgSalary,
			AvgEntrySalary: r.AvgEntrySalary,
		},
		SkillTags:   r.SkillTags,
		TitleImages: r.TitleImages,
	}
}

// JobPosting is the stored form of a job posting.
type JobPosting struct {
	Metadata    Metadata   `bson:"metadata" json:"metadata"`
	ExternalURL string     `bson:"externalUrl" json:"externalUrl"`
	Status      string     `bson:"status" json:"status"`
	DueTime     *string    `bson:"due_time" json:"due_time"`
	Detail      JobDetail  `bson:"detail" json:"detail"`
	Company     JobCompany `bson:"company" json:"company"`
	SkillTags   []string   `bson:"skill_tags" json:"skill_tags"`
	TitleImages []string   `bson:"title_images" json:"title_images"`
}

// JobDetail holds the narrative sections of a posting.
type JobDetail struct {
	Position        Position `bson:"position" json:"position"`
	Intro           string   `bson:"intro" json:"intro"`
	MainTasks       string   `bson:"main_tasks" json:"main_tasks"`
	Requirements    string   `bson:"requirements" json:"requirements"`
	PreferredPoints string   `bson:"preferred_points" json:"preferred_points"`
	Benefits        string   `bson:"benefits" json:"benefits"`
	HireRounds      string   `bson:"hire_rounds" json:"hire_rounds"`
}

// Position is the job-group/role classification.
type Position struct {
	JobGroup string   `bson:"jobGroup" json:"jobGroup"`
	Roles    []string `bson:"job" json:"job"`
}

// JobCompany is the employer block embedded in a posting.
type JobCompany struct {
	Name           string   `bson:"name" json:"name"`
	LogoImg        *string  `bson:"logo_img" json:"logo_img"`
	Address        Address  `bson:"address" json:"address"`
	Features       []string `bson:"features" json:"features"`
	AvgSalary      *int     `bson:"avgSalary" json:"avgSalary"`
	AvgEntrySalary *int     `bson:"avgEntrySalary" json:"avgEntrySalary"`
}
