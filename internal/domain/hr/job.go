package hr

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sikka-software/Tanad-sub009/internal/domain/shared"
	"github.com/sikka-software/Tanad-sub009/pkg/slug"
)

// JobType is the employment type of an opening
type JobType string

const (
	JobTypeFullTime   JobType = "full_time"
	JobTypePartTime   JobType = "part_time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
	JobTypeTemporary  JobType = "temporary"
)

// Job is an open position
type Job struct {
	shared.OwnedEntity
	Title        string          `gorm:"type:varchar(200);not null" json:"title" validate:"required,max=200"`
	Description  string          `gorm:"type:text" json:"description"`
	Requirements string          `gorm:"type:text" json:"requirements"`
	Type         JobType         `gorm:"type:varchar(20);not null" json:"type" validate:"oneof=full_time part_time contract internship temporary"`
	Location     string          `gorm:"type:varchar(200)" json:"location" validate:"max=200"`
	Department   string          `gorm:"type:varchar(100)" json:"department" validate:"max=100"`
	Salary       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"salary" validate:"gte=0"`
	IsActive     bool            `gorm:"not null" json:"is_active"`
}

// TableName returns the table name for GORM
func (Job) TableName() string {
	return "jobs"
}

// Normalize fills defaults
func (j *Job) Normalize() {
	j.Title = strings.TrimSpace(j.Title)
	if j.Type == "" {
		j.Type = JobTypeFullTime
	}
}

// Validate checks field constraints
func (j *Job) Validate() error {
	return shared.ValidateStruct(j)
}

// SearchFields returns the columns covered by free-text search
func (Job) SearchFields() []string {
	return []string{"title", "location", "department"}
}

// JobListing is a public page presenting a selection of jobs.
// The selection is stored in job_listing_jobs.
type JobListing struct {
	shared.OwnedEntity
	Title       string          `gorm:"type:varchar(200);not null" json:"title" validate:"required,max=200"`
	Description string          `gorm:"type:text" json:"description"`
	Slug        string          `gorm:"type:varchar(200);not null;index" json:"slug" validate:"required,max=200"`
	IsPublic    bool            `gorm:"not null" json:"is_public"`
	Jobs        []JobListingJob `gorm:"foreignKey:JobListingID" json:"jobs"`
}

// JobListingJob is one job included in a listing
type JobListingJob struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	JobListingID uuid.UUID `gorm:"type:uuid;not null;index" json:"job_listing_id"`
	JobID        uuid.UUID `gorm:"type:uuid;not null;index" json:"job_id"`
}

// TableName returns the table name for GORM
func (JobListingJob) TableName() string {
	return "job_listing_jobs"
}

// TableName returns the table name for GORM
func (JobListing) TableName() string {
	return "job_listings"
}

// AssignIdentity gives the listing and its job links fresh ids
func (l *JobListing) AssignIdentity(scope shared.Scope) {
	l.OwnedEntity.AssignIdentity(scope)
	for i := range l.Jobs {
		l.Jobs[i].ID = uuid.New()
		l.Jobs[i].JobListingID = l.ID
	}
}

// Normalize derives the slug from the title when empty and links jobs
func (l *JobListing) Normalize() {
	l.Title = strings.TrimSpace(l.Title)
	if strings.TrimSpace(l.Slug) == "" {
		l.Slug = slug.Make(l.Title)
	} else {
		l.Slug = slug.Make(l.Slug)
	}
	for i := range l.Jobs {
		if l.Jobs[i].ID == uuid.Nil {
			l.Jobs[i].ID = uuid.New()
		}
		l.Jobs[i].JobListingID = l.ID
	}
}

// Validate checks field constraints
func (l *JobListing) Validate() error {
	seen := make(map[uuid.UUID]bool, len(l.Jobs))
	for _, j := range l.Jobs {
		if j.JobID == uuid.Nil || seen[j.JobID] {
			return shared.NewValidationError("Validation failed", shared.FieldProblem{Field: "jobs", Message: "Each job must be given once"})
		}
		seen[j.JobID] = true
	}
	return shared.ValidateStruct(l)
}

// PrepareDuplicate gives the copy a distinct slug
func (l *JobListing) PrepareDuplicate() {
	l.Title = l.Title + " (copy)"
	l.Slug = l.Slug + "-copy"
}

// Preloads returns the associations loaded with a listing
func (JobListing) Preloads() []string {
	return []string{"Jobs"}
}

// SearchFields returns the columns covered by free-text search
func (JobListing) SearchFields() []string {
	return []string{"title", "slug"}
}

// JobIDs returns the ids of the listed jobs
func (l *JobListing) JobIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(l.Jobs))
	for i, j := range l.Jobs {
		ids[i] = j.JobID
	}
	return ids
}

// References returns the listed jobs
func (l *JobListing) References() []shared.Reference {
	return []shared.Reference{{Field: "jobs", Table: Job{}.TableName(), IDs: l.JobIDs()}}
}
