package model

import "context"

// Strategy names a fetch strategy in the source registry.
const (
	StrategyGreenhouse = "greenhouse"
	StrategyLever      = "lever"
	StrategyAshby      = "ashby"
	StrategyGeneric    = "generic"
	StrategyLinkedIn   = "linkedin"
)

// Job type values accepted by the jobs table.
const (
	JobTypeFullTime   = "full-time"
	JobTypePartTime   = "part-time"
	JobTypeContract   = "contract"
	JobTypeInternship = "internship"
)

// Location type values accepted by the jobs table.
const (
	LocationTypeRemote = "remote"
	LocationTypeOnsite = "onsite"
	LocationTypeHybrid = "hybrid"
)

// StatusPending is the only status the pipeline ever writes. Everything after
// that belongs to the review process.
const StatusPending = "pending"

// PlaceholderDescription is stored when a posting has no usable description.
const PlaceholderDescription = "See job posting for details."

// SourceConfig describes one entry in the source registry.
type SourceConfig struct {
	Type      string `yaml:"type" json:"type"`
	Company   string `yaml:"company" json:"company"`
	Board     string `yaml:"board,omitempty" json:"board,omitempty"`           // API strategies
	URL       string `yaml:"url,omitempty" json:"url,omitempty"`               // page strategies
	WaitUntil string `yaml:"wait_until,omitempty" json:"wait_until,omitempty"` // page readiness; empty uses extraction.wait_until
	Website   string `yaml:"website,omitempty" json:"website,omitempty"`       // company enrichment
}

// Candidate is a raw job posting as produced by a fetcher. Empty strings mean
// the field was absent upstream.
type Candidate struct {
	Title            string
	Location         string
	Description      string
	ApplyURL         string
	JobTypeHint      string
	LocationTypeHint string
	Source           string // strategy name
}

// JobRecord is the canonical row inserted into the jobs table.
type JobRecord struct {
	Title          string
	Slug           string
	Description    string
	CompanyID      string
	JobType        string
	LocationType   string
	Location       string // empty is stored as NULL
	ApplyURL       string
	SalaryCurrency string
	Tags           []string
	Status         string
}

// Company is a row of the companies table.
type Company struct {
	ID      string
	Name    string
	Slug    string
	Website string
	LogoURL string
}

// StoredJob is the subset of a jobs row the backfill job works with.
type StoredJob struct {
	ID          string
	Title       string
	ApplyURL    string
	CompanyName string
}

// JobFetcher fetches job candidates from one source.
type JobFetcher interface {
	FetchJobs(ctx context.Context) ([]Candidate, error)
}

// JobFilter decides whether a candidate is eligible for the board.
type JobFilter interface {
	Eligible(c Candidate) bool
}

// Store is the hosted relational store. Only the pipeline's gateway, the
// backfill job and the logos job talk to it.
type Store interface {
	ExistingApplyURLs(ctx context.Context) ([]string, error)
	FindCompanyByName(ctx context.Context, name string) (Company, error)
	CreateCompany(ctx context.Context, c Company) (Company, error)
	InsertJob(ctx context.Context, job JobRecord) error

	JobsMissingDescription(ctx context.Context, placeholder string) ([]StoredJob, error)
	UpdateJobDescription(ctx context.Context, jobID, description string) error
	ListCompanies(ctx context.Context) ([]Company, error)
	UpdateCompanyLogo(ctx context.Context, companyID, logoURL string) error

	Close() error
}

// Notifier delivers a finished run summary somewhere a human will see it.
type Notifier interface {
	Notify(ctx context.Context, s RunSummary) error
}
