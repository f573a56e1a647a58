package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

// SQLiteStore is a local stand-in for the hosted database, used for dry
// experiments and tests. Unlike PostgresStore it owns its schema.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	slug       TEXT NOT NULL,
	website    TEXT,
	logo_url   TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS jobs (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	slug            TEXT NOT NULL,
	description     TEXT,
	company_id      TEXT NOT NULL REFERENCES companies(id),
	job_type        TEXT NOT NULL,
	location_type   TEXT NOT NULL,
	location        TEXT,
	apply_url       TEXT,
	salary_currency TEXT,
	tags            TEXT NOT NULL DEFAULT '[]',
	status          TEXT NOT NULL,
	created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS jobs_apply_url ON jobs(apply_url);`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the companies and jobs tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) ExistingApplyURLs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT apply_url FROM jobs WHERE apply_url IS NOT NULL AND apply_url <> ''")
	if err != nil {
		return nil, fmt.Errorf("load apply urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("load apply urls: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// FindCompanyByName matches name case-insensitively. SQLite's LOWER only
// folds ASCII letters.
func (s *SQLiteStore) FindCompanyByName(ctx context.Context, name string) (model.Company, error) {
	var (
		c                model.Company
		website, logoURL sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, slug, website, logo_url FROM companies WHERE LOWER(name) = LOWER(?) LIMIT 1", name).
		Scan(&c.ID, &c.Name, &c.Slug, &website, &logoURL)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Company{}, model.ErrCompanyNotFound
	}
	if err != nil {
		return model.Company{}, fmt.Errorf("find company %q: %w", name, err)
	}
	c.Website = website.String
	c.LogoURL = logoURL.String
	return c, nil
}

func (s *SQLiteStore) CreateCompany(ctx context.Context, c model.Company) (model.Company, error) {
	c.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO companies (id, name, slug, website, logo_url) VALUES (?, ?, ?, NULLIF(?, ''), NULLIF(?, ''))",
		c.ID, c.Name, c.Slug, c.Website, c.LogoURL)
	if err != nil {
		return model.Company{}, fmt.Errorf("create company %q: %w", c.Name, err)
	}
	return c, nil
}

func (s *SQLiteStore) InsertJob(ctx context.Context, job model.JobRecord) error {
	tags := job.Tags
	if tags == nil {
		tags = []string{}
	}
	encodedTags, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, title, slug, description, company_id, job_type, location_type,
			location, apply_url, salary_currency, tags, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?)`,
		uuid.NewString(), job.Title, job.Slug, job.Description, job.CompanyID, job.JobType, job.LocationType,
		job.Location, job.ApplyURL, job.SalaryCurrency, string(encodedTags), job.Status)
	if err != nil {
		return fmt.Errorf("insert job %q: %w", job.Title, err)
	}
	return nil
}

func (s *SQLiteStore) JobsMissingDescription(ctx context.Context, placeholder string) ([]model.StoredJob, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT j.id, j.title, COALESCE(j.apply_url, ''), COALESCE(c.name, '')
		FROM jobs j
		LEFT JOIN companies c ON c.id = j.company_id
		WHERE j.description IS NULL OR j.description = '' OR j.description = ?
		ORDER BY j.title`, placeholder)
	if err != nil {
		return nil, fmt.Errorf("load jobs missing description: %w", err)
	}
	defer rows.Close()

	var jobs []model.StoredJob
	for rows.Next() {
		var j model.StoredJob
		if err := rows.Scan(&j.ID, &j.Title, &j.ApplyURL, &j.CompanyName); err != nil {
			return nil, fmt.Errorf("load jobs missing description: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *SQLiteStore) UpdateJobDescription(ctx context.Context, jobID, description string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE jobs SET description = ? WHERE id = ?", description, jobID)
	if err != nil {
		return fmt.Errorf("update description of job %s: %w", jobID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update description of job %s: %w", jobID, model.ErrJobNotFound)
	}
	return nil
}

func (s *SQLiteStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, slug, website, logo_url FROM companies ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		var (
			c                model.Company
			website, logoURL sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &website, &logoURL); err != nil {
			return nil, fmt.Errorf("list companies: %w", err)
		}
		c.Website = website.String
		c.LogoURL = logoURL.String
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (s *SQLiteStore) UpdateCompanyLogo(ctx context.Context, companyID, logoURL string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE companies SET logo_url = ? WHERE id = ?", logoURL, companyID)
	if err != nil {
		return fmt.Errorf("update logo of company %s: %w", companyID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update logo of company %s: %w", companyID, model.ErrCompanyNotFound)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
