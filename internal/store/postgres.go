package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

// PostgresStore talks to the hosted job board database. The companies and
// jobs tables are owned by the board; this store never creates or migrates
// them.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to connString and verifies the connection.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.MaxConns = 4
	cfg.MaxConnLifetime = time.Hour
	// The Supabase pooler runs PgBouncer in transaction mode, which cannot
	// hold prepared statements across transactions.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) ExistingApplyURLs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT apply_url FROM jobs WHERE apply_url IS NOT NULL AND apply_url <> ''")
	if err != nil {
		return nil, fmt.Errorf("load apply urls: %w", err)
	}
	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("load apply urls: %w", err)
	}
	return urls, nil
}

// FindCompanyByName matches name case-insensitively and exactly; LIKE
// wildcards in the name are escaped.
func (s *PostgresStore) FindCompanyByName(ctx context.Context, name string) (model.Company, error) {
	c, err := scanCompany(s.pool.QueryRow(ctx, `
		SELECT `+companyColumns+`
		FROM companies WHERE name ILIKE $1 LIMIT 1`, escapeLike(name)))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Company{}, model.ErrCompanyNotFound
	}
	if err != nil {
		return model.Company{}, fmt.Errorf("find company %q: %w", name, err)
	}
	return c, nil
}

func (s *PostgresStore) CreateCompany(ctx context.Context, c model.Company) (model.Company, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO companies (name, slug, website)
		VALUES ($1, $2, NULLIF($3, ''))
		RETURNING id::text`, c.Name, c.Slug, c.Website).Scan(&c.ID)
	if err != nil {
		return model.Company{}, fmt.Errorf("create company %q: %w", c.Name, err)
	}
	return c, nil
}

func (s *PostgresStore) InsertJob(ctx context.Context, job model.JobRecord) error {
	tags := job.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO jobs (title, slug, description, company_id, job_type, location_type,
			location, apply_url, salary_currency, tags, status)
		VALUES ($1, $2, $3, $4::uuid, $5, $6, NULLIF($7, ''), $8, $9, $10::text[], $11)`,
		job.Title, job.Slug, job.Description, job.CompanyID, job.JobType, job.LocationType,
		job.Location, job.ApplyURL, job.SalaryCurrency, tags, job.Status)
	if err != nil {
		return fmt.Errorf("insert job %q: %w", job.Title, err)
	}
	return nil
}

func (s *PostgresStore) JobsMissingDescription(ctx context.Context, placeholder string) ([]model.StoredJob, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+storedJobColumns+`
		FROM jobs j
		LEFT JOIN companies c ON c.id = j.company_id
		WHERE j.description IS NULL OR j.description = '' OR j.description = $1
		ORDER BY j.title`, placeholder)
	if err != nil {
		return nil, fmt.Errorf("load jobs missing description: %w", err)
	}
	jobs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.StoredJob, error) {
		return scanStoredJob(row)
	})
	if err != nil {
		return nil, fmt.Errorf("load jobs missing description: %w", err)
	}
	return jobs, nil
}

func (s *PostgresStore) UpdateJobDescription(ctx context.Context, jobID, description string) error {
	tag, err := s.pool.Exec(ctx, "UPDATE jobs SET description = $1 WHERE id = $2::uuid", description, jobID)
	if err := updated(tag, err, model.ErrJobNotFound); err != nil {
		return fmt.Errorf("update description of job %s: %w", jobID, err)
	}
	return nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+companyColumns+`
		FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	companies, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Company, error) {
		return scanCompany(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

func (s *PostgresStore) UpdateCompanyLogo(ctx context.Context, companyID, logoURL string) error {
	tag, err := s.pool.Exec(ctx, "UPDATE companies SET logo_url = $1 WHERE id = $2::uuid", logoURL, companyID)
	if err := updated(tag, err, model.ErrCompanyNotFound); err != nil {
		return fmt.Errorf("update logo of company %s: %w", companyID, err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Nullable text columns come back as empty strings.
const (
	companyColumns   = `id::text, name, COALESCE(slug, ''), COALESCE(website, ''), COALESCE(logo_url, '')`
	storedJobColumns = `j.id::text, j.title, COALESCE(j.apply_url, ''), COALESCE(c.name, '')`
)

func scanCompany(row pgx.Row) (model.Company, error) {
	var c model.Company
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Website, &c.LogoURL)
	return c, err
}

func scanStoredJob(row pgx.Row) (model.StoredJob, error) {
	var j model.StoredJob
	err := row.Scan(&j.ID, &j.Title, &j.ApplyURL, &j.CompanyName)
	return j, err
}

// updated turns an UPDATE that matched no row into notFound.
func updated(tag pgconn.CommandTag, err, notFound error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
