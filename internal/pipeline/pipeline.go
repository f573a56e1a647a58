// Package pipeline drives one scrape run: every registered source is fetched,
// normalized, filtered, deduplicated and persisted in registry order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cryptovalleyjobs/jobfeed/internal/adapter"
	"github.com/cryptovalleyjobs/jobfeed/internal/dedup"
	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

// FetcherFactory builds the fetcher for a source.
type FetcherFactory interface {
	Fetcher(src model.SourceConfig) (model.JobFetcher, error)
}

// Persister writes accepted candidates.
type Persister interface {
	GetOrCreateCompany(ctx context.Context, name, website string) (string, error)
	InsertJob(ctx context.Context, c model.Candidate, companyID string) error
}

// Observer is told about every finished source.
type Observer interface {
	ObserveSource(r model.SourceResult)
}

// Driver owns the full scrape pipeline for a list of sources:
// fetch → normalize → filter → dedup → persist.
type Driver struct {
	sources   []model.SourceConfig
	fetchers  FetcherFactory
	filter    model.JobFilter
	gate      *dedup.Gate
	persister Persister
	observer  Observer
	dryRun    bool
	runID     string
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Driver.
type Option func(*Driver)

// WithDryRun makes the driver skip every persister call. Accepted URLs still
// enter the gate so duplicates within the run are counted.
func WithDryRun(dryRun bool) Option {
	return func(d *Driver) { d.dryRun = dryRun }
}

// WithObserver registers an observer for per-source results.
func WithObserver(o Observer) Option {
	return func(d *Driver) { d.observer = o }
}

// WithRunID tags the summary with id.
func WithRunID(id string) Option {
	return func(d *Driver) { d.runID = id }
}

// NewDriver creates a driver wired with all its dependencies. gate must already
// be seeded with the stored apply URLs.
func NewDriver(
	sources []model.SourceConfig,
	fetchers FetcherFactory,
	filter model.JobFilter,
	gate *dedup.Gate,
	persister Persister,
	logger *slog.Logger,
	opts ...Option,
) *Driver {
	d := &Driver{
		sources:   sources,
		fetchers:  fetchers,
		filter:    filter,
		gate:      gate,
		persister: persister,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run processes every source in order and returns the run summary. A failing
// source is logged and counted; the run continues with the next one. Run stops
// early only when ctx is cancelled, keeping whatever was already persisted.
func (d *Driver) Run(ctx context.Context) model.RunSummary {
	summary := model.RunSummary{
		RunID:     d.runID,
		DryRun:    d.dryRun,
		StartedAt: d.now(),
	}

	d.logger.Info("scrape started", "sources", len(d.sources), "known_urls", d.gate.Len(), "dry_run", d.dryRun)

	for _, src := range d.sources {
		if ctx.Err() != nil {
			d.logger.Warn("scrape interrupted", "remaining_from", src.Company)
			break
		}

		result := d.processSource(ctx, src)
		summary.Sources = append(summary.Sources, result)
		if d.observer != nil {
			d.observer.ObserveSource(result)
		}
	}

	summary.FinishedAt = d.now()
	d.logger.Info(fmt.Sprintf("Done: %d new jobs inserted, %d source errors", summary.Inserted(), summary.Errors()),
		"duplicates", summary.Duplicates(),
		"filtered", summary.Filtered(),
		"skipped", summary.Skipped(),
		"duration", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond).String(),
	)
	return summary
}

// processSource runs one source through the pipeline.
func (d *Driver) processSource(ctx context.Context, src model.SourceConfig) model.SourceResult {
	result := model.SourceResult{Company: src.Company, Strategy: src.Type}
	log := d.logger.With("company", src.Company, "strategy", src.Type)

	fetcher, err := d.fetchers.Fetcher(src)
	if err != nil {
		if errors.Is(err, adapter.ErrUnsupportedStrategy) ||
			errors.Is(err, adapter.ErrNoExtractor) ||
			errors.Is(err, adapter.ErrIncompleteSource) {
			log.Warn("skipping source", "reason", err)
			result.Skipped = true
			return result
		}
		result.Err = fmt.Errorf("build fetcher for %s: %w", src.Company, err)
		log.Error("source failed", "error", result.Err)
		return result
	}

	candidates, err := fetcher.FetchJobs(ctx)
	if err != nil {
		result.Err = fmt.Errorf("fetch %s: %w", src.Company, err)
		log.Error("source failed", "error", result.Err)
		return result
	}
	result.Found = len(candidates)

	fallbackURL := adapter.SourceURL(src)
	companyID := ""
	for _, c := range candidates {
		if ctx.Err() != nil {
			result.Err = fmt.Errorf("process %s: %w", src.Company, ctx.Err())
			break
		}

		if strings.TrimSpace(c.Title) == "" {
			log.Debug("dropping candidate without title", "apply_url", c.ApplyURL)
			result.Filtered++
			continue
		}
		if c.ApplyURL == "" {
			c.ApplyURL = fallbackURL
		}

		if d.gate.Contains(c.ApplyURL) {
			result.Duplicates++
			continue
		}
		if !d.filter.Eligible(c) {
			log.Debug("outside target region", "title", c.Title, "location", c.Location)
			result.Filtered++
			continue
		}

		if d.dryRun {
			log.Info("would insert", "title", c.Title, "location", c.Location, "apply_url", c.ApplyURL)
		} else {
			if companyID == "" {
				companyID, err = d.persister.GetOrCreateCompany(ctx, src.Company, src.Website)
				if err != nil {
					result.Err = fmt.Errorf("company %s: %w", src.Company, err)
					break
				}
			}
			if err := d.persister.InsertJob(ctx, c, companyID); err != nil {
				result.Err = fmt.Errorf("insert into %s: %w", src.Company, err)
				break
			}
			log.Info("inserted job", "title", c.Title, "apply_url", c.ApplyURL)
		}

		d.gate.Accept(c.ApplyURL)
		result.New++
	}

	if result.Err != nil {
		log.Error("source failed", "error", result.Err, "new_before_failure", result.New)
		return result
	}

	log.Info("processed source",
		"found", result.Found,
		"new", result.New,
		"duplicates", result.Duplicates,
		"filtered", result.Filtered,
	)
	return result
}
