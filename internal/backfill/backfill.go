// Package backfill revisits stored job postings whose description is missing
// or still the placeholder and fills in the full text.
package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cryptovalleyjobs/jobfeed/internal/extract"
	"github.com/cryptovalleyjobs/jobfeed/internal/model"
	"github.com/cryptovalleyjobs/jobfeed/internal/normalize"
)

// DescriptionInstruction asks for the full posting text as one JSON field.
const DescriptionInstruction = `Extract the FULL job description from this job posting page.
Include:
- Role summary / overview
- Responsibilities and duties
- Requirements and qualifications
- Nice-to-haves (if listed)
- Benefits and perks (if listed)

Return a JSON object with a single key "description" containing the complete
job description as clean text (no HTML). Preserve paragraph breaks with newlines.
If no job description is found, return {"description": null}.`

// minDescriptionChars is the shortest text accepted as a real description.
const minDescriptionChars = 30

// Store is the slice of the job store the backfill needs.
type Store interface {
	JobsMissingDescription(ctx context.Context, placeholder string) ([]model.StoredJob, error)
	UpdateJobDescription(ctx context.Context, jobID, description string) error
}

// Waiter throttles page loads.
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

// Backfiller runs one backfill pass.
type Backfiller struct {
	store     Store
	extractor extract.Extractor
	limit     int
	waiter    Waiter
	logger    *slog.Logger
	now       func() time.Time
}

// New returns a backfiller storing descriptions of at most limit characters.
// waiter may be nil.
func New(store Store, extractor extract.Extractor, limit int, waiter Waiter, logger *slog.Logger) *Backfiller {
	return &Backfiller{
		store:     store,
		extractor: extractor,
		limit:     limit,
		waiter:    waiter,
		logger:    logger,
		now:       time.Now,
	}
}

// Run processes every job missing a description, one at a time. A job whose
// page yields nothing usable is counted as failed and left unchanged. Only the
// initial query aborts the run.
func (b *Backfiller) Run(ctx context.Context) (model.JobReport, error) {
	report := model.JobReport{Job: "backfill", StartedAt: b.now()}

	jobs, err := b.store.JobsMissingDescription(ctx, model.PlaceholderDescription)
	if err != nil {
		return report, fmt.Errorf("select jobs for backfill: %w", err)
	}
	b.logger.Info(fmt.Sprintf("Found %d jobs needing descriptions", len(jobs)))

	for i, job := range jobs {
		if ctx.Err() != nil {
			b.logger.Warn("backfill interrupted", "remaining", len(jobs)-i)
			break
		}

		log := b.logger.With("job_id", job.ID, "company", job.CompanyName, "title", job.Title)
		log.Info(fmt.Sprintf("[%d/%d] %s: %s", i+1, len(jobs), job.CompanyName, job.Title))

		desc, err := b.describe(ctx, job)
		if err != nil {
			log.Warn("extraction failed", "error", err)
			report.Failed++
			continue
		}
		if desc == "" {
			log.Warn("skip, no description extracted")
			report.Failed++
			continue
		}

		if err := b.store.UpdateJobDescription(ctx, job.ID, desc); err != nil {
			log.Error("update failed", "error", err)
			report.Failed++
			continue
		}
		log.Info("description updated", "chars", utf8.RuneCountInString(desc))
		report.Updated++
	}

	report.FinishedAt = b.now()
	b.logger.Info(fmt.Sprintf("Done: %d updated, %d failed", report.Updated, report.Failed))
	return report, nil
}

// describe extracts and validates the description of one job. An empty result
// means nothing usable was found.
func (b *Backfiller) describe(ctx context.Context, job model.StoredJob) (string, error) {
	if strings.TrimSpace(job.ApplyURL) == "" {
		return "", nil
	}
	if b.waiter != nil {
		if err := b.waiter.Wait(ctx, "backfill"); err != nil {
			return "", err
		}
	}

	raw, err := b.extractor.Extract(ctx, extract.Request{
		URL:         job.ApplyURL,
		Instruction: DescriptionInstruction,
		SchemaName:  "job_description",
		Schema:      extract.DescriptionSchema(),
	})
	if err != nil {
		return "", err
	}

	desc := extract.ParseDescription(raw)
	if utf8.RuneCountInString(desc) <= minDescriptionChars {
		return "", nil
	}
	return normalize.Truncate(desc, b.limit), nil
}
