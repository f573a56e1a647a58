package adapter

import (
	"context"
	"log/slog"

	"github.com/cryptovalleyjobs/jobfeed/internal/extract"
	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

// JobListingInstruction asks the extraction engine for every posting on a
// careers page.
const JobListingInstruction = `Extract all job listings from this careers page. For each job extract:
title (required), location, job_type (full-time, part-time, contract or internship),
location_type (remote, onsite or hybrid), apply_url (the direct link to the posting or
application) and description (a brief summary). Only extract actual job postings, not
navigation links, blog posts or other content. Return an empty list when there are none.`

// PageAdapter fetches jobs from an arbitrary careers page (generic) or a
// company jobs page on LinkedIn through the extraction engine.
type PageAdapter struct {
	url       string
	strategy  string
	waitUntil string
	extractor extract.Extractor
	logger    *slog.Logger
}

// NewPageAdapter creates a page adapter for url. strategy is recorded on every
// candidate. waitUntil is the page readiness condition; empty leaves it to the
// loader.
func NewPageAdapter(url, strategy, waitUntil string, extractor extract.Extractor, logger *slog.Logger) *PageAdapter {
	return &PageAdapter{
		url:       url,
		strategy:  strategy,
		waitUntil: waitUntil,
		extractor: extractor,
		logger:    logger,
	}
}

// FetchJobs extracts listings from the page. An engine failure or unusable
// output yields zero candidates without an error; only context cancellation
// is reported.
func (a *PageAdapter) FetchJobs(ctx context.Context) ([]model.Candidate, error) {
	raw, err := a.extractor.Extract(ctx, extract.Request{
		URL:         a.url,
		Instruction: JobListingInstruction,
		SchemaName:  "job_listings",
		Schema:      extract.JobListSchema(),
		WaitUntil:   a.waitUntil,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		a.logger.Warn("page extraction failed", "url", a.url, "strategy", a.strategy, "error", err)
		return nil, nil
	}

	listings := extract.ParseJobListings(raw)
	candidates := make([]model.Candidate, 0, len(listings))
	for _, l := range listings {
		candidates = append(candidates, model.Candidate{
			Title:            l.Title,
			Location:         l.Location,
			Description:      l.Description,
			ApplyURL:         l.ApplyURL,
			JobTypeHint:      l.JobType,
			LocationTypeHint: l.LocationType,
			Source:           a.strategy,
		})
	}
	return candidates, nil
}
