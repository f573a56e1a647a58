// Package logos fills in missing company logos from a favicon service.
package logos

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

// DefaultFaviconURL is Google's favicon service at 128px.
const DefaultFaviconURL = "https://www.google.com/s2/favicons?domain={domain}&sz=128"

// Store is the slice of the company store the logo job needs.
type Store interface {
	ListCompanies(ctx context.Context) ([]model.Company, error)
	UpdateCompanyLogo(ctx context.Context, companyID, logoURL string) error
}

// Resolver runs one logo pass.
type Resolver struct {
	store      Store
	client     *http.Client
	faviconURL string
	overrides  map[string]string
	logger     *slog.Logger
	now        func() time.Time
}

// New returns a resolver. faviconURL must contain the {domain} placeholder;
// overrides maps company slugs to the domain to use instead of the website's.
func New(store Store, client *http.Client, faviconURL string, overrides map[string]string, logger *slog.Logger) *Resolver {
	if faviconURL == "" {
		faviconURL = DefaultFaviconURL
	}
	return &Resolver{
		store:      store,
		client:     client,
		faviconURL: faviconURL,
		overrides:  overrides,
		logger:     logger,
		now:        time.Now,
	}
}

// Domain extracts the host from a website value that may lack a scheme.
// Returns "" when nothing usable is left.
func Domain(website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}
	if !strings.Contains(website, "://") {
		website = "https://" + website
	}
	u, err := url.Parse(website)
	if err != nil {
		return ""
	}
	if u.Host != "" {
		return u.Host
	}
	first, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	return first
}

// FaviconURL fills the template with domain.
func (r *Resolver) FaviconURL(domain string) string {
	return strings.ReplaceAll(r.faviconURL, "{domain}", domain)
}

// Run gives every company without a logo the favicon of its domain, once the
// favicon service confirms it serves an image. Companies that already have a
// logo are skipped; unresolvable ones are counted as failed.
func (r *Resolver) Run(ctx context.Context) (model.JobReport, error) {
	report := model.JobReport{Job: "logos", StartedAt: r.now()}

	companies, err := r.store.ListCompanies(ctx)
	if err != nil {
		return report, fmt.Errorf("list companies for logos: %w", err)
	}
	r.logger.Info(fmt.Sprintf("Found %d companies", len(companies)))

	for _, co := range companies {
		if ctx.Err() != nil {
			r.logger.Warn("logo job interrupted")
			break
		}
		log := r.logger.With("company", co.Name)

		if co.LogoURL != "" {
			log.Debug("skip, already has logo")
			report.Skipped++
			continue
		}

		domain := r.overrides[co.Slug]
		if domain == "" {
			domain = Domain(co.Website)
		}
		if domain == "" {
			log.Warn("no website or override")
			report.Failed++
			continue
		}

		logo := r.FaviconURL(domain)
		if err := r.verify(ctx, logo); err != nil {
			log.Warn("no valid favicon", "domain", domain, "error", err)
			report.Failed++
			continue
		}

		if err := r.store.UpdateCompanyLogo(ctx, co.ID, logo); err != nil {
			log.Error("update failed", "error", err)
			report.Failed++
			continue
		}
		log.Info("logo updated", "logo_url", logo)
		report.Updated++
	}

	report.FinishedAt = r.now()
	r.logger.Info(fmt.Sprintf("Done: %d updated, %d skipped, %d failed", report.Updated, report.Skipped, report.Failed))
	return report, nil
}

// verify fetches logo, following redirects, and requires a 200 image response.
func (r *Resolver) verify(ctx context.Context, logo string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, logo, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch favicon: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &model.HTTPError{StatusCode: resp.StatusCode}
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "image") {
		return fmt.Errorf("content type %q is not an image", ct)
	}
	return nil
}
