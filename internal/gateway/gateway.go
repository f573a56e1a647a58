// Package gateway maps normalized candidates onto store rows.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
	"github.com/cryptovalleyjobs/jobfeed/internal/normalize"
)

// Gateway is the only writer of pipeline output. Errors are returned to the
// caller unchanged apart from wrapping; nothing is retried.
type Gateway struct {
	store       model.Store
	slugger     *normalize.Slugger
	insertLimit int
	currency    string
}

// New returns a gateway over store. Descriptions are cut to insertLimit
// characters and every job carries currency as its salary currency.
func New(store model.Store, insertLimit int, currency string) *Gateway {
	return &Gateway{
		store:       store,
		slugger:     normalize.NewSlugger(),
		insertLimit: insertLimit,
		currency:    currency,
	}
}

// GetOrCreateCompany returns the ID of the company called name, matched
// case-insensitively, creating it with a slugified name on a miss.
func (g *Gateway) GetOrCreateCompany(ctx context.Context, name, website string) (string, error) {
	name = strings.TrimSpace(name)
	c, err := g.store.FindCompanyByName(ctx, name)
	if err == nil {
		return c.ID, nil
	}
	if !errors.Is(err, model.ErrCompanyNotFound) {
		return "", err
	}

	created, err := g.store.CreateCompany(ctx, model.Company{
		Name:    name,
		Slug:    g.slugger.Slugify(name),
		Website: website,
	})
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// Record maps a candidate onto the canonical job row.
func (g *Gateway) Record(c model.Candidate, companyID string) model.JobRecord {
	title := strings.TrimSpace(c.Title)
	return model.JobRecord{
		Title:          title,
		Slug:           g.slugger.Slugify(title),
		Description:    normalize.ClampDescription(c.Description, g.insertLimit),
		CompanyID:      companyID,
		JobType:        normalize.ClassifyJobType(c.JobTypeHint),
		LocationType:   normalize.ClassifyLocationType(c.LocationTypeHint),
		Location:       strings.TrimSpace(c.Location),
		ApplyURL:       c.ApplyURL,
		SalaryCurrency: g.currency,
		Tags:           []string{},
		Status:         model.StatusPending,
	}
}

// InsertJob writes c as a pending job of companyID.
func (g *Gateway) InsertJob(ctx context.Context, c model.Candidate, companyID string) error {
	if err := g.store.InsertJob(ctx, g.Record(c, companyID)); err != nil {
		return fmt.Errorf("persist %q: %w", c.Title, err)
	}
	return nil
}
