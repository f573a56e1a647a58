package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
	"github.com/cryptovalleyjobs/jobfeed/internal/normalize"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// leverCategories represents the categories object in a Lever job.
type leverCategories struct {
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	Text             string          `json:"text"`
	DescriptionPlain string          `json:"descriptionPlain"`
	Categories       leverCategories `json:"categories"`
	WorkplaceType    string          `json:"workplaceType"`
	HostedURL        string          `json:"hostedUrl"`
}

// LeverAdapter fetches jobs from the Lever public postings API.
type LeverAdapter struct {
	companySlug string
	descLimit   int
	client      *http.Client
}

// NewLeverAdapter creates a new adapter for a Lever board.
func NewLeverAdapter(companySlug string, descLimit int, client *http.Client) *LeverAdapter {
	return &LeverAdapter{
		companySlug: companySlug,
		descLimit:   descLimit,
		client:      client,
	}
}

// FetchJobs retrieves all postings from the board. The API usually answers
// with an array but single postings come back as a bare object.
func (a *LeverAdapter) FetchJobs(ctx context.Context) ([]model.Candidate, error) {
	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, a.companySlug)
	label := "lever fetch for " + a.companySlug

	var raw json.RawMessage
	if err := getJSON(ctx, a.client, url, label, &raw); err != nil {
		return nil, err
	}

	var leverJobs []leverJob
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		var single leverJob
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", label, err)
		}
		leverJobs = []leverJob{single}
	} else if err := json.Unmarshal(raw, &leverJobs); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", label, err)
	}

	candidates := make([]model.Candidate, 0, len(leverJobs))
	for _, lj := range leverJobs {
		// Prefer allLocations if available, fallback to location.
		location := lj.Categories.Location
		if len(lj.Categories.AllLocations) > 0 {
			location = strings.Join(lj.Categories.AllLocations, ", ")
		}

		candidates = append(candidates, model.Candidate{
			Title:            lj.Text,
			Location:         location,
			Description:      normalize.Truncate(lj.DescriptionPlain, a.descLimit),
			ApplyURL:         lj.HostedURL,
			JobTypeHint:      lj.Categories.Commitment,
			LocationTypeHint: lj.WorkplaceType,
			Source:           model.StrategyLever,
		})
	}

	return candidates, nil
}
