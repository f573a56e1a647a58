package adapter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
	"github.com/cryptovalleyjobs/jobfeed/internal/normalize"
)

const ashbyBaseURL = "https://api.ashbyhq.com/posting-api/job-board"

// ashbyJob represents a single job in the Ashby API response.
type ashbyJob struct {
	Title           string `json:"title"`
	Location        string `json:"location"`
	DescriptionHTML string `json:"descriptionHtml"`
	JobURL          string `json:"jobUrl"`
	ApplyURL        string `json:"applyUrl"`
	EmploymentType  string `json:"employmentType"`
	WorkplaceType   string `json:"workplaceType"`
	IsRemote        bool   `json:"isRemote"`
	IsListed        *bool  `json:"isListed"`
}

// ashbyResponse is the top-level Ashby job board API response.
type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

// AshbyAdapter fetches jobs from the Ashby public job board API.
type AshbyAdapter struct {
	boardToken string
	descLimit  int
	client     *http.Client
}

// NewAshbyAdapter creates a new adapter for an Ashby job board.
func NewAshbyAdapter(boardToken string, descLimit int, client *http.Client) *AshbyAdapter {
	return &AshbyAdapter{
		boardToken: boardToken,
		descLimit:  descLimit,
		client:     client,
	}
}

// FetchJobs retrieves all listed jobs from the board. Postings explicitly
// marked unlisted are dropped.
func (a *AshbyAdapter) FetchJobs(ctx context.Context) ([]model.Candidate, error) {
	url := fmt.Sprintf("%s/%s", ashbyBaseURL, a.boardToken)

	var ashbyResp ashbyResponse
	if err := getJSON(ctx, a.client, url, "ashby fetch for "+a.boardToken, &ashbyResp); err != nil {
		return nil, err
	}

	candidates := make([]model.Candidate, 0, len(ashbyResp.Jobs))
	for _, aj := range ashbyResp.Jobs {
		if aj.IsListed != nil && !*aj.IsListed {
			continue
		}

		applyURL := aj.JobURL
		if applyURL == "" {
			applyURL = aj.ApplyURL
		}
		locationType := aj.WorkplaceType
		if aj.IsRemote {
			locationType = model.LocationTypeRemote
		}

		candidates = append(candidates, model.Candidate{
			Title:            aj.Title,
			Location:         aj.Location,
			Description:      normalize.Truncate(normalize.StripHTML(aj.DescriptionHTML), a.descLimit),
			ApplyURL:         applyURL,
			JobTypeHint:      aj.EmploymentType,
			LocationTypeHint: locationType,
			Source:           model.StrategyAshby,
		})
	}

	return candidates, nil
}
