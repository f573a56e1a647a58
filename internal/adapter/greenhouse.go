package adapter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
	"github.com/cryptovalleyjobs/jobfeed/internal/normalize"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	Content     string             `json:"content"` // HTML-escaped HTML
	AbsoluteURL string             `json:"absolute_url"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches jobs from the Greenhouse public boards API.
type GreenhouseAdapter struct {
	boardToken string
	descLimit  int
	client     *http.Client
}

// NewGreenhouseAdapter creates a new adapter for a Greenhouse board.
// Descriptions are cut to descLimit characters.
func NewGreenhouseAdapter(boardToken string, descLimit int, client *http.Client) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		boardToken: boardToken,
		descLimit:  descLimit,
		client:     client,
	}
}

// FetchJobs retrieves all jobs with their content from the board.
func (a *GreenhouseAdapter) FetchJobs(ctx context.Context) ([]model.Candidate, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, a.boardToken)

	var ghResp greenhouseResponse
	if err := getJSON(ctx, a.client, url, "greenhouse fetch for "+a.boardToken, &ghResp); err != nil {
		return nil, err
	}

	candidates := make([]model.Candidate, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		candidates = append(candidates, model.Candidate{
			Title:       gj.Title,
			Location:    gj.Location.Name,
			Description: normalize.Truncate(normalize.StripHTML(gj.Content), a.descLimit),
			ApplyURL:    gj.AbsoluteURL,
			Source:      model.StrategyGreenhouse,
		})
	}

	return candidates, nil
}
