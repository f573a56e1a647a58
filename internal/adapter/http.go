package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

const userAgent = "jobfeed/1.0 (+https://cryptovalleyjobs.com)"

// getJSON performs a GET and decodes a JSON body into v. A status outside 2xx
// becomes a *model.HTTPError; label prefixes every error.
func getJSON(ctx context.Context, client *http.Client, url, label string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s: unexpected status %d", label, resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: decode: %w", label, err)
	}
	return nil
}
