package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cryptovalleyjobs/jobfeed/internal/extract"
	"github.com/cryptovalleyjobs/jobfeed/internal/model"
	"github.com/cryptovalleyjobs/jobfeed/internal/ratelimit"
)

var (
	// ErrUnsupportedStrategy is returned for a source type no fetcher handles.
	ErrUnsupportedStrategy = errors.New("unsupported strategy")
	// ErrNoExtractor is returned for page sources when the extraction engine
	// is unavailable.
	ErrNoExtractor = errors.New("extraction engine unavailable")
	// ErrIncompleteSource is returned when a source lacks the board or URL its
	// strategy needs.
	ErrIncompleteSource = errors.New("incomplete source")
)

// Registry builds fetchers for source registry entries.
type Registry struct {
	client    *http.Client
	extractor extract.Extractor // nil disables page strategies
	limiter   *ratelimit.StrategyRateLimiter
	descLimit int
	logger    *slog.Logger
}

// NewRegistry returns a registry. extractor and limiter may be nil.
func NewRegistry(client *http.Client, extractor extract.Extractor, limiter *ratelimit.StrategyRateLimiter, descLimit int, logger *slog.Logger) *Registry {
	return &Registry{
		client:    client,
		extractor: extractor,
		limiter:   limiter,
		descLimit: descLimit,
		logger:    logger,
	}
}

// KnownStrategy reports whether some fetcher handles the strategy.
func KnownStrategy(strategy string) bool {
	switch strategy {
	case model.StrategyGreenhouse, model.StrategyLever, model.StrategyAshby:
		return true
	}
	return IsPageStrategy(strategy)
}

// IsPageStrategy reports whether the strategy goes through the extraction engine.
func IsPageStrategy(strategy string) bool {
	return strategy == model.StrategyGeneric || strategy == model.StrategyLinkedIn
}

// Fetcher returns the fetcher for src, wrapped with rate limiting when a
// limiter is configured.
func (r *Registry) Fetcher(src model.SourceConfig) (model.JobFetcher, error) {
	var f model.JobFetcher
	switch src.Type {
	case model.StrategyGreenhouse, model.StrategyLever, model.StrategyAshby:
		if src.Board == "" {
			return nil, fmt.Errorf("%s source %q has no board: %w", src.Type, src.Company, ErrIncompleteSource)
		}
		switch src.Type {
		case model.StrategyGreenhouse:
			f = NewGreenhouseAdapter(src.Board, r.descLimit, r.client)
		case model.StrategyLever:
			f = NewLeverAdapter(src.Board, r.descLimit, r.client)
		default:
			f = NewAshbyAdapter(src.Board, r.descLimit, r.client)
		}
	case model.StrategyGeneric, model.StrategyLinkedIn:
		if src.URL == "" {
			return nil, fmt.Errorf("%s source %q has no url: %w", src.Type, src.Company, ErrIncompleteSource)
		}
		if r.extractor == nil {
			return nil, ErrNoExtractor
		}
		f = NewPageAdapter(src.URL, src.Type, src.WaitUntil, r.extractor, r.logger)
	default:
		return nil, fmt.Errorf("%q: %w", src.Type, ErrUnsupportedStrategy)
	}

	if r.limiter != nil {
		f = ratelimit.NewRateLimitedFetcher(f, r.limiter, src.Type)
	}
	return f, nil
}

// SourceURL is the URL recorded for a source: the page URL for page
// strategies, otherwise the public board address. Candidates without an apply
// URL fall back to it.
func SourceURL(src model.SourceConfig) string {
	if src.URL != "" {
		return src.URL
	}
	switch src.Type {
	case model.StrategyGreenhouse:
		return "https://boards.greenhouse.io/" + src.Board
	case model.StrategyLever:
		return "https://jobs.lever.co/" + src.Board
	case model.StrategyAshby:
		return "https://jobs.ashbyhq.com/" + src.Board
	}
	return ""
}
