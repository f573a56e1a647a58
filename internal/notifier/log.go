package notifier

import (
	"context"
	"log/slog"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes the run summary to the given logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs the summary via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one line for the run plus one per failed source.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(_ context.Context, s model.RunSummary) error {
	for _, r := range s.Sources {
		if r.Err != nil {
			n.logger.Warn("source error", "company", r.Company, "strategy", r.Strategy, "error", r.Err)
		}
	}
	n.logger.Info("scrape summary",
		"run_id", s.RunID,
		"dry_run", s.DryRun,
		"sources", len(s.Sources),
		"inserted", s.Inserted(),
		"duplicates", s.Duplicates(),
		"filtered", s.Filtered(),
		"skipped", s.Skipped(),
		"errors", s.Errors(),
	)
	return nil
}

// Nop discards summaries.
type Nop struct{}

func (Nop) Notify(context.Context, model.RunSummary) error { return nil }
