package notifier

import (
	"fmt"
	"strings"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

// headline is the one-line outcome shared by the chat notifiers.
func headline(s model.RunSummary) string {
	prefix := "jobfeed scrape"
	if s.DryRun {
		prefix += " (dry run)"
	}
	return fmt.Sprintf("%s: %d new jobs inserted, %d source errors", prefix, s.Inserted(), s.Errors())
}

// failures lists "company (strategy): error" for every failed source.
func failures(s model.RunSummary) []string {
	var out []string
	for _, r := range s.Sources {
		if r.Err != nil {
			out = append(out, fmt.Sprintf("%s (%s): %v", r.Company, r.Strategy, r.Err))
		}
	}
	return out
}

func counts(s model.RunSummary) string {
	return fmt.Sprintf("sources %d · duplicates %d · filtered %d · skipped %d",
		len(s.Sources), s.Duplicates(), s.Filtered(), s.Skipped())
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func bulletList(lines []string) string {
	return "• " + strings.Join(lines, "\n• ")
}
