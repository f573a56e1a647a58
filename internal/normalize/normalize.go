// Package normalize coerces heterogeneous fetcher output into the values the
// jobs table accepts. Every function here is pure and total.
package normalize

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

// ClassifyJobType maps a free-text employment hint onto the closed job type set.
func ClassifyJobType(hint string) string {
	h := strings.ToLower(hint)
	switch {
	case h == "":
		return model.JobTypeFullTime
	case strings.Contains(h, "part"):
		return model.JobTypePartTime
	case strings.Contains(h, "contract"), strings.Contains(h, "freelance"):
		return model.JobTypeContract
	case strings.Contains(h, "intern"):
		return model.JobTypeInternship
	default:
		return model.JobTypeFullTime
	}
}

// ClassifyLocationType maps a free-text workplace hint onto the closed location
// type set.
func ClassifyLocationType(hint string) string {
	h := strings.ToLower(hint)
	switch {
	case h == "":
		return model.LocationTypeHybrid
	case strings.Contains(h, "remote"):
		return model.LocationTypeRemote
	case strings.Contains(h, "onsite"), strings.Contains(h, "on-site"), strings.Contains(h, "office"):
		return model.LocationTypeOnsite
	default:
		return model.LocationTypeHybrid
	}
}

// ClampDescription trims text and cuts it to at most limit characters. Empty
// input yields the placeholder sentence. A limit <= 0 disables truncation.
func ClampDescription(text string, limit int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		text = model.PlaceholderDescription
	}
	return Truncate(text, limit)
}

// Truncate cuts s to at most limit runes. A limit <= 0 returns s unchanged.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// StripHTML converts an HTML or HTML-encoded string to plain text.
// Entities are unescaped first so Greenhouse's double-encoded content becomes
// real markup before the tags are removed, then once more for the entities
// that were inside that markup.
func StripHTML(content string) string {
	unescaped := html.UnescapeString(content)
	plain := html.UnescapeString(htmlTagRegex.ReplaceAllString(unescaped, " "))
	return strings.Join(strings.Fields(plain), " ")
}
