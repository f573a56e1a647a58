package filter

import (
	"strings"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

// SwissKeywords is the default target-region keyword set: country names in the
// national languages plus the larger cities. Some entries are also ordinary
// words, so matches are a heuristic and land in the pending queue for review.
var SwissKeywords = []string{
	"switzerland", "swiss", "schweiz", "suisse", "svizzera",
	"zurich", "zürich", "zug", "geneva", "genève", "geneve",
	"basel", "bern", "lausanne", "lugano", "winterthur",
	"st. gallen", "st gallen", "lucerne", "luzern", "biel",
	"thun", "köniz", "aarau", "chur", "neuchâtel", "neuchatel",
	"schaffhausen", "fribourg", "crypto valley",
}

// GeoFilter accepts candidates that are remote or located in the target region.
type GeoFilter struct {
	keywords []string
}

// NewGeoFilter returns a filter over the given region keywords. An empty list
// falls back to SwissKeywords.
func NewGeoFilter(keywords []string) *GeoFilter {
	if len(keywords) == 0 {
		keywords = SwissKeywords
	}
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return &GeoFilter{keywords: lowered}
}

// Eligible reports whether c is remote or located in the target region.
// Checked in order: the location type hint, "remote" in the location text, then
// a substring match of the location text against the region keywords.
func (f *GeoFilter) Eligible(c model.Candidate) bool {
	if strings.Contains(strings.ToLower(c.LocationTypeHint), "remote") {
		return true
	}

	location := strings.ToLower(c.Location)
	if strings.Contains(location, "remote") {
		return true
	}

	for _, kw := range f.keywords {
		if strings.Contains(location, kw) {
			return true
		}
	}
	return false
}
