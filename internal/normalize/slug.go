package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugger builds URL-safe identifiers with a time-based uniqueness suffix.
// The suffix is strictly increasing within a process, so two slugs for the same
// text never collide even inside one clock tick.
type Slugger struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewSlugger returns a Slugger reading the wall clock.
func NewSlugger() *Slugger {
	return &Slugger{now: time.Now}
}

var defaultSlugger = NewSlugger()

// Slugify slugs text with the process-wide Slugger.
func Slugify(text string) string {
	return defaultSlugger.Slugify(text)
}

// Slugify lowercases text, folds diacritics, collapses every run of
// non-alphanumerics into one hyphen, trims hyphens and appends a hex suffix.
func (s *Slugger) Slugify(text string) string {
	base := Base(text)
	suffix := s.suffix()
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// Base is the slug body without the uniqueness suffix.
func Base(text string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), text)
	if err != nil {
		folded = text
	}
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(folded), "-"), "-")
}

func (s *Slugger) suffix() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.now().UnixNano()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return strconv.FormatInt(n, 16)
}
