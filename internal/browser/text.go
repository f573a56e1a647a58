package browser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cryptovalleyjobs/jobfeed/internal/normalize"
)

const blockSelectors = "p, div, li, tr, br, h1, h2, h3, h4, h5, h6, section, article, header, footer"

// PageText reduces rendered HTML to line-oriented text for the model. Links
// keep their absolute target in parentheses so apply URLs survive the
// reduction. The result is cut to maxChars runes; maxChars <= 0 means no limit.
func PageText(html, pageURL string, maxChars int) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript, svg, iframe, template").Remove()

	base, _ := url.Parse(pageURL)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		abs := resolve(base, href)
		if abs == "" {
			return
		}
		s.SetText(strings.TrimSpace(s.Text()) + " (" + abs + ")")
	})

	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var lines []string
	for _, line := range strings.Split(root.Text(), "\n") {
		if collapsed := strings.Join(strings.Fields(line), " "); collapsed != "" {
			lines = append(lines, collapsed)
		}
	}

	text := strings.Join(lines, "\n")
	if maxChars > 0 {
		text = normalize.Truncate(text, maxChars)
	}
	return text, nil
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
