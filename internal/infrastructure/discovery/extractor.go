package discovery

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var parenExpr = regexp.MustCompile(`（[^）]*）|\([^)]*\)`)

// extractTitle pulls the item title from a parsed discovery page,
// preferring the structured og:title field over the document title.
func extractTitle(doc *goquery.Document) string {
	if meta, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if title := strings.TrimSpace(meta); title != "" {
			return title
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// cleanTitle strips the site-suffix marker and parenthetical annotations
// (edition and format notes) from an extracted title.
func cleanTitle(title, suffixMarker string) string {
	if suffixMarker != "" {
		if idx := strings.Index(title, suffixMarker); idx >= 0 {
			title = title[:idx]
		}
	}
	title = parenExpr.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// usableTitle rejects candidates too short to search with, or titles that
// are just the site's own name.
func usableTitle(title, siteName string) bool {
	if utf8.RuneCountInString(title) < 2 {
		return false
	}
	return title != siteName
}

// containsDenyPhrase checks the page's visible text for category phrases
// that mark a non-picture-book item.
func containsDenyPhrase(doc *goquery.Document, phrases []string) bool {
	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}
	for _, phrase := range phrases {
		if phrase != "" && strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
