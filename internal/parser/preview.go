package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PreviewLength is the number of characters kept for list-view previews.
const PreviewLength = 300

// Preview returns a short plain-text excerpt of snapshot content.
// HTML snapshots are reduced to their text first; plain text is used as is.
func Preview(content string, limit int) string {
	text := content
	if looksLikeHTML(content) {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
			doc.Find("script, style, noscript").Remove()
			text = doc.Text()
		}
	}

	runes := []rune(text)
	if len(runes) > limit {
		runes = runes[:limit]
	}

	return strings.TrimSpace(string(runes))
}

func looksLikeHTML(s string) bool {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "<") {
		return false
	}

	lower := strings.ToLower(trimmed)

	return strings.HasPrefix(lower, "<!doctype") || strings.Contains(lower, "<html") ||
		strings.Contains(lower, "<body") || strings.Contains(lower, "<div") || strings.Contains(lower, "<p")
}
