package parser

import (
	"regexp"

	"github.com/Houeta/chrono-dash/internal/models"
	"github.com/google/uuid"
)

// MessageParser extracts structured fields from a notification message.
type MessageParser interface {
	Parse(message string) models.MessageFields
}

var (
	watchURLRe = regexp.MustCompile(`\[Watch URL\]\(([^)]+)\)`)
	diffURLRe  = regexp.MustCompile(`\[Diff URL\]\(([^)]+)\)`)
	editURLRe  = regexp.MustCompile(`\[Edit\]\(([^)]+)\)`)
	oldValueRe = regexp.MustCompile(`(?s)<del>(.*?)</del>`)
	newValueRe = regexp.MustCompile(`(?s)</del>\s*\*\*(.*?)\*\*`)
	watchIDRe  = regexp.MustCompile(`/(?:edit|diff|preview)/([^/?#]+)`)
)

// RegexParser pulls links and old/new values out of changedetection.io's
// markdown-like notification body. Every field is best-effort: a pattern
// that does not match leaves the field empty.
type RegexParser struct{}

// NewRegexParser returns the default message parser.
func NewRegexParser() *RegexParser {
	return &RegexParser{}
}

// Parse implements MessageParser.
func (RegexParser) Parse(message string) models.MessageFields {
	fields := models.MessageFields{
		WatchURL: firstGroup(watchURLRe, message),
		DiffURL:  firstGroup(diffURLRe, message),
		EditURL:  firstGroup(editURLRe, message),
		OldValue: firstGroup(oldValueRe, message),
		NewValue: firstGroup(newValueRe, message),
	}
	fields.WatcherUUID = watchID(fields.EditURL, fields.DiffURL)

	return fields
}

// watchID returns the first link segment after /edit/, /diff/ or /preview/ that is a valid UUID.
func watchID(links ...string) string {
	for _, link := range links {
		id, err := uuid.Parse(firstGroup(watchIDRe, link))
		if err == nil {
			return id.String()
		}
	}

	return ""
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 { //nolint:mnd // full match plus one group
		return ""
	}

	return m[1]
}
