package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// whitespaceRunRegex matches runs of whitespace, including newlines
	whitespaceRunRegex = regexp.MustCompile(`\s+`)

	// headingPrefixRegex matches leading markdown heading or list markers
	headingPrefixRegex = regexp.MustCompile(`^[#>*\-\s]+`)
)

// SingleLine flattens s onto one line: control characters are dropped and
// whitespace runs, newlines included, collapse to a single space.
func SingleLine(s string) string {
	if s == "" {
		return ""
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	s = whitespaceRunRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ForMarkdownLine makes s safe to embed in a single markdown line such as
// a diary entry or daily-note marker. Leading heading, quote and list
// markers are removed so the text cannot start a new block.
func ForMarkdownLine(s string) string {
	s = SingleLine(s)
	s = headingPrefixRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
