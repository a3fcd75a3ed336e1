package query

import (
	"regexp"
	"unicode/utf8"

	"github.com/richardwooding/spurs-feed-mcp/parser"
)

// SnippetRadius is the number of runes kept on each side of the first match.
const SnippetRadius = 100

// Snippet returns the text around the first case-insensitive occurrence of
// keyword, with every occurrence in the window wrapped in ** and "..." where
// text was cut. Without a match the start of text is returned.
func Snippet(text, keyword string, radius int) string {
	if keyword == "" {
		return parser.Truncate(text, 2*radius)
	}

	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(keyword))
	loc := re.FindStringIndex(text)
	if loc == nil {
		return parser.Truncate(text, 2*radius)
	}

	from := loc[0]
	for n := 0; n < radius && from > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}
	to := loc[1]
	for n := 0; n < radius && to < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}

	out := re.ReplaceAllString(text[from:to], "**${0}**")
	if from > 0 {
		out = "..." + out
	}
	if to < len(text) {
		out += "..."
	}
	return out
}
