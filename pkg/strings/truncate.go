package strings

import (
	"strings"
)

// DefaultSummaryMaxLen is the length error bodies are cut to when they are
// repeated in messages.
const DefaultSummaryMaxLen = 120

// MinTruncateLen is the minimum maxLen value for Summarize.
// Smaller values would not leave room for one character plus "...".
const MinTruncateLen = 4

// Summarize collapses s onto a single line and cuts it to maxLen runes,
// ending in "..." when shortened. HTML error pages returned by instances are
// reduced to their text first.
func Summarize(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(stripTags(s)), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// stripTags replaces every <...> element with a space.
func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>' && inTag:
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
