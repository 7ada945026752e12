package chunker

import (
	"strings"
	"unicode"
)

// SplitSentences splits text into ordered, trimmed, non-empty sentence-like units.
//
// A newline always ends a unit. Within a line, a run of '.', '!' or '?' ends a
// unit when it is followed by whitespace and an uppercase letter, or by
// optional whitespace and the end of the line. Abbreviations such as "Dr. Smith"
// will over-split; that is accepted.
func SplitSentences(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		out = splitLine(out, line)
	}
	return out
}

func splitLine(out []string, line string) []string {
	runes := []rune(line)
	start := 0

	for i := 0; i < len(runes); {
		if !isTerminator(runes[i]) {
			i++
			continue
		}

		end := i
		for end < len(runes) && isTerminator(runes[end]) {
			end++
		}
		next := end
		for next < len(runes) && unicode.IsSpace(runes[next]) {
			next++
		}

		if next == len(runes) || (next > end && unicode.IsUpper(runes[next])) {
			out = appendUnit(out, string(runes[start:end]))
			start = end
		}
		i = end
	}

	return appendUnit(out, string(runes[start:]))
}

func appendUnit(out []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		out = append(out, s)
	}
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
