package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultExcerptRunes is how much of a document the mind-map prompt carries.
const DefaultExcerptRunes = 3000

// Excerpt returns at most maxRunes runes from the start of text. When the cut
// falls mid-paragraph it backs up to the last paragraph, line or sentence
// boundary, provided that keeps at least three quarters of the budget.
func Excerpt(text string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = DefaultExcerptRunes
	}
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	cut := truncateRunes(text, maxRunes)
	floor := len(cut) * 3 / 4
	for _, sep := range []string{"\n\n", "\n"} {
		if i := strings.LastIndex(cut, sep); i >= floor {
			return strings.TrimRight(cut[:i], " \t\r\n")
		}
	}
	if i := lastSentenceEnd(cut); i >= floor {
		return cut[:i]
	}
	return cut
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// lastSentenceEnd returns the byte offset just past the last sentence
// terminator in s, or -1.
func lastSentenceEnd(s string) int {
	end := -1
	for i, r := range s {
		switch r {
		case '。', '！', '？', '.', '!', '?':
			end = i + utf8.RuneLen(r)
		}
	}
	return end
}

// SplitParagraphs splits on blank lines and drops empty paragraphs.
func SplitParagraphs(text string) []string {
	var result []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// FirstLines returns up to n trimmed, non-empty lines of text.
func FirstLines(text string, n int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if len(out) == n {
			break
		}
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
