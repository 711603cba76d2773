package match

import (
	"strings"
	"unicode"
)

// Normalize lowercases s, collapses whitespace runs to one space and trims.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// NormalizePDF is Normalize after dropping everything except letters
// (CJK included), digits, combining marks and whitespace.
func NormalizePDF(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return Normalize(b.String())
}

func (s Substrate) normalize(text string) string {
	if s == PDF {
		return NormalizePDF(text)
	}
	return Normalize(text)
}

// Contains is the bidirectional containment predicate on already-normalized
// strings. Empty strings never match.
func Contains(unit, keyword string) bool {
	if unit == "" || keyword == "" {
		return false
	}
	return strings.Contains(unit, keyword) || strings.Contains(keyword, unit)
}

// subset reports whether every non-space rune of keyword occurs in unit.
func subset(unit, keyword string) bool {
	if unit == "" {
		return false
	}
	have := make(map[rune]struct{}, len(unit))
	for _, r := range unit {
		have[r] = struct{}{}
	}
	qualifying := 0
	for _, r := range keyword {
		if unicode.IsSpace(r) {
			continue
		}
		qualifying++
		if _, ok := have[r]; !ok {
			return false
		}
	}
	return qualifying > 0
}
