// Package highlight applies keyword emphasis to the two document substrates:
// plain text is segmented into marked and unmarked runs, and PDF text-layer
// fragments are restyled in place.
package highlight

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/dgallion1/docmind/internal/match"
)

// Segment is a run of the displayed text.
type Segment struct {
	Text    string `json:"text"`
	Matched bool   `json:"matched"`
	// Pulse is set only on the first matched segment of the document.
	Pulse bool `json:"pulse,omitempty"`
}

// PlainView is the highlighted rendering of a plain-text document.
type PlainView struct {
	Segments []Segment `json:"segments"`
	Matches  int       `json:"matches"`
	// First is the index of the first matched segment, or -1.
	First int `json:"first"`
}

// SegmentText splits text at keyword occurrences and flags each run with the
// bidirectional containment predicate. The result depends only on text and
// keywords; a failure is logged to log and degrades to one unmatched segment.
func SegmentText(text string, keywords []string, log *slog.Logger) (view PlainView) {
	defer func() {
		if r := recover(); r != nil {
			if log == nil {
				log = slog.Default()
			}
			log.Error("plain text highlight failed", "error", fmt.Sprint(r), "keywords", keywords)
			view = unhighlighted(text)
		}
	}()

	patterns := patternsFor(keywords)
	if text == "" || len(patterns) == 0 {
		return unhighlighted(text)
	}

	norms := make([]string, 0, len(patterns))
	for _, p := range patterns {
		norms = append(norms, match.Normalize(p))
	}

	ac := buildMatcher(patterns)

	view = PlainView{First: -1}
	emit := func(s string) {
		if s == "" {
			return
		}
		seg := Segment{Text: s, Matched: isMatch(s, norms)}
		if seg.Matched {
			if view.First < 0 {
				view.First = len(view.Segments)
				seg.Pulse = true
			}
			view.Matches++
		}
		view.Segments = append(view.Segments, seg)
	}

	pos := 0
	for _, m := range ac.FindAll(text) {
		start, end := m.Start(), m.End()
		if start < pos || end <= start {
			continue
		}
		emit(text[pos:start])
		emit(text[start:end])
		pos = end
	}
	emit(text[pos:])
	return view
}

var buildMatcher = func(patterns []string) ahocorasick.AhoCorasick {
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	return builder.Build(patterns)
}

func unhighlighted(text string) PlainView {
	if text == "" {
		return PlainView{First: -1}
	}
	return PlainView{Segments: []Segment{{Text: text}}, First: -1}
}

// patternsFor trims and de-duplicates keywords, longest first.
func patternsFor(keywords []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" || seen[strings.ToLower(k)] {
			continue
		}
		seen[strings.ToLower(k)] = true
		out = append(out, k)
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

func isMatch(segment string, normKeywords []string) bool {
	s := match.Normalize(segment)
	if s == "" {
		return false
	}
	for _, k := range normKeywords {
		if match.Contains(s, k) {
			return true
		}
	}
	return false
}

// Text joins the segments back into the original text.
func (v PlainView) Text() string {
	var b strings.Builder
	for _, s := range v.Segments {
		b.WriteString(s.Text)
	}
	return b.String()
}
