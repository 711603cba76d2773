// Package match decides which text units of a document a keyword set points
// at. Matching is deliberately permissive: containment in either direction,
// then a character-subset test, then (for PDF fragments) page proximity.
package match

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Substrate is the kind of document the units come from.
type Substrate int

const (
	Plain Substrate = iota
	PDF
)

func (s Substrate) String() string {
	if s == PDF {
		return "pdf"
	}
	return "text"
}

// Strategy names the rung of the ladder that produced a match.
type Strategy string

const (
	StrategyNone        Strategy = ""
	StrategyContainment Strategy = "containment"
	StrategySubset      Strategy = "subset"
	StrategyProximity   Strategy = "proximity"
)

// DefaultProximityWindow is the proximity distance in runes.
const DefaultProximityWindow = 50

// Unit is one line/paragraph of plain text or one rendered PDF fragment.
type Unit struct {
	ID   string `json:"id"`
	Page int    `json:"page,omitempty"`
	Text string `json:"text"`
}

// Corpus is the ordered set of units to match against.
type Corpus struct {
	Substrate Substrate
	Units     []Unit
}

// Result flags one unit. Keyword and Strategy are diagnostics.
type Result struct {
	Unit     Unit     `json:"unit"`
	Matched  bool     `json:"matched"`
	Keyword  string   `json:"keyword,omitempty"`
	Strategy Strategy `json:"strategy,omitempty"`
}

// Options tunes the engine.
type Options struct {
	ProximityWindow int
	// MinKeywordRunes drops keywords shorter than this after normalization.
	// Zero keeps every keyword.
	MinKeywordRunes int
}

func DefaultOptions() Options {
	return Options{ProximityWindow: DefaultProximityWindow}
}

// Engine runs the matching ladder. The zero value is not usable; use New.
type Engine struct {
	opts Options
	log  *slog.Logger
}

func New(opts Options, log *slog.Logger) *Engine {
	if opts.ProximityWindow <= 0 {
		opts.ProximityWindow = DefaultProximityWindow
	}
	if opts.MinKeywordRunes < 0 {
		opts.MinKeywordRunes = 0
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{opts: opts, log: log}
}

// FindMatches runs the engine with default options.
func FindMatches(keywords []string, corpus Corpus) []Result {
	return New(DefaultOptions(), nil).FindMatches(keywords, corpus)
}

type preparedKeyword struct {
	raw  string
	norm string
}

// FindMatches flags every unit of corpus. It is pure: identical arguments
// give identical results. A failure while matching degrades to every unit
// unmatched.
func (e *Engine) FindMatches(keywords []string, corpus Corpus) (results []Result) {
	results = make([]Result, len(corpus.Units))
	for i, u := range corpus.Units {
		results[i] = Result{Unit: u}
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("keyword matching failed, highlighting disabled",
				"substrate", corpus.Substrate.String(),
				"keywords", len(keywords),
				"error", fmt.Sprint(r),
			)
			for i := range results {
				results[i] = Result{Unit: corpus.Units[i]}
			}
		}
	}()

	kws := e.prepare(keywords, corpus.Substrate)
	if len(kws) == 0 {
		return results
	}

	norms := make([]string, len(corpus.Units))
	for i, u := range corpus.Units {
		norms[i] = corpus.Substrate.normalize(u.Text)
	}

	var pages map[int]*pageText
	if corpus.Substrate == PDF {
		pages = buildPages(corpus.Units, norms)
	}

	for i, u := range corpus.Units {
		kw, strategy := e.ladder(i, u, norms[i], kws, pages)
		if strategy != StrategyNone {
			results[i].Matched = true
			results[i].Keyword = kw
			results[i].Strategy = strategy
		}
	}
	return results
}

func (e *Engine) prepare(keywords []string, sub Substrate) []preparedKeyword {
	out := make([]preparedKeyword, 0, len(keywords))
	for _, k := range keywords {
		n := sub.normalize(k)
		if n == "" {
			continue
		}
		if e.opts.MinKeywordRunes > 0 && utf8.RuneCountInString(n) < e.opts.MinKeywordRunes {
			continue
		}
		out = append(out, preparedKeyword{raw: k, norm: n})
	}
	return out
}

func (e *Engine) ladder(idx int, u Unit, norm string, kws []preparedKeyword, pages map[int]*pageText) (string, Strategy) {
	if norm == "" {
		return "", StrategyNone
	}
	for _, k := range kws {
		if Contains(norm, k.norm) {
			return k.raw, StrategyContainment
		}
	}
	for _, k := range kws {
		if subset(norm, k.norm) {
			return k.raw, StrategySubset
		}
	}
	if pages == nil || utf8.RuneCountInString(u.Text) <= 1 {
		return "", StrategyNone
	}
	page := pages[u.Page]
	if page == nil {
		return "", StrategyNone
	}
	offset, ok := page.offsets[idx]
	if !ok {
		return "", StrategyNone
	}
	for _, k := range kws {
		if page.near(k.norm, offset, e.opts.ProximityWindow) {
			return k.raw, StrategyProximity
		}
	}
	return "", StrategyNone
}

// pageText is the space-joined normalized text of one page with each unit's
// rune offset into it, keyed by unit index.
type pageText struct {
	text    string
	offsets map[int]int
}

func buildPages(units []Unit, norms []string) map[int]*pageText {
	type builder struct {
		sb      strings.Builder
		runes   int
		offsets map[int]int
	}
	builders := map[int]*builder{}
	for i, u := range units {
		b := builders[u.Page]
		if b == nil {
			b = &builder{offsets: map[int]int{}}
			builders[u.Page] = b
		}
		if b.runes > 0 {
			b.sb.WriteByte(' ')
			b.runes++
		}
		b.offsets[i] = b.runes
		b.sb.WriteString(norms[i])
		b.runes += utf8.RuneCountInString(norms[i])
	}
	pages := make(map[int]*pageText, len(builders))
	for p, b := range builders {
		pages[p] = &pageText{text: b.sb.String(), offsets: b.offsets}
	}
	return pages
}

// near reports whether an occurrence of keyword starts within window runes
// of offset.
func (p *pageText) near(keyword string, offset, window int) bool {
	start := 0
	for {
		idx := strings.Index(p.text[start:], keyword)
		if idx < 0 {
			return false
		}
		byteAt := start + idx
		at := utf8.RuneCountInString(p.text[:byteAt])
		d := at - offset
		if d < 0 {
			d = -d
		}
		if d < window {
			return true
		}
		if at > offset+window {
			return false
		}
		_, size := utf8.DecodeRuneInString(p.text[byteAt:])
		start = byteAt + size
	}
}

// Summary aggregates results for logging.
type Summary struct {
	Units     int            `json:"units"`
	Matched   int            `json:"matched"`
	ByKeyword map[string]int `json:"by_keyword"`
	Unmatched []string       `json:"unmatched"`
}

// Summarize counts matches per keyword.
func Summarize(keywords []string, results []Result) Summary {
	s := Summary{Units: len(results), ByKeyword: map[string]int{}, Unmatched: []string{}}
	for _, r := range results {
		if r.Matched {
			s.Matched++
			s.ByKeyword[r.Keyword]++
		}
	}
	for _, k := range keywords {
		if s.ByKeyword[k] == 0 {
			s.Unmatched = append(s.Unmatched, k)
		}
	}
	return s
}

// LogSummary writes a debug line describing a match pass.
func LogSummary(log *slog.Logger, keywords []string, results []Result) {
	s := Summarize(keywords, results)
	log.Debug("keyword match",
		"units", s.Units,
		"matched", s.Matched,
		"unmatched_keywords", s.Unmatched,
	)
}

// Lines splits plain text into line units, skipping blank lines.
func Lines(text string) []Unit {
	var units []Unit
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		units = append(units, Unit{ID: fmt.Sprintf("L%d", i+1), Text: line})
	}
	return units
}
