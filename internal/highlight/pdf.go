package highlight

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/docmind/internal/match"
)

// DefaultDelay is the wait before a highlight pass when the text layer cannot
// signal readiness.
const DefaultDelay = time.Second

// Style properties the highlighter writes. Clearing resets all of them.
const (
	PropBackground = "background-color"
	PropWeight     = "font-weight"
	PropPadding    = "padding"
	PropRadius     = "border-radius"
	PropShadow     = "box-shadow"
	PropTransition = "transition"
	PropColor      = "color"
	PropAnimation  = "animation"
)

// ResetProps lists every property a clear must reset.
var ResetProps = []string{
	PropBackground, PropWeight, PropPadding, PropRadius,
	PropShadow, PropAnimation, PropTransition, PropColor,
}

// MatchStyle is applied to every matched fragment.
var MatchStyle = map[string]string{
	PropBackground: "rgba(217, 119, 6, 0.3)",
	PropWeight:     "bold",
	PropPadding:    "2px 4px",
	PropRadius:     "3px",
	PropShadow:     "0 0 0 2px rgba(180, 83, 9, 0.4)",
	PropTransition: "all 0.3s ease",
	PropColor:      "#78350f",
}

// PulseAnimation marks the first match.
const PulseAnimation = "highlight-pulse 1.5s ease-in-out 2"

// Fragment is a rendered text-layer element. The text layer owns its
// existence and text; the highlighter only writes style.
type Fragment interface {
	ID() string
	Page() int
	Text() string
	// SetStyle sets a style property; an empty value removes it.
	SetStyle(prop, value string)
}

// TextLayer exposes the fragments currently rendered, in document order.
type TextLayer interface {
	Fragments() []Fragment
	// Ready is closed once fragments exist. A nil channel means the layer
	// cannot signal and the highlighter falls back to a fixed delay.
	Ready() <-chan struct{}
}

// ScrollOptions mirror the browser's scrollIntoView options.
type ScrollOptions struct {
	Behavior string `json:"behavior"`
	Block    string `json:"block"`
}

// CenterSmooth scrolls the target to the middle of the viewport.
var CenterSmooth = ScrollOptions{Behavior: "smooth", Block: "center"}

// Scroller moves the viewport.
type Scroller interface {
	ScrollIntoView(f Fragment, opts ScrollOptions)
}

// PassResult describes one completed highlight pass.
type PassResult struct {
	Seq      uint64
	Keywords []string
	Matched  int
	First    string // fragment id, empty when nothing matched
	Scrolled bool
	Cleared  bool
}

type styledFragment struct {
	frag  Fragment
	props map[string]string
}

// Highlighter restyles PDF text-layer fragments for a keyword set. It keeps
// back-references to the fragments it styled so a later pass or a clear can
// undo exactly what it wrote. Only the newest Apply is ever executed.
type Highlighter struct {
	mu       sync.Mutex
	layer    TextLayer
	scroller Scroller
	engine   *match.Engine
	delay    time.Duration
	log      *slog.Logger

	seq         uint64
	keywords    []string
	scrolledFor string
	styled      map[string]*styledFragment
	timer       *time.Timer
	done        chan struct{}
	closed      bool
	onPass      func(PassResult)
}

// Options configures a Highlighter.
type Options struct {
	Delay  time.Duration
	Engine *match.Engine
	OnPass func(PassResult)
}

func NewHighlighter(layer TextLayer, scroller Scroller, opts Options, log *slog.Logger) *Highlighter {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if log == nil {
		log = slog.Default()
	}
	if opts.Engine == nil {
		opts.Engine = match.New(match.DefaultOptions(), log)
	}
	return &Highlighter{
		layer:    layer,
		scroller: scroller,
		engine:   opts.Engine,
		delay:    opts.Delay,
		log:      log,
		styled:   map[string]*styledFragment{},
		done:     make(chan struct{}),
		onPass:   opts.OnPass,
	}
}

// Apply replaces the active keyword set. Empty keywords clear immediately;
// otherwise a pass is scheduled once the layer is ready (or after the delay).
func (h *Highlighter) Apply(keywords []string) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.seq++
	seq := h.seq
	h.keywords = append([]string(nil), keywords...)
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}

	if len(nonEmpty(keywords)) == 0 {
		h.clearLocked()
		h.scrolledFor = ""
		onPass := h.onPass
		h.mu.Unlock()
		if onPass != nil {
			onPass(PassResult{Seq: seq, Cleared: true})
		}
		return
	}
	h.scheduleLocked(seq)
	h.mu.Unlock()
}

// Refresh re-runs the pass for the current keywords, e.g. after the text
// layer re-rendered. It never scrolls again for an unchanged keyword set.
func (h *Highlighter) Refresh() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || len(nonEmpty(h.keywords)) == 0 {
		return
	}
	h.seq++
	h.scheduleLocked(h.seq)
}

func (h *Highlighter) scheduleLocked(seq uint64) {
	if ready := h.layer.Ready(); ready != nil {
		done := h.done
		go func() {
			select {
			case <-ready:
				h.run(seq)
			case <-done:
			}
		}()
		return
	}
	h.timer = time.AfterFunc(h.delay, func() { h.run(seq) })
}

// Keywords returns the active keyword set.
func (h *Highlighter) Keywords() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.keywords...)
}

// Styled returns the ids of fragments currently carrying emphasis.
func (h *Highlighter) Styled() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.styled))
	for id := range h.styled {
		ids = append(ids, id)
	}
	return ids
}

// Close cancels pending passes. Styles already written are left in place.
func (h *Highlighter) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	if h.timer != nil {
		h.timer.Stop()
	}
	close(h.done)
}

func (h *Highlighter) run(seq uint64) {
	h.mu.Lock()
	if h.closed || seq != h.seq {
		h.mu.Unlock()
		return
	}
	res := h.passLocked(seq)
	onPass := h.onPass
	h.mu.Unlock()

	if onPass != nil {
		onPass(res)
	}
}

// passLocked computes the desired style of every fragment and writes only
// the differences, so repeating a pass for the same keywords is a no-op.
func (h *Highlighter) passLocked(seq uint64) PassResult {
	res := PassResult{Seq: seq, Keywords: append([]string(nil), h.keywords...)}

	frags := h.layer.Fragments()
	units := make([]match.Unit, len(frags))
	for i, f := range frags {
		units[i] = match.Unit{ID: f.ID(), Page: f.Page(), Text: f.Text()}
	}
	results := h.engine.FindMatches(h.keywords, match.Corpus{Substrate: match.PDF, Units: units})
	match.LogSummary(h.log, h.keywords, results)

	desired := map[string]map[string]string{}
	var first Fragment
	for i, r := range results {
		if !r.Matched {
			continue
		}
		props := make(map[string]string, len(MatchStyle)+1)
		for k, v := range MatchStyle {
			props[k] = v
		}
		if first == nil {
			first = frags[i]
			props[PropAnimation] = PulseAnimation
		}
		desired[frags[i].ID()] = props
		res.Matched++
	}

	// Undo fragments that are no longer matched or were re-rendered.
	current := make(map[string]Fragment, len(frags))
	for _, f := range frags {
		current[f.ID()] = f
	}
	for id, sf := range h.styled {
		f, alive := current[id]
		if _, keep := desired[id]; keep && alive && f == sf.frag {
			continue
		}
		resetAll(sf.frag)
		delete(h.styled, id)
	}

	for i, r := range results {
		if !r.Matched {
			continue
		}
		f := frags[i]
		props := desired[f.ID()]
		sf := h.styled[f.ID()]
		if sf == nil {
			sf = &styledFragment{frag: f, props: map[string]string{}}
			h.styled[f.ID()] = sf
		}
		for k, v := range props {
			if sf.props[k] != v {
				f.SetStyle(k, v)
				sf.props[k] = v
			}
		}
		for k := range sf.props {
			if _, ok := props[k]; !ok {
				f.SetStyle(k, "")
				delete(sf.props, k)
			}
		}
	}

	if first != nil {
		res.First = first.ID()
		key := keywordKey(h.keywords)
		if key != h.scrolledFor {
			if h.scroller != nil {
				h.scroller.ScrollIntoView(first, CenterSmooth)
			}
			h.scrolledFor = key
			res.Scrolled = true
		}
	}
	return res
}

func (h *Highlighter) clearLocked() {
	for id, sf := range h.styled {
		resetAll(sf.frag)
		delete(h.styled, id)
	}
}

func resetAll(f Fragment) {
	for _, p := range ResetProps {
		f.SetStyle(p, "")
	}
}

func nonEmpty(keywords []string) []string {
	out := keywords[:0:0]
	for _, k := range keywords {
		if strings.TrimSpace(k) != "" {
			out = append(out, k)
		}
	}
	return out
}

func keywordKey(keywords []string) string {
	return strings.Join(keywords, "\x00")
}
