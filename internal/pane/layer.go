package pane

import (
	"sort"
	"sync"

	"github.com/dgallion1/docmind/internal/doctree"
	"github.com/dgallion1/docmind/internal/highlight"
)

// StylePatch is one style write on a rendered fragment. An empty Value
// removes the property.
type StylePatch struct {
	ID    string `json:"id"`
	Prop  string `json:"prop"`
	Value string `json:"value"`
}

// LoadFunc produces the fragments of a PDF and its page count.
type LoadFunc func() ([]doctree.Fragment, int, error)

// Layer is the PDF text layer of one viewer: the positioned fragments the
// browser renders over each page. It is filled asynchronously and closes
// Ready when done. Style writes are queued as patches for the browser.
type Layer struct {
	mu      sync.Mutex
	spans   []*Span
	gen     int
	styles  map[string]map[string]string
	pending []StylePatch
	pages   int
	err     error
	ready   chan struct{}
}

// NewLayer starts loading in the background.
func NewLayer(load LoadFunc) *Layer {
	l := &Layer{styles: map[string]map[string]string{}, ready: make(chan struct{})}
	go func() {
		frags, pages, err := load()
		l.mu.Lock()
		l.pages = pages
		l.err = err
		l.renderLocked(frags)
		l.mu.Unlock()
		close(l.ready)
	}()
	return l
}

func (l *Layer) renderLocked(frags []doctree.Fragment) {
	l.gen++
	l.spans = make([]*Span, len(frags))
	for i, f := range frags {
		l.spans[i] = &Span{frag: f, layer: l, gen: l.gen}
	}
	l.styles = map[string]map[string]string{}
}

// Rerender replaces every span with a fresh, unstyled one, as happens when
// the page is drawn again at a new scale.
func (l *Layer) Rerender() {
	l.mu.Lock()
	defer l.mu.Unlock()
	frags := make([]doctree.Fragment, len(l.spans))
	for i, s := range l.spans {
		frags[i] = s.frag
	}
	l.renderLocked(frags)
}

func (l *Layer) Fragments() []highlight.Fragment {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]highlight.Fragment, len(l.spans))
	for i, s := range l.spans {
		out[i] = s
	}
	return out
}

func (l *Layer) Ready() <-chan struct{} { return l.ready }

// IsReady reports whether loading finished.
func (l *Layer) IsReady() bool {
	select {
	case <-l.ready:
		return true
	default:
		return false
	}
}

// Pages returns the page count once loaded.
func (l *Layer) Pages() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pages
}

// Err returns the load error, if any.
func (l *Layer) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// TakePatches returns and clears the queued style writes.
func (l *Layer) TakePatches() []StylePatch {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.pending
	l.pending = nil
	return out
}

// FragmentView is a fragment together with its current style.
type FragmentView struct {
	doctree.Fragment
	Style map[string]string `json:"style,omitempty"`
}

// Snapshot returns every fragment with its current style.
func (l *Layer) Snapshot() []FragmentView {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]FragmentView, len(l.spans))
	for i, s := range l.spans {
		out[i] = FragmentView{Fragment: s.frag}
		if st := l.styles[s.frag.ID]; len(st) > 0 {
			out[i].Style = make(map[string]string, len(st))
			for k, v := range st {
				out[i].Style[k] = v
			}
		}
	}
	return out
}

// Styled returns the ids of fragments carrying any style, sorted.
func (l *Layer) Styled() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.styles))
	for id, st := range l.styles {
		if len(st) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (l *Layer) setStyle(s *Span, prop, value string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// Writes to spans from an earlier render target elements that no longer exist.
	if s.gen != l.gen {
		return
	}
	id := s.frag.ID
	st := l.styles[id]
	if value == "" {
		if _, ok := st[prop]; !ok {
			return
		}
		delete(st, prop)
		if len(st) == 0 {
			delete(l.styles, id)
		}
	} else {
		if st == nil {
			st = map[string]string{}
			l.styles[id] = st
		}
		if st[prop] == value {
			return
		}
		st[prop] = value
	}
	l.pending = append(l.pending, StylePatch{ID: id, Prop: prop, Value: value})
}

// Span is one rendered fragment element.
type Span struct {
	frag  doctree.Fragment
	layer *Layer
	gen   int
}

func (s *Span) ID() string   { return s.frag.ID }
func (s *Span) Page() int    { return s.frag.Page }
func (s *Span) Text() string { return s.frag.Text }

func (s *Span) SetStyle(prop, value string) { s.layer.setStyle(s, prop, value) }
