package highlight

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFragment struct {
	id   string
	page int
	text string

	mu    sync.Mutex
	style map[string]string
	sets  int
}

func (f *fakeFragment) ID() string   { return f.id }
func (f *fakeFragment) Page() int    { return f.page }
func (f *fakeFragment) Text() string { return f.text }

func (f *fakeFragment) SetStyle(prop, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.style == nil {
		f.style = map[string]string{}
	}
	if value == "" {
		delete(f.style, prop)
		return
	}
	f.style[prop] = value
}

func (f *fakeFragment) snapshot() (map[string]string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for k, v := range f.style {
		out[k] = v
	}
	return out, f.sets
}

type fakeLayer struct {
	mu    sync.Mutex
	frags []Fragment
	ready chan struct{}
}

func (l *fakeLayer) Fragments() []Fragment {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Fragment(nil), l.frags...)
}

func (l *fakeLayer) Ready() <-chan struct{} {
	if l.ready == nil {
		return nil
	}
	return l.ready
}

type fakeScroller struct {
	mu      sync.Mutex
	targets []string
}

func (s *fakeScroller) ScrollIntoView(f Fragment, opts ScrollOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = append(s.targets, f.ID()+"/"+opts.Block+"/"+opts.Behavior)
}

func (s *fakeScroller) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.targets)
}

type passLog struct {
	mu     sync.Mutex
	passes []PassResult
}

func (p *passLog) add(r PassResult) {
	p.mu.Lock()
	p.passes = append(p.passes, r)
	p.mu.Unlock()
}

func (p *passLog) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.passes)
}

func (p *passLog) last() PassResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.passes[len(p.passes)-1]
}

func readyLayer(frags ...*fakeFragment) *fakeLayer {
	l := &fakeLayer{ready: make(chan struct{})}
	for _, f := range frags {
		l.frags = append(l.frags, f)
	}
	close(l.ready)
	return l
}

func newTestHighlighter(layer TextLayer, sc Scroller, delay time.Duration) (*Highlighter, *passLog) {
	log := &passLog{}
	h := NewHighlighter(layer, sc, Options{Delay: delay, OnPass: log.add}, nil)
	return h, log
}

func TestHighlighter_StylesMatchesAndScrollsOnce(t *testing.T) {
	intro := &fakeFragment{id: "p2-0", page: 2, text: "引言"}
	method := &fakeFragment{id: "p1-1", page: 1, text: "方法论部分描述"}
	sc := &fakeScroller{}
	h, passes := newTestHighlighter(readyLayer(intro, method), sc, 0)
	defer h.Close()

	h.Apply([]string{"方法论"})
	require.Eventually(t, func() bool { return passes.len() == 1 }, time.Second, 5*time.Millisecond)

	res := passes.last()
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, "p1-1", res.First)
	assert.True(t, res.Scrolled)

	style, sets := method.snapshot()
	assert.Equal(t, MatchStyle[PropBackground], style[PropBackground])
	assert.Equal(t, PulseAnimation, style[PropAnimation])
	introStyle, _ := intro.snapshot()
	assert.Empty(t, introStyle)
	assert.Equal(t, []string{"p1-1/center/smooth"}, sc.targets)

	// Same keyword set again: no additional writes, no second scroll.
	h.Apply([]string{"方法论"})
	require.Eventually(t, func() bool { return passes.len() == 2 }, time.Second, 5*time.Millisecond)
	style2, sets2 := method.snapshot()
	assert.Equal(t, style, style2)
	assert.Equal(t, sets, sets2)
	assert.Equal(t, 1, sc.count())
	assert.False(t, passes.last().Scrolled)
}

func TestHighlighter_EmptyKeywordsClearEverything(t *testing.T) {
	a := &fakeFragment{id: "a", page: 1, text: "x marks"}
	b := &fakeFragment{id: "b", page: 1, text: "the x spot"}
	h, passes := newTestHighlighter(readyLayer(a, b), &fakeScroller{}, 0)
	defer h.Close()

	h.Apply([]string{"x"})
	require.Eventually(t, func() bool { return passes.len() == 1 }, time.Second, 5*time.Millisecond)
	require.Len(t, h.Styled(), 2)

	h.Apply(nil)
	assert.True(t, passes.last().Cleared)
	assert.Empty(t, h.Styled())
	for _, f := range []*fakeFragment{a, b} {
		style, _ := f.snapshot()
		assert.Empty(t, style, "fragment %s still styled", f.id)
	}
}

func TestHighlighter_StalePassIsDropped(t *testing.T) {
	a := &fakeFragment{id: "a", page: 1, text: "alpha"}
	b := &fakeFragment{id: "b", page: 2, text: "beta"}
	layer := &fakeLayer{frags: []Fragment{a, b}}
	h, passes := newTestHighlighter(layer, &fakeScroller{}, 30*time.Millisecond)
	defer h.Close()

	h.Apply([]string{"alpha"})
	h.Apply([]string{"beta"})

	require.Eventually(t, func() bool { return passes.len() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	require.Equal(t, 1, passes.len())
	assert.Equal(t, []string{"beta"}, passes.last().Keywords)

	aStyle, _ := a.snapshot()
	bStyle, _ := b.snapshot()
	assert.Empty(t, aStyle)
	assert.NotEmpty(t, bStyle)
}

func TestHighlighter_FragmentsNotYetPresent(t *testing.T) {
	layer := &fakeLayer{}
	sc := &fakeScroller{}
	h, passes := newTestHighlighter(layer, sc, 10*time.Millisecond)
	defer h.Close()

	h.Apply([]string{"anything"})
	require.Eventually(t, func() bool { return passes.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, passes.last().Matched)
	assert.Zero(t, sc.count())
}

func TestHighlighter_WaitsForReadySignal(t *testing.T) {
	f := &fakeFragment{id: "a", page: 1, text: "keyword here"}
	layer := &fakeLayer{frags: []Fragment{f}, ready: make(chan struct{})}
	h, passes := newTestHighlighter(layer, &fakeScroller{}, 10*time.Millisecond)
	defer h.Close()

	h.Apply([]string{"keyword"})
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, passes.len(), "no pass before the layer is ready")

	close(layer.ready)
	require.Eventually(t, func() bool { return passes.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, passes.last().Matched)
}

func TestHighlighter_SwitchingKeywordsMovesEmphasis(t *testing.T) {
	a := &fakeFragment{id: "a", page: 1, text: "alpha"}
	b := &fakeFragment{id: "b", page: 2, text: "beta"}
	sc := &fakeScroller{}
	h, passes := newTestHighlighter(readyLayer(a, b), sc, 0)
	defer h.Close()

	h.Apply([]string{"alpha"})
	require.Eventually(t, func() bool { return passes.len() == 1 }, time.Second, 5*time.Millisecond)
	h.Apply([]string{"beta"})
	require.Eventually(t, func() bool { return passes.len() == 2 }, time.Second, 5*time.Millisecond)

	aStyle, _ := a.snapshot()
	bStyle, _ := b.snapshot()
	assert.Empty(t, aStyle)
	assert.Equal(t, PulseAnimation, bStyle[PropAnimation])
	assert.Equal(t, 2, sc.count())
}
