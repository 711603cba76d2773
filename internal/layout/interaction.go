package layout

import (
	"sync"
	"time"
)

// DefaultActiveFeedback is how long a clicked node stays in the active state.
const DefaultActiveFeedback = 300 * time.Millisecond

// Activation carries the keyword set of an activated node.
type Activation struct {
	Path     string   `json:"path"`
	Keywords []string `json:"keywords"`
}

// Feedback is the transient visual state of the tree.
type Feedback struct {
	Hovered string `json:"hovered,omitempty"`
	Active  string `json:"active,omitempty"`
}

// Interaction tracks hover and activation on a Layout. Activation events are
// only emitted for nodes with keywords; other nodes get visual feedback only.
type Interaction struct {
	mu       sync.Mutex
	layout   *Layout
	feedback time.Duration
	hovered  string
	active   string
	seq      uint64
	timer    *time.Timer

	onActivate func(Activation)
	onFeedback func(Feedback)
}

// NewInteraction binds interaction state to l. onActivate may be nil.
func NewInteraction(l *Layout, feedback time.Duration, onActivate func(Activation)) *Interaction {
	if feedback <= 0 {
		feedback = DefaultActiveFeedback
	}
	return &Interaction{layout: l, feedback: feedback, onActivate: onActivate}
}

// OnFeedback registers a callback for visual state changes.
func (i *Interaction) OnFeedback(fn func(Feedback)) {
	i.mu.Lock()
	i.onFeedback = fn
	i.mu.Unlock()
}

// Feedback returns the current visual state.
func (i *Interaction) Feedback() Feedback {
	i.mu.Lock()
	defer i.mu.Unlock()
	return Feedback{Hovered: i.hovered, Active: i.active}
}

// Hover marks path as hovered. Unknown paths are ignored.
func (i *Interaction) Hover(path string) {
	if _, ok := i.layout.Box(path); !ok {
		return
	}
	i.mu.Lock()
	if i.hovered == path {
		i.mu.Unlock()
		return
	}
	i.hovered = path
	fb, cb := i.snapshotLocked()
	i.mu.Unlock()
	notify(cb, fb)
}

// Unhover clears the hover state.
func (i *Interaction) Unhover() {
	i.mu.Lock()
	if i.hovered == "" {
		i.mu.Unlock()
		return
	}
	i.hovered = ""
	fb, cb := i.snapshotLocked()
	i.mu.Unlock()
	notify(cb, fb)
}

// Activate handles a click on path. The node becomes active until the
// feedback delay elapses. It returns the emitted activation, if any.
func (i *Interaction) Activate(path string) (Activation, bool) {
	box, ok := i.layout.Box(path)
	if !ok {
		return Activation{}, false
	}

	i.mu.Lock()
	i.seq++
	seq := i.seq
	i.active = path
	if i.timer != nil {
		i.timer.Stop()
	}
	i.timer = time.AfterFunc(i.feedback, func() { i.clearActive(seq) })
	fb, cb := i.snapshotLocked()
	onActivate := i.onActivate
	i.mu.Unlock()

	notify(cb, fb)

	if !box.Node.HasKeywords() {
		return Activation{}, false
	}
	act := Activation{Path: path, Keywords: append([]string(nil), box.Node.Keywords...)}
	if onActivate != nil {
		onActivate(act)
	}
	return act, true
}

func (i *Interaction) clearActive(seq uint64) {
	i.mu.Lock()
	if seq != i.seq || i.active == "" {
		i.mu.Unlock()
		return
	}
	i.active = ""
	fb, cb := i.snapshotLocked()
	i.mu.Unlock()
	notify(cb, fb)
}

// Stop cancels a pending feedback timer.
func (i *Interaction) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.timer != nil {
		i.timer.Stop()
		i.timer = nil
	}
}

func (i *Interaction) snapshotLocked() (Feedback, func(Feedback)) {
	return Feedback{Hovered: i.hovered, Active: i.active}, i.onFeedback
}

func notify(cb func(Feedback), fb Feedback) {
	if cb != nil {
		cb(fb)
	}
}
