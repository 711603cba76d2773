// Package pane chooses and drives the document substrate shown next to the
// mind map: a highlighted plain-text pane, a PDF pane with a text layer, or
// an empty placeholder.
package pane

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/dgallion1/docmind/internal/doctree"
	"github.com/dgallion1/docmind/internal/highlight"
)

// Kind is the substrate type.
type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindPDF
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPDF:
		return "pdf"
	default:
		return "empty"
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Placeholder copy for the empty pane.
const (
	EmptyTitle = "文档内容将显示在这里"
	EmptyHint  = "上传文档后，原文档将显示在左侧"
)

// Document is what the pane needs to know about the current upload.
type Document struct {
	FileID   string
	Filename string
	FileURL  string
	FileType string
	Text     string
	Pages    int
}

// Select picks the substrate for doc: PDF when the type is .pdf and a file
// URL exists, otherwise text when there is any, otherwise empty.
func Select(doc Document) Kind {
	switch {
	case strings.ToLower(doc.FileType) == ".pdf" && doc.FileURL != "":
		return KindPDF
	case doc.Text != "":
		return KindText
	default:
		return KindEmpty
	}
}

// Viewport scrolls the browser to an element id.
type Viewport interface {
	ScrollTo(target string, opts highlight.ScrollOptions)
}

// Substrate is a mounted document pane.
type Substrate interface {
	Kind() Kind
	SetKeywords(keywords []string)
	View() View
	Close()
}

// View is a renderable snapshot of a substrate.
type View struct {
	Kind     Kind                 `json:"kind"`
	Filename string               `json:"filename,omitempty"`
	Keywords []string             `json:"keywords"`
	Plain    *highlight.PlainView `json:"plain,omitempty"`
	PDF      *PDFView             `json:"pdf,omitempty"`
	Title    string               `json:"title,omitempty"`
	Hint     string               `json:"hint,omitempty"`
}

// HighlightedCount is the number of active keywords shown in the header.
func (v View) HighlightedCount() int { return len(v.Keywords) }

// Deps are the collaborators a Dispatcher mounts substrates with.
type Deps struct {
	Viewport Viewport
	// OpenLayer returns the text layer for a PDF document.
	OpenLayer func(doc Document) *Layer
	Highlight highlight.Options
	Log       *slog.Logger
}

// Dispatcher owns the mounted substrate and routes keyword changes to it.
type Dispatcher struct {
	mu       sync.Mutex
	deps     Deps
	doc      Document
	mounted  bool
	active   Substrate
	keywords []string
}

func NewDispatcher(deps Deps) *Dispatcher {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &Dispatcher{deps: deps}
}

// Mount shows doc. A different document or file type tears down the old
// substrate and mounts a new one, which receives the current keywords. It
// reports whether a re-mount happened.
func (d *Dispatcher) Mount(doc Document) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mounted && d.doc == doc {
		return false
	}
	if d.active != nil {
		d.active.Close()
	}
	d.doc = doc
	d.mounted = true
	d.active = d.build(doc)
	d.deps.Log.Debug("pane mounted", "kind", d.active.Kind().String(), "file_id", doc.FileID)
	if len(d.keywords) > 0 {
		d.active.SetKeywords(d.keywords)
	}
	return true
}

func (d *Dispatcher) build(doc Document) Substrate {
	switch Select(doc) {
	case KindPDF:
		var layer *Layer
		if d.deps.OpenLayer != nil {
			layer = d.deps.OpenLayer(doc)
		}
		if layer == nil {
			layer = NewLayer(func() ([]doctree.Fragment, int, error) { return nil, doc.Pages, nil })
		}
		return NewPDFPane(doc, layer, d.deps.Viewport, d.deps.Highlight, d.deps.Log)
	case KindText:
		return NewTextPane(doc, d.deps.Viewport, d.deps.Log)
	default:
		return EmptyPane{}
	}
}

// SetKeywords replaces the active keyword set.
func (d *Dispatcher) SetKeywords(keywords []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keywords = append([]string(nil), keywords...)
	if d.active != nil {
		d.active.SetKeywords(d.keywords)
	}
}

// Active returns the mounted substrate, or nil before the first Mount.
func (d *Dispatcher) Active() Substrate {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// View snapshots the mounted substrate; before any mount it is the empty pane.
func (d *Dispatcher) View() View {
	d.mu.Lock()
	active := d.active
	d.mu.Unlock()
	if active == nil {
		return EmptyPane{}.View()
	}
	return active.View()
}

// Close tears down the mounted substrate.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active != nil {
		d.active.Close()
		d.active = nil
	}
	d.mounted = false
}

// EmptyPane is shown when there is no document.
type EmptyPane struct{}

func (EmptyPane) Kind() Kind          { return KindEmpty }
func (EmptyPane) SetKeywords([]string) {}
func (EmptyPane) Close()               {}

func (EmptyPane) View() View {
	return View{Kind: KindEmpty, Keywords: []string{}, Title: EmptyTitle, Hint: EmptyHint}
}
