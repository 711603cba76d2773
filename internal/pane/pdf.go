package pane

import (
	"log/slog"
	"math"
	"sync"

	"github.com/dgallion1/docmind/internal/highlight"
)

const (
	DefaultZoom = 1.0
	ZoomStep    = 0.2
	MinZoom     = 0.5
)

// PDFView is the PDF part of a View.
type PDFView struct {
	FileURL   string         `json:"file_url"`
	Pages     int            `json:"pages"`
	Zoom      float64        `json:"zoom"`
	Ready     bool           `json:"ready"`
	Error     string         `json:"error,omitempty"`
	Fragments []FragmentView `json:"fragments,omitempty"`
}

// PDFPane shows a PDF whose text layer is restyled by a Highlighter.
type PDFPane struct {
	mu       sync.Mutex
	doc      Document
	layer    *Layer
	hl       *highlight.Highlighter
	zoom     float64
	keywords []string
}

func NewPDFPane(doc Document, layer *Layer, vp Viewport, opts highlight.Options, log *slog.Logger) *PDFPane {
	var sc highlight.Scroller
	if vp != nil {
		sc = fragmentScroller{vp}
	}
	return &PDFPane{
		doc:   doc,
		layer: layer,
		hl:    highlight.NewHighlighter(layer, sc, opts, log),
		zoom:  DefaultZoom,
	}
}

func (p *PDFPane) Kind() Kind { return KindPDF }

// Layer exposes the text layer, e.g. to drain style patches.
func (p *PDFPane) Layer() *Layer { return p.layer }

func (p *PDFPane) SetKeywords(keywords []string) {
	p.mu.Lock()
	p.keywords = nonBlank(keywords)
	kws := p.keywords
	p.mu.Unlock()
	p.hl.Apply(kws)
}

// ZoomIn enlarges the pages by one step.
func (p *PDFPane) ZoomIn() float64 { return p.setZoom(ZoomStep) }

// ZoomOut shrinks the pages by one step, not below MinZoom.
func (p *PDFPane) ZoomOut() float64 { return p.setZoom(-ZoomStep) }

func (p *PDFPane) setZoom(delta float64) float64 {
	p.mu.Lock()
	z := math.Round(math.Max(MinZoom, p.zoom+delta)*10) / 10
	changed := z != p.zoom
	p.zoom = z
	p.mu.Unlock()

	// A new scale redraws the text layer; emphasis is then reapplied.
	if changed && p.layer.IsReady() {
		p.layer.Rerender()
		p.hl.Refresh()
	}
	return z
}

func (p *PDFPane) Zoom() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.zoom
}

func (p *PDFPane) View() View {
	p.mu.Lock()
	v := View{Kind: KindPDF, Filename: p.doc.Filename, Keywords: append([]string{}, p.keywords...)}
	pv := &PDFView{FileURL: p.doc.FileURL, Pages: p.doc.Pages, Zoom: p.zoom}
	p.mu.Unlock()

	if p.layer.IsReady() {
		pv.Ready = true
		if n := p.layer.Pages(); n > 0 {
			pv.Pages = n
		}
		if err := p.layer.Err(); err != nil {
			pv.Error = err.Error()
		}
		pv.Fragments = p.layer.Snapshot()
	}
	v.PDF = pv
	return v
}

func (p *PDFPane) Close() { p.hl.Close() }

type fragmentScroller struct{ vp Viewport }

func (s fragmentScroller) ScrollIntoView(f highlight.Fragment, opts highlight.ScrollOptions) {
	s.vp.ScrollTo(f.ID(), opts)
}
