package pane

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgallion1/docmind/internal/highlight"
)

// SegmentID is the element id of segment i of the plain-text pane.
func SegmentID(i int) string { return fmt.Sprintf("seg-%d", i) }

// TextPane shows plain text with keyword runs marked. Every keyword change
// that finds a match scrolls to the first marked run.
type TextPane struct {
	mu       sync.Mutex
	doc      Document
	vp       Viewport
	log      *slog.Logger
	keywords []string
	view     highlight.PlainView
}

func NewTextPane(doc Document, vp Viewport, log *slog.Logger) *TextPane {
	if log == nil {
		log = slog.Default()
	}
	return &TextPane{doc: doc, vp: vp, log: log, view: highlight.SegmentText(doc.Text, nil, log)}
}

func (p *TextPane) Kind() Kind { return KindText }

func (p *TextPane) SetKeywords(keywords []string) {
	p.mu.Lock()
	p.keywords = nonBlank(keywords)
	p.view = highlight.SegmentText(p.doc.Text, p.keywords, p.log)
	first := p.view.First
	p.mu.Unlock()

	if first >= 0 && p.vp != nil {
		p.vp.ScrollTo(SegmentID(first), highlight.CenterSmooth)
	}
}

func (p *TextPane) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	plain := p.view
	return View{
		Kind:     KindText,
		Filename: p.doc.Filename,
		Keywords: append([]string{}, p.keywords...),
		Plain:    &plain,
	}
}

func (p *TextPane) Close() {}

func nonBlank(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if strings.TrimSpace(k) != "" {
			out = append(out, k)
		}
	}
	return out
}
