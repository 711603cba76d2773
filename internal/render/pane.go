package render

import (
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/docmind/internal/highlight"
	"github.com/dgallion1/docmind/internal/pane"
)

// PaneID is the element id of the document pane container.
const PaneID = "doc-pane"

// Pane renders the mounted substrate.
func Pane(v pane.View) *html.Node {
	root := el(atom.Div, "id", PaneID, "class", "doc-pane pane-"+v.Kind.String())
	switch v.Kind {
	case pane.KindText:
		return add(root, plainText(v.Plain))
	case pane.KindPDF:
		return add(root, pdf(v.PDF))
	default:
		return add(root, empty(v.Title, v.Hint))
	}
}

func empty(title, hint string) *html.Node {
	if title == "" {
		title, hint = pane.EmptyTitle, pane.EmptyHint
	}
	return add(el(atom.Div, "class", "pane-empty"),
		add(el(atom.P, "class", "pane-empty-title"), text(title)),
		add(el(atom.P, "class", "pane-empty-hint"), text(hint)),
	)
}

func plainText(v *highlight.PlainView) *html.Node {
	pre := el(atom.Pre, "class", "plain-text")
	if v == nil {
		return pre
	}
	for i, s := range v.Segments {
		if !s.Matched {
			add(pre, text(s.Text))
			continue
		}
		cls := "kw-mark"
		if s.Pulse {
			cls += " pulse"
		}
		add(pre, add(el(atom.Mark, "id", pane.SegmentID(i), "class", cls), text(s.Text)))
	}
	return pre
}

const (
	pdfLoadingMessage = "加载PDF中..."
	pdfErrorMessage   = "PDF加载失败"
)

// pdf renders the embedded original with the text layer over it, one
// positioned span per fragment, scaled by the zoom level.
func pdf(v *pane.PDFView) *html.Node {
	wrap := el(atom.Div, "class", "pdf-view", "data-zoom", strconv.FormatFloat(v.Zoom, 'f', 1, 64))
	add(wrap, el(atom.Object,
		"class", "pdf-original",
		"data", v.FileURL,
		"type", "application/pdf",
	))
	switch {
	case !v.Ready:
		return add(wrap, add(el(atom.Div, "class", "pdf-status"), text(pdfLoadingMessage)))
	case v.Error != "":
		return add(wrap, add(el(atom.Div, "class", "pdf-status pdf-error", "title", v.Error), text(pdfErrorMessage)))
	}

	pages := map[int]*html.Node{}
	var order []int
	for _, f := range v.Fragments {
		pg, ok := pages[f.Page]
		if !ok {
			pg = el(atom.Div, "class", "pdf-page text-layer", "data-page", strconv.Itoa(f.Page))
			pages[f.Page] = pg
			order = append(order, f.Page)
		}
		add(pg, fragment(f, v.Zoom))
	}
	sort.Ints(order)
	for _, p := range order {
		add(wrap, pages[p])
	}
	return wrap
}

func fragment(f pane.FragmentView, zoom float64) *html.Node {
	pairs := []string{
		"left", scaled(f.X, zoom),
		"bottom", scaled(f.Y, zoom),
		"font-size", scaled(f.Size, zoom),
	}
	keys := make([]string, 0, len(f.Style))
	for k := range f.Style {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pairs = append(pairs, k, f.Style[k])
	}
	return add(el(atom.Span, "id", f.ID, "class", "fragment", "style", css(pairs...)), text(f.Text))
}

func scaled(v, zoom float64) string {
	return fmt.Sprintf("%.1fpx", v*zoom)
}
