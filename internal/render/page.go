package render

import (
	_ "embed"
	"fmt"
	"math"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/docmind/internal/layout"
	"github.com/dgallion1/docmind/internal/mindmap"
	"github.com/dgallion1/docmind/internal/pane"
	"github.com/dgallion1/docmind/internal/viewer"
)

//go:embed assets/viewer.css
var viewerCSS string

//go:embed assets/viewer.js
var viewerJS string

//go:embed assets/upload.js
var uploadJS string

// Element ids the client script patches.
const (
	HeaderID   = "doc-header"
	StatusID   = "status"
	LanguageID = "language"
)

// LoadingMessage is shown while an upload is processed.
const LoadingMessage = "正在处理文档，请稍候..."

// Header renders the document title line: filename, page count for PDFs,
// the highlighted keyword count and the zoom controls.
func Header(v pane.View) *html.Node {
	h := el(atom.Div, "id", HeaderID, "class", "doc-header")
	if v.Kind == pane.KindEmpty {
		return add(h, add(el(atom.Span, "class", "doc-title"), text("原文档")))
	}
	add(h, add(el(atom.Span, "class", "doc-title"), text(v.Filename)))
	if v.PDF != nil && v.PDF.Pages > 0 {
		add(h, add(el(atom.Span, "class", "doc-pages"), text(fmt.Sprintf("(%d 页)", v.PDF.Pages))))
	}
	if n := v.HighlightedCount(); n > 0 {
		add(h, add(el(atom.Span, "class", "doc-highlighted"), text(fmt.Sprintf("(已高亮 %d 个关键词)", n))))
	}
	if v.PDF != nil {
		add(h,
			add(el(atom.Button, "type", "button", "class", "zoom", "data-zoom", "out"), text("−")),
			add(el(atom.Span, "class", "zoom-level"), text(ZoomLabel(v.PDF.Zoom))),
			add(el(atom.Button, "type", "button", "class", "zoom", "data-zoom", "in"), text("+")),
		)
	}
	return h
}

// ZoomLabel formats a scale as a whole percentage.
func ZoomLabel(zoom float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(zoom*100)))
}

// Status renders the loading indicator or the error message.
func Status(st viewer.State) *html.Node {
	s := el(atom.Div, "id", StatusID, "class", "status")
	switch {
	case st.Loading:
		return add(s, add(el(atom.Div, "class", "status-loading"), text(LoadingMessage)))
	case st.Error != "":
		return add(s, add(el(atom.Div, "class", "status-error", "role", "alert"), text(st.Error)))
	}
	return s
}

// LanguageToggle renders the language buttons; legacy payloads get none.
func LanguageToggle(st viewer.State) *html.Node {
	t := el(atom.Div, "id", LanguageID, "class", "language-toggle")
	if !st.Dual {
		return t
	}
	for _, opt := range []struct {
		lang  mindmap.Language
		label string
	}{{mindmap.Chinese, "中文"}, {mindmap.English, "English"}} {
		cls := "lang"
		if opt.lang == st.Language {
			cls += " selected"
		}
		add(t, add(el(atom.Button, "type", "button", "class", cls, "data-lang", string(opt.lang)), text(opt.label)))
	}
	return t
}

// ViewerPage is everything the viewer page shows.
type ViewerPage struct {
	FileID   string
	State    viewer.State
	Layout   *layout.Layout
	Feedback layout.Feedback
	Pane     pane.View
}

// Viewer renders the full viewer document: the document pane on the left and
// the mind map on the right. The script opens the live session for FileID.
func Viewer(p ViewerPage) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	add(doc, &html.Node{Type: html.DoctypeNode, Data: "html"})

	head := add(el(atom.Head),
		el(atom.Meta, "charset", "utf-8"),
		add(el(atom.Title), text("docmind · "+titleOf(p))),
		add(el(atom.Style), raw(viewerCSS)),
	)
	body := el(atom.Body, "data-file-id", p.FileID)
	add(body,
		Status(p.State),
		add(el(atom.Main, "class", "viewer"),
			add(el(atom.Section, "class", "left"), Header(p.Pane), Pane(p.Pane)),
			add(el(atom.Section, "class", "right"), LanguageToggle(p.State), MindMap(p.Layout, p.Feedback)),
		),
		add(el(atom.Script), raw(viewerJS)),
	)
	add(doc, add(el(atom.Html, "lang", "zh"), head, body))
	return doc
}

func titleOf(p ViewerPage) string {
	if p.Pane.Filename != "" {
		return p.Pane.Filename
	}
	return p.State.Document.Filename
}

// Upload renders the start page with the upload form.
func Upload() *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	add(doc, &html.Node{Type: html.DoctypeNode, Data: "html"})
	head := add(el(atom.Head),
		el(atom.Meta, "charset", "utf-8"),
		add(el(atom.Title), text("docmind")),
		add(el(atom.Style), raw(viewerCSS)),
	)
	form := add(el(atom.Form, "id", "upload", "class", "upload"),
		add(el(atom.Label, "for", "file"), text("上传文档 (PDF / DOCX / TXT)")),
		el(atom.Input, "id", "file", "name", "file", "type", "file", "accept", ".pdf,.docx,.txt"),
		add(el(atom.Button, "type", "submit"), text("上传")),
	)
	body := add(el(atom.Body),
		add(el(atom.Div, "id", StatusID, "class", "status")),
		add(el(atom.Main, "class", "viewer"),
			add(el(atom.Section, "class", "left"), Pane(pane.EmptyPane{}.View())),
			add(el(atom.Section, "class", "right"), form, MindMap(layout.Compute(nil), layout.Feedback{})),
		),
		add(el(atom.Script), raw(uploadJS)),
	)
	add(doc, add(el(atom.Html, "lang", "zh"), head, body))
	return doc
}
