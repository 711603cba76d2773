package render

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/docmind/internal/layout"
)

// MindMapID is the element id of the mind-map container.
const MindMapID = "mindmap"

// MindMap renders the laid-out tree. Non-ready states render their message.
func MindMap(l *layout.Layout, fb layout.Feedback) *html.Node {
	root := el(atom.Div, "id", MindMapID, "class", "mindmap")
	if l == nil || l.State != layout.StateReady {
		state := layout.StateAwaiting
		if l != nil {
			state = l.State
		}
		return add(root, add(el(atom.Div, "class", "mindmap-state mindmap-"+state.String()), text(state.Message())))
	}
	for _, b := range l.Boxes {
		add(root, row(b, fb))
	}
	return root
}

func row(b layout.Box, fb layout.Feedback) *html.Node {
	r := el(atom.Div,
		"class", "node-row",
		"style", css("padding-left", px(b.Indent), "margin-bottom", px(b.Style.MarginBottom)),
	)
	add(r, connector("elbow", b.Elbow), connector("sibling", b.Sibling), connector("trunk", b.Trunk))
	if b.Elbow != nil {
		add(r, el(atom.Span, "class", "connector-dot", "style", css("left", px(b.Elbow.X-3), "background", b.Elbow.Color)))
	}

	s := b.Style
	state := ""
	switch b.Path {
	case fb.Active:
		state = "active"
	case fb.Hovered:
		state = "hovered"
	}
	kw := ""
	if b.Node.HasKeywords() {
		kw = "has-keywords"
	}
	btn := el(atom.Button,
		"type", "button",
		"class", classes("node", fmt.Sprintf("tier-%d", s.Tier), kw, state),
		"data-path", b.Path,
		"data-keywords", strings.Join(b.Node.Keywords, ","),
		"title", strings.Join(b.Node.Keywords, ", "),
		"style", css(
			"font-size", px(s.FontSize),
			"font-weight", fmt.Sprint(s.FontWeight),
			"padding", s.Padding,
			"background", s.Background,
			"color", s.Color,
			"border", "1px solid "+s.Border,
		),
	)
	return add(r, add(btn, text(b.Node.Name)))
}

func connector(kind string, c *layout.Connector) *html.Node {
	if c == nil {
		return nil
	}
	style := css("left", px(c.X), "background", c.Color)
	if kind == "elbow" {
		style += css("width", px(c.Width), "height", px(c.Thickness))
	} else {
		style += css("width", px(c.Thickness))
	}
	return el(atom.Span, "class", "connector connector-"+kind, "style", style)
}
