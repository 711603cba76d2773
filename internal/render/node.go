// Package render builds the viewer's HTML as x/net/html node trees: the mind
// map, the document pane and the page around them.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func el(tag atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: tag, Data: tag.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i+1] == "" {
			continue
		}
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func add(parent *html.Node, children ...*html.Node) *html.Node {
	for _, c := range children {
		if c != nil {
			parent.AppendChild(c)
		}
	}
	return parent
}

// raw wraps trusted markup (embedded CSS and JS) so the renderer does not
// escape it.
func raw(s string) *html.Node {
	return &html.Node{Type: html.RawNode, Data: s}
}

// css joins property/value pairs into a style attribute, skipping empty values.
func css(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		fmt.Fprintf(&b, "%s:%s;", pairs[i], pairs[i+1])
	}
	return b.String()
}

func px(v int) string { return fmt.Sprintf("%dpx", v) }

func classes(names ...string) string {
	var out []string
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, " ")
}

// Write renders n.
func Write(w io.Writer, n *html.Node) error {
	return html.Render(w, n)
}

// String renders n to a string. Rendering into memory cannot fail for the
// trees this package builds.
func String(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}
