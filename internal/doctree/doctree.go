package doctree

import "strings"

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from filename)
	Children []*DocNode // Top-level sections
	Pages    int        // Page count for paginated formats, 0 otherwise
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page (0 if N/A)
	Children []*DocNode // Subsections
}

// Fragment is one positioned run of text on a PDF page, the unit the PDF
// text layer renders and the highlighter restyles.
type Fragment struct {
	ID   string  `json:"id"`
	Page int     `json:"page"`
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	Size float64 `json:"size"`
}

// FullText joins the text of every node in document order, one node per line.
func (t *DocTree) FullText() string {
	var sb strings.Builder
	stack := make([]*DocNode, 0, len(t.Children))
	for i := len(t.Children) - 1; i >= 0; i-- {
		stack = append(stack, t.Children[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		if n.Title != "" {
			writeLine(&sb, n.Title)
		}
		if n.Text != "" {
			writeLine(&sb, n.Text)
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return sb.String()
}

func writeLine(sb *strings.Builder, s string) {
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(s)
}
