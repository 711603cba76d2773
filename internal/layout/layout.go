package layout

import (
	"strconv"

	"github.com/dgallion1/docmind/internal/mindmap"
)

// State is what the mind-map pane shows.
type State int

const (
	StateAwaiting State = iota
	StateInvalid
	StateReady
)

func (s State) String() string {
	switch s {
	case StateAwaiting:
		return "awaiting"
	case StateInvalid:
		return "invalid"
	default:
		return "ready"
	}
}

// Message is the user-facing text for non-ready states.
func (s State) Message() string {
	switch s {
	case StateAwaiting:
		return "Awaiting mind map data"
	case StateInvalid:
		return "Invalid mind map data"
	default:
		return ""
	}
}

// Connector is a line segment drawn in a parent's tier color.
type Connector struct {
	X         int    `json:"x"`
	Width     int    `json:"width"`
	Thickness int    `json:"thickness"`
	Color     string `json:"color"`
}

// Box is one positioned node. Boxes are produced in pre-order.
type Box struct {
	Path   string        `json:"path"`
	Row    int           `json:"row"`
	Depth  int           `json:"depth"`
	Node   *mindmap.Node `json:"-"`
	Style  Style         `json:"-"`
	Indent int           `json:"indent"`

	// Elbow joins the parent's trunk to this node; nil for the root.
	Elbow *Connector `json:"elbow,omitempty"`
	// Sibling is set when the parent's trunk continues past this node.
	Sibling *Connector `json:"sibling,omitempty"`
	// Trunk drops from this node to its children group; nil for leaves.
	Trunk *Connector `json:"trunk,omitempty"`

	Last   bool   `json:"last"`
	Prefix string `json:"-"` // outline guides, e.g. "│   ├── "
}

// Layout is the positioned tree plus the pane state.
type Layout struct {
	State State
	Root  *mindmap.Node
	Boxes []Box

	index map[string]int
}

// Compute lays out root iteratively. A nil root yields StateAwaiting and a
// placeholder-named root yields StateInvalid; neither has boxes.
func Compute(root *mindmap.Node) *Layout {
	l := &Layout{Root: root, index: map[string]int{}}
	switch {
	case root == nil:
		l.State = StateAwaiting
		return l
	case root.Placeholder:
		l.State = StateInvalid
		return l
	}
	l.State = StateReady

	type frame struct {
		node   *mindmap.Node
		parent *mindmap.Node
		path   string
		last   bool
		guides string
	}
	stack := []frame{{node: root, path: "0", last: true}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := f.node
		box := Box{
			Path:   f.path,
			Row:    len(l.Boxes),
			Depth:  n.Depth,
			Node:   n,
			Style:  StyleFor(n.Depth),
			Indent: Indent(n.Depth),
			Last:   f.last,
		}
		if f.parent != nil {
			ps := StyleFor(f.parent.Depth)
			px := ConnectorX(f.parent.Depth)
			box.Elbow = &Connector{
				X:         px,
				Width:     ConnectorX(n.Depth) - px + 12,
				Thickness: ps.ConnectorWidth,
				Color:     ps.ConnectorColor,
			}
			if !f.last {
				box.Sibling = &Connector{X: px, Thickness: ps.ConnectorWidth, Color: ps.ConnectorColor}
			}
			if f.last {
				box.Prefix = f.guides + "└── "
			} else {
				box.Prefix = f.guides + "├── "
			}
		}
		if len(n.Children) > 0 {
			box.Trunk = &Connector{
				X:         ConnectorX(n.Depth),
				Thickness: box.Style.ConnectorWidth,
				Color:     box.Style.ConnectorColor,
			}
		}
		l.index[box.Path] = len(l.Boxes)
		l.Boxes = append(l.Boxes, box)

		guides := f.guides
		if f.parent != nil {
			if f.last {
				guides += "    "
			} else {
				guides += "│   "
			}
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{
				node:   n.Children[i],
				parent: n,
				path:   f.path + "." + strconv.Itoa(i),
				last:   i == len(n.Children)-1,
				guides: guides,
			})
		}
	}
	return l
}

// Box returns the box at path.
func (l *Layout) Box(path string) (Box, bool) {
	i, ok := l.index[path]
	if !ok {
		return Box{}, false
	}
	return l.Boxes[i], true
}

// Outline renders the tree as text rows with box-drawing guides.
func (l *Layout) Outline() []string {
	rows := make([]string, 0, len(l.Boxes))
	for _, b := range l.Boxes {
		rows = append(rows, b.Prefix+b.Node.Name)
	}
	return rows
}
