// Package mindmap turns untrusted mind-map JSON into a canonical tree.
package mindmap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

const (
	// Ellipsis is appended to names cut at their depth's cap.
	Ellipsis = "..."

	// MaxDepth bounds normalization; deeper subtrees are dropped.
	MaxDepth = 64

	placeholderPrefix = "unnamed-node-"
)

// Node is a canonical mind-map node. Every node has a non-empty name whose
// rune length is at most NameCap(Depth)+len(Ellipsis).
type Node struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Children []*Node  `json:"children"`

	Depth int `json:"-"`
	// Placeholder is set when Name was synthesized because the input had none.
	Placeholder bool `json:"-"`
}

// HasKeywords reports whether activating the node links to the document.
func (n *Node) HasKeywords() bool {
	return n != nil && len(n.Keywords) > 0
}

// NameCap returns the maximum name length in runes for a depth.
func NameCap(depth int) int {
	switch depth {
	case 0:
		return 30
	case 1:
		return 20
	default:
		return 15
	}
}

// PlaceholderName is the synthesized name for a node without one.
func PlaceholderName(depth int) string {
	return placeholderPrefix + strconv.Itoa(depth)
}

// Warning is a data-quality note produced while normalizing.
type Warning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Diagnostics collects warnings. It never affects the normalized result.
type Diagnostics struct {
	Warnings []Warning `json:"warnings"`
}

func (d *Diagnostics) warn(path, format string, args ...any) {
	d.Warnings = append(d.Warnings, Warning{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Log writes every warning at warn level.
func (d Diagnostics) Log(log *slog.Logger) {
	for _, w := range d.Warnings {
		log.Warn("mind map data quality", "path", w.Path, "issue", w.Message)
	}
}

// Normalize converts a decoded JSON value into a canonical tree. A non-object
// root yields nil.
func Normalize(raw any) (*Node, Diagnostics) {
	var diag Diagnostics
	root := normalize(raw, 0, "0", &diag)
	return root, diag
}

// NormalizeJSON decodes data and normalizes it.
func NormalizeJSON(data []byte) (*Node, Diagnostics, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, Diagnostics{}, fmt.Errorf("decode mind map: %w", err)
	}
	root, diag := Normalize(raw)
	return root, diag, nil
}

func normalize(raw any, depth int, path string, diag *Diagnostics) *Node {
	obj, ok := raw.(map[string]any)
	if !ok {
		diag.warn(path, "dropped non-object node (%T)", raw)
		return nil
	}

	n := &Node{Depth: depth, Keywords: []string{}, Children: []*Node{}}

	name := nameOf(obj["name"])
	if name == "" {
		n.Name = PlaceholderName(depth)
		n.Placeholder = true
		if depth == 0 {
			diag.warn(path, "root node has no name")
		} else {
			diag.warn(path, "node has no name")
		}
	} else {
		n.Name = truncateName(name, NameCap(depth))
	}

	if kws, ok := obj["keywords"].([]any); ok {
		for _, kw := range kws {
			s, ok := kw.(string)
			if !ok {
				diag.warn(path, "ignored non-string keyword (%T)", kw)
				continue
			}
			if strings.TrimSpace(s) == "" {
				continue
			}
			n.Keywords = append(n.Keywords, s)
		}
	}

	children, ok := obj["children"].([]any)
	if !ok {
		return n
	}
	if depth+1 > MaxDepth {
		diag.warn(path, "dropped %d children deeper than %d levels", len(children), MaxDepth)
		return n
	}
	for i, c := range children {
		child := normalize(c, depth+1, path+"."+strconv.Itoa(i), diag)
		if child != nil {
			n.Children = append(n.Children, child)
		}
	}
	return n
}

// nameOf renders a scalar name as text. Falsy values (empty string, 0,
// false, null) and composite values yield "".
func nameOf(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		if f, err := v.Float64(); err == nil && f == 0 {
			return ""
		}
		return v.String()
	case bool:
		if !v {
			return ""
		}
		return "true"
	case int:
		if v == 0 {
			return ""
		}
		return strconv.Itoa(v)
	}
	return ""
}

func truncateName(name string, maxRunes int) string {
	runes := []rune(name)
	if len(runes) <= maxRunes {
		return name
	}
	return string(runes[:maxRunes]) + Ellipsis
}

// Walk visits nodes in pre-order without recursion. Returning false from fn
// skips the node's children.
func Walk(root *Node, fn func(n *Node) bool) {
	if root == nil {
		return
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Count returns the number of nodes in the tree.
func Count(root *Node) int {
	total := 0
	Walk(root, func(*Node) bool {
		total++
		return true
	})
	return total
}
