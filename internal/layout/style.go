// Package layout positions a canonical mind map for display and tracks
// hover/activation feedback on its nodes.
package layout

// MaxTier is the deepest distinct style tier; deeper nodes share it.
const MaxTier = 3

// MaxIndent caps horizontal indentation in pixels.
const MaxIndent = 480

// Style is one row of the depth-indexed style table.
type Style struct {
	Tier       int
	FontSize   int // px
	FontWeight int
	Padding    string
	Background string
	Color      string
	Border     string

	ConnectorColor string
	ConnectorWidth int // px
	MarginBottom   int // px
}

var styles = [MaxTier + 1]Style{
	{Tier: 0, FontSize: 24, FontWeight: 700, Padding: "12px 24px", Background: "#78350f", Color: "#fffbeb", Border: "#92400e", ConnectorColor: "#b45309", ConnectorWidth: 2, MarginBottom: 24},
	{Tier: 1, FontSize: 20, FontWeight: 600, Padding: "10px 20px", Background: "#92400e", Color: "#fffbeb", Border: "#b45309", ConnectorColor: "#d97706", ConnectorWidth: 1, MarginBottom: 16},
	{Tier: 2, FontSize: 18, FontWeight: 500, Padding: "8px 16px", Background: "#b45309", Color: "#fffbeb", Border: "#d97706", ConnectorColor: "#f59e0b", ConnectorWidth: 1, MarginBottom: 12},
	{Tier: 3, FontSize: 16, FontWeight: 400, Padding: "6px 16px", Background: "#fffbeb", Color: "#78350f", Border: "#fcd34d", ConnectorColor: "#fbbf24", ConnectorWidth: 1, MarginBottom: 8},
}

// Tier maps a depth to its style tier, min(depth, MaxTier).
func Tier(depth int) int {
	if depth < 0 {
		return 0
	}
	if depth > MaxTier {
		return MaxTier
	}
	return depth
}

// StyleFor returns the style for a depth.
func StyleFor(depth int) Style {
	return styles[Tier(depth)]
}

// Indent returns the left offset for a depth. It never decreases with depth
// and stops growing at MaxIndent.
func Indent(depth int) int {
	var px int
	switch {
	case depth <= 0:
		px = 0
	case depth == 1:
		px = 64
	case depth == 2:
		px = 128
	default:
		px = 192 + (depth-3)*48
	}
	if px > MaxIndent {
		px = MaxIndent
	}
	return px
}

// ConnectorX is the x offset of the vertical line that leads from a node at
// depth down to its children.
func ConnectorX(depth int) int {
	if depth <= 0 {
		return 24
	}
	return Indent(depth) - 32
}
