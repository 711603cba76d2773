package mindmap

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestNormalize_Truncation(t *testing.T) {
	root, _ := Normalize(map[string]any{
		"name": strings.Repeat("a", 35),
		"children": []any{
			map[string]any{
				"name": "b",
				"children": []any{
					map[string]any{"name": strings.Repeat("c", 20)},
				},
			},
		},
	})
	require.NotNil(t, root)
	assert.Equal(t, strings.Repeat("a", 30)+"...", root.Name)
	assert.Len(t, root.Name, 33)

	deep := root.Children[0].Children[0]
	assert.Equal(t, strings.Repeat("c", 15)+"...", deep.Name)
	assert.Len(t, deep.Name, 18)
}

func TestNormalize_TruncationCountsRunes(t *testing.T) {
	name := strings.Repeat("临", 25)
	root, _ := Normalize(map[string]any{
		"name":     "root",
		"children": []any{map[string]any{"name": name}},
	})
	child := root.Children[0]
	assert.Equal(t, 20+len(Ellipsis), utf8.RuneCountInString(child.Name))
	assert.True(t, strings.HasPrefix(child.Name, strings.Repeat("临", 20)))
}

func TestNormalize_PlaceholderAndDiagnostics(t *testing.T) {
	root, diag := Normalize(map[string]any{
		"children": []any{map[string]any{"keywords": []any{"x"}}},
	})
	require.NotNil(t, root)
	assert.True(t, root.Placeholder)
	assert.Equal(t, "unnamed-node-0", root.Name)
	assert.Equal(t, "unnamed-node-1", root.Children[0].Name)
	assert.Len(t, diag.Warnings, 2)
	assert.Equal(t, "0", diag.Warnings[0].Path)
	assert.Equal(t, "0.0", diag.Warnings[1].Path)
}

func TestNormalize_ScalarNames(t *testing.T) {
	root, diag := Normalize(decode(t, `{"name": 2024, "children": [
		{"name": true}, {"name": 1.5}, {"name": 0}, {"name": false}, {"name": {"x": 1}}
	]}`))
	require.NotNil(t, root)

	assert.Equal(t, "2024", root.Name)
	assert.False(t, root.Placeholder)
	names := make([]string, len(root.Children))
	for i, c := range root.Children {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"true", "1.5", PlaceholderName(1), PlaceholderName(1), PlaceholderName(1)}, names)
	assert.Len(t, diag.Warnings, 3)
}

func TestNormalize_FiltersMalformedChildren(t *testing.T) {
	raw := decode(t, `{"name":"root","children":[null,"text",42,{"name":"ok"},[1,2],{"name":"also ok","children":"nope"}]}`)
	root, diag := Normalize(raw)
	require.NotNil(t, root)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "ok", root.Children[0].Name)
	assert.Equal(t, "also ok", root.Children[1].Name)
	assert.Empty(t, root.Children[1].Children)
	assert.Len(t, diag.Warnings, 4)
}

func TestNormalize_NonObjectRoot(t *testing.T) {
	for _, raw := range []any{nil, "x", 3.0, []any{}} {
		root, _ := Normalize(raw)
		assert.Nil(t, root)
	}
}

func TestNormalize_Keywords(t *testing.T) {
	raw := decode(t, `{"name":"n","keywords":["方法论","",1,"  ","trial"]}`)
	root, _ := Normalize(raw)
	assert.Equal(t, []string{"方法论", "trial"}, root.Keywords)

	root, _ = Normalize(decode(t, `{"name":"n","keywords":"not-an-array"}`))
	assert.NotNil(t, root.Keywords)
	assert.Empty(t, root.Keywords)
	assert.False(t, root.HasKeywords())
}

func TestNormalize_Deterministic(t *testing.T) {
	raw := decode(t, `{"name":"总览","keywords":[],"children":[{"name":"方法","keywords":["方法论"],"children":[]}]}`)
	a, _ := Normalize(raw)
	b, _ := Normalize(raw)
	assert.Equal(t, a, b)
}

func TestNormalize_Invariants(t *testing.T) {
	raw := decode(t, `{"name":"`+strings.Repeat("x", 50)+`","children":[
		{"children":[{"name":"`+strings.Repeat("y", 40)+`","children":[{"name":"`+strings.Repeat("z", 40)+`"}]}]},
		null,
		{"name":"short"}
	]}`)
	root, _ := Normalize(raw)
	Walk(root, func(n *Node) bool {
		assert.NotEmpty(t, n.Name)
		assert.LessOrEqual(t, utf8.RuneCountInString(n.Name), NameCap(n.Depth)+len(Ellipsis))
		for _, c := range n.Children {
			assert.NotNil(t, c)
		}
		return true
	})
}

func TestNormalize_DepthBound(t *testing.T) {
	var raw any = map[string]any{"name": "leaf"}
	for i := 0; i < MaxDepth+10; i++ {
		raw = map[string]any{"name": "n", "children": []any{raw}}
	}
	root, diag := Normalize(raw)
	require.NotNil(t, root)

	maxDepth := 0
	Walk(root, func(n *Node) bool {
		if n.Depth > maxDepth {
			maxDepth = n.Depth
		}
		return true
	})
	assert.Equal(t, MaxDepth, maxDepth)
	assert.NotEmpty(t, diag.Warnings)
}

func TestWalk_PreOrder(t *testing.T) {
	root, _ := Normalize(decode(t, `{"name":"a","children":[{"name":"b","children":[{"name":"c"}]},{"name":"d"}]}`))
	var names []string
	Walk(root, func(n *Node) bool {
		names = append(names, n.Name)
		return true
	})
	assert.Equal(t, []string{"a", "b", "c", "d"}, names)
	assert.Equal(t, 4, Count(root))
}
