package generate

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dgallion1/docmind/internal/mindmap"
)

const (
	chineseRootName = "文档分析结果"
	englishRootName = "Document Analysis Result"
)

func tree(name string, children ...string) map[string]any {
	kids := make([]any, 0, len(children))
	for _, c := range children {
		kids = append(kids, map[string]any{"name": c})
	}
	return map[string]any{"name": name, "children": kids}
}

func dual(zh, en map[string]any) map[string]any {
	return map[string]any{
		string(mindmap.Chinese): zh,
		string(mindmap.English): en,
	}
}

// ParseFailedTree is returned when a model reply held no usable JSON.
func ParseFailedTree() map[string]any {
	return dual(
		tree(chineseRootName, "JSON解析失败，请检查AI返回格式"),
		tree(englishRootName, "JSON parsing failed, please check AI response format"),
	)
}

// Sanitize coerces whatever the model produced into a dual-language payload
// whose language entries are objects with a name. Node-level repair is left
// to mindmap.Normalize.
func Sanitize(raw any, log *slog.Logger) map[string]any {
	if log == nil {
		log = slog.Default()
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		log.Warn("mind map is not an object", "type", fmt.Sprintf("%T", raw))
		return dual(
			tree(chineseRootName, "数据格式错误，请检查AI返回结果"),
			tree(englishRootName, "Data format error, please check AI response"),
		)
	}

	_, hasZh := obj[string(mindmap.Chinese)]
	_, hasEn := obj[string(mindmap.English)]
	if !hasZh && !hasEn {
		_, hasName := obj["name"]
		_, hasChildren := obj["children"]
		if hasName && hasChildren {
			log.Warn("single-language mind map, using it for both languages")
			return dual(obj, obj)
		}
		fields := keys(obj)
		log.Warn("mind map missing name or children", "fields", fields)
		list := strings.Join(fields, ", ")
		return dual(
			tree(chineseRootName, "数据格式不完整", "可用字段: "+list),
			tree(englishRootName, "Incomplete data format", "Available fields: "+list),
		)
	}

	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	if hasZh && !namedObject(out[string(mindmap.Chinese)]) {
		log.Warn("chinese mind map malformed")
		out[string(mindmap.Chinese)] = tree(chineseRootName, "数据格式错误")
	}
	if hasEn && !namedObject(out[string(mindmap.English)]) {
		log.Warn("english mind map malformed")
		out[string(mindmap.English)] = tree(englishRootName, "Data format error")
	}
	return out
}

func namedObject(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, ok = m["name"]
	return ok
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
