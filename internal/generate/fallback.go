package generate

import (
	"strings"

	"github.com/dgallion1/docmind/internal/chunker"
)

const mockSampleRunes = 500

type mockSlot struct {
	zh, en       string
	zhKey, enKey string
}

// Slots in pre-order: root, then three chapters of two points each.
var mockSlots = []mockSlot{
	{"文档分析结果", "Document Analysis Result", "", ""},
	{"第一章：概述", "Chapter 1: Overview", "概述", "overview"},
	{"背景介绍", "Background", "背景", "background"},
	{"目标设定", "Objectives", "目标", "objectives"},
	{"第二章：主要内容", "Chapter 2: Main Content", "内容", "content"},
	{"核心概念", "Core Concepts", "概念", "concepts"},
	{"实施方法", "Implementation Methods", "方法", "methods"},
	{"第三章：总结", "Chapter 3: Summary", "总结", "summary"},
	{"关键要点", "Key Points", "要点", "points"},
	{"未来展望", "Future Outlook", "展望", "outlook"},
}

// MockTree builds a demonstration mind map whose keywords are words taken
// from the start of text, so highlighting works without a model.
func MockTree(text string) map[string]any {
	sample := []rune(text)
	if len(sample) > mockSampleRunes {
		sample = sample[:mockSampleRunes]
	}
	words := strings.Fields(string(sample))
	keywordsFor := func(slot int, fallback string) []any {
		start, end := slot*3, slot*3+3
		if slot == 0 {
			out := []any{}
			for _, w := range words[:min(3, len(words))] {
				out = append(out, w)
			}
			return out
		}
		if len(words) > end {
			return []any{words[start], words[start+1], words[start+2]}
		}
		return []any{fallback}
	}

	build := func(zh bool) map[string]any {
		node := func(slot int) map[string]any {
			s := mockSlots[slot]
			name, key := s.en, s.enKey
			if zh {
				name, key = s.zh, s.zhKey
			}
			return map[string]any{"name": name, "keywords": keywordsFor(slot, key)}
		}
		root := node(0)
		var chapters []any
		for ch := 1; ch < len(mockSlots); ch += 3 {
			c := node(ch)
			c["children"] = []any{node(ch + 1), node(ch + 2)}
			chapters = append(chapters, c)
		}
		root["children"] = chapters
		return root
	}
	return dual(build(true), build(false))
}

// FallbackTree lists the first lines of the document when the model could
// not be reached.
func FallbackTree(text string) map[string]any {
	lines := chunker.FirstLines(text, 10)
	return dual(tree("文档内容", lines...), tree("Document Content", lines...))
}
