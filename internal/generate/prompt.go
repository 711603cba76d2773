package generate

import "strings"

const SystemPrompt = "You are a document analysis assistant that organizes document content into mind map structures. " +
	"Always return complete, valid JSON containing both a \"chinese\" and an \"english\" field."

const promptHeader = `Analyze the document below and produce a structured mind map.

Requirements:
1. Node names must be short: at most 8 Chinese characters or 4 English words.
2. Child node names must be shorter still: at most 6 Chinese characters or 3 English words.
3. Use keywords or short phrases, never sentences.
4. Produce a Chinese version and an English version.
5. Every node MUST carry a "keywords" field.

About "keywords":
- Each keyword is copied verbatim from the document: a contiguous run of its text.
- Pick the 2-5 most representative keywords per node.
- Never invent or paraphrase; the keywords are used to highlight the original text.

Return JSON in exactly this shape:
{
  "chinese": {
    "name": "文档主题",
    "keywords": ["原文中的词"],
    "children": [
      {"name": "章节1", "keywords": ["原文中的关键句"], "children": [{"name": "要点1", "keywords": ["原文中的词"]}]}
    ]
  },
  "english": {
    "name": "Topic",
    "keywords": ["word from text"],
    "children": [
      {"name": "Chapter 1", "keywords": ["exact text"], "children": [{"name": "Point 1", "keywords": ["from original"]}]}
    ]
  }
}

Document:
`

const promptFooter = `

Return only the JSON mind map with both "chinese" and "english" fields. Keywords must be copied from the document above so they can be highlighted in it.`

// BuildPrompt wraps a document excerpt in the mind map instructions.
func BuildPrompt(excerpt string) string {
	var sb strings.Builder
	sb.Grow(len(promptHeader) + len(excerpt) + len(promptFooter))
	sb.WriteString(promptHeader)
	sb.WriteString(excerpt)
	sb.WriteString(promptFooter)
	return sb.String()
}
