package parser

import (
	"strings"
	"testing"
)

func TestTextParser_ParagraphSplitting(t *testing.T) {
	input := "研究背景第一行。\n研究背景第二行。\n\n   \n方法论部分描述\n\n\n\nResults."
	tree, err := (&TextParser{}).Parse(strings.NewReader(input), "report.TXT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.Title != "report" {
		t.Errorf("expected title %q, got %q", "report", tree.Title)
	}

	want := []string{"研究背景第一行。\n研究背景第二行。", "方法论部分描述", "Results."}
	if len(tree.Children) != len(want) {
		t.Fatalf("expected %d children, got %d", len(want), len(tree.Children))
	}
	for i, w := range want {
		if tree.Children[i].Text != w {
			t.Errorf("child[%d]: expected %q, got %q", i, w, tree.Children[i].Text)
		}
	}
	if got := tree.FullText(); got != strings.Join(want, "\n") {
		t.Errorf("full text: got %q", got)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	tree, err := (&TextParser{}).Parse(strings.NewReader("\n  \n"), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree.Children) != 0 {
		t.Errorf("expected 0 children for blank input, got %d", len(tree.Children))
	}
	if tree.FullText() != "" {
		t.Errorf("expected empty full text, got %q", tree.FullText())
	}
}

func TestTextParser_InvalidUTF8IsReplaced(t *testing.T) {
	tree, err := (&TextParser{}).Parse(strings.NewReader("ok \xff bytes"), "bad.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tree.Children[0].Text; got != "ok � bytes" {
		t.Errorf("got %q", got)
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"a.pdf", true},
		{"A.PDF", true},
		{"notes.docx", true},
		{"readme.Txt", true},
		{"slides.pptx", false},
		{"page.html", false},
		{"noext", false},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.name)
		if tt.ok && (err != nil || p == nil) {
			t.Errorf("%s: expected parser, got %v", tt.name, err)
		}
		if !tt.ok {
			if _, isUnsupported := err.(*UnsupportedError); !isUnsupported {
				t.Errorf("%s: expected UnsupportedError, got %v", tt.name, err)
			}
		}
		if IsSupportedExtension(tt.name) != tt.ok {
			t.Errorf("%s: IsSupportedExtension = %v", tt.name, !tt.ok)
		}
	}
}
