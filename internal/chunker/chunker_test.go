package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExcerpt_ShortTextUnchanged(t *testing.T) {
	text := "短文本\n\nshort text"
	if got := Excerpt(text, 3000); got != text {
		t.Errorf("expected text unchanged, got %q", got)
	}
}

func TestExcerpt_BacksUpToParagraph(t *testing.T) {
	first := strings.Repeat("a", 90)
	text := first + "\n\n" + strings.Repeat("b", 50)
	got := Excerpt(text, 100)
	if got != first {
		t.Errorf("expected cut at paragraph boundary, got %d runes", utf8.RuneCountInString(got))
	}
}

func TestExcerpt_BacksUpToSentence(t *testing.T) {
	text := strings.Repeat("研", 80) + "。" + strings.Repeat("究", 40)
	got := Excerpt(text, 100)
	if !strings.HasSuffix(got, "。") || utf8.RuneCountInString(got) != 81 {
		t.Errorf("expected cut after the sentence terminator, got %q", got)
	}
}

func TestExcerpt_HardCutWhenBoundaryTooEarly(t *testing.T) {
	text := "intro\n\n" + strings.Repeat("词", 200)
	got := Excerpt(text, 100)
	if n := utf8.RuneCountInString(got); n != 100 {
		t.Errorf("expected 100 runes, got %d", n)
	}
	if !utf8.ValidString(got) {
		t.Error("excerpt split a rune")
	}
}

func TestExcerpt_DefaultBudget(t *testing.T) {
	got := Excerpt(strings.Repeat("x", 5000), 0)
	if n := utf8.RuneCountInString(got); n != DefaultExcerptRunes {
		t.Errorf("expected %d runes, got %d", DefaultExcerptRunes, n)
	}
}

func TestSplitParagraphs(t *testing.T) {
	got := SplitParagraphs("one\r\n\r\n\n\n  two  \n\n")
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("got %q", got)
	}
}

func TestFirstLines(t *testing.T) {
	got := FirstLines("  a \n\n b\nc\nd", 3)
	if strings.Join(got, ",") != "a,b,c" {
		t.Errorf("got %q", got)
	}
	if len(FirstLines("", 10)) != 0 {
		t.Error("expected no lines for empty text")
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("empty text should be zero tokens")
	}
	if got := EstimateTokens("方法论"); got != 3 {
		t.Errorf("expected 3 tokens for three Han characters, got %d", got)
	}
	if got := EstimateTokens("three plain words"); got != 3 {
		t.Errorf("expected 3 tokens, got %d", got)
	}
}
