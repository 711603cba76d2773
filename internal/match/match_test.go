package match

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func units(texts ...string) []Unit {
	out := make([]Unit, len(texts))
	for i, t := range texts {
		out[i] = Unit{ID: string(rune('a' + i)), Page: 1, Text: t}
	}
	return out
}

func matched(results []Result) []bool {
	out := make([]bool, len(results))
	for i, r := range results {
		out[i] = r.Matched
	}
	return out
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "clinical trial", Normalize("  Clinical \t\n TRIAL "))
	assert.Equal(t, "临床试验 结果", NormalizePDF("临床试验，  结果！"))
	assert.Equal(t, "phase2 trial", NormalizePDF("Phase-2 (trial)."))
	assert.Equal(t, "", NormalizePDF("，。!?"))
}

func TestFindMatches_CJKContainmentBothDirections(t *testing.T) {
	for _, sub := range []Substrate{Plain, PDF} {
		res := FindMatches([]string{"临床试验"}, Corpus{Substrate: sub, Units: units("本临床试验结果显示", "临床")})
		require.Len(t, res, 2)
		assert.True(t, res[0].Matched, "superset unit (%s)", sub)
		assert.Equal(t, StrategyContainment, res[0].Strategy)
		assert.True(t, res[1].Matched, "unit contained in keyword (%s)", sub)
		assert.Equal(t, StrategyContainment, res[1].Strategy)
		assert.Equal(t, "临床试验", res[1].Keyword)
	}
}

func TestFindMatches_CaseAndWhitespaceInsensitive(t *testing.T) {
	res := FindMatches([]string{"Clinical  Trial"}, Corpus{Units: units("The CLINICAL\ttrial ended.")})
	assert.True(t, res[0].Matched)
}

func TestFindMatches_CharacterSubset(t *testing.T) {
	res := FindMatches([]string{"临床试验"}, Corpus{Substrate: PDF, Units: units("试 验 临 床")})
	assert.True(t, res[0].Matched)
	assert.Equal(t, StrategySubset, res[0].Strategy)

	res = FindMatches([]string{"临床试验"}, Corpus{Substrate: PDF, Units: units("试 验 临")})
	assert.False(t, res[0].Matched)
}

func TestFindMatches_ProximityOnlyForPDF(t *testing.T) {
	filler := strings.TrimSpace(strings.Repeat("0123456789 ", 6))
	us := units("the trial", "design was", filler, "mmm", "x")

	res := FindMatches([]string{"trial design"}, Corpus{Substrate: PDF, Units: us})
	assert.Equal(t, []bool{true, true, true, false, false}, matched(res))
	assert.Equal(t, StrategyProximity, res[0].Strategy)
	assert.Equal(t, StrategyProximity, res[1].Strategy)

	res = FindMatches([]string{"trial design"}, Corpus{Substrate: Plain, Units: us})
	assert.Equal(t, []bool{false, false, false, false, false}, matched(res))
}

func TestFindMatches_ProximitySkipsSingleRuneUnits(t *testing.T) {
	us := units("the trial", "x", "design")
	res := FindMatches([]string{"trial design"}, Corpus{Substrate: PDF, Units: us})
	assert.False(t, res[1].Matched)
}

func TestFindMatches_ProximityIsPerPage(t *testing.T) {
	us := []Unit{
		{ID: "p1", Page: 1, Text: "trial design"},
		{ID: "p2", Page: 2, Text: "unrelated"},
	}
	res := FindMatches([]string{"trial design"}, Corpus{Substrate: PDF, Units: us})
	assert.Equal(t, []bool{true, false}, matched(res))
}

func TestFindMatches_EmptyInputs(t *testing.T) {
	us := units("anything", "at all")
	assert.Equal(t, []bool{false, false}, matched(FindMatches(nil, Corpus{Units: us})))
	assert.Equal(t, []bool{false, false}, matched(FindMatches([]string{"", "  "}, Corpus{Units: us})))
	assert.Empty(t, FindMatches([]string{"x"}, Corpus{}))
}

func TestFindMatches_EmptyNormalizedUnitNeverMatches(t *testing.T) {
	res := FindMatches([]string{"结果"}, Corpus{Substrate: PDF, Units: units("，。", "   ")})
	assert.Equal(t, []bool{false, false}, matched(res))
}

func TestFindMatches_Idempotent(t *testing.T) {
	corpus := Corpus{Substrate: PDF, Units: units("本临床试验", "结果显示", "方法论部分", "x")}
	kws := []string{"临床试验", "方法论"}
	assert.Equal(t, FindMatches(kws, corpus), FindMatches(kws, corpus))
}

func TestEngine_MinKeywordRunes(t *testing.T) {
	corpus := Corpus{Units: units("a long paragraph", "zzz")}

	permissive := New(DefaultOptions(), nil)
	assert.True(t, permissive.FindMatches([]string{"a"}, corpus)[0].Matched)

	strict := New(Options{MinKeywordRunes: 2}, nil)
	assert.Equal(t, []bool{false, false}, matched(strict.FindMatches([]string{"a"}, corpus)))
}

func TestSummarize(t *testing.T) {
	kws := []string{"临床试验", "缺失"}
	res := FindMatches(kws, Corpus{Units: units("临床试验", "其他内容")})
	s := Summarize(kws, res)
	assert.Equal(t, 2, s.Units)
	assert.Equal(t, 1, s.Matched)
	assert.Equal(t, []string{"缺失"}, s.Unmatched)
}

func TestLines(t *testing.T) {
	us := Lines("first\n\n  \nsecond")
	require.Len(t, us, 2)
	assert.Equal(t, "L1", us[0].ID)
	assert.Equal(t, "L4", us[1].ID)
	assert.Equal(t, "second", us[1].Text)
}
