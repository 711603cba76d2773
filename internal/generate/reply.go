package generate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ErrUnparsable is returned when no JSON object can be recovered from a reply.
var ErrUnparsable = errors.New("reply is not valid json")

var objectRe = regexp.MustCompile(`(?s)\{.*\}`)

var md = goldmark.New()

// ParseReply recovers the JSON object a model returned. It looks in a
// ```json fence first, then any fence, then the outermost brace span of the
// remaining text, and finally retries with single quotes swapped for double.
func ParseReply(reply string) (any, error) {
	body := strings.TrimSpace(reply)
	if code, ok := fencedCode(body); ok {
		body = code
	}
	if m := objectRe.FindString(body); m != "" {
		body = m
	}

	var v any
	err := json.Unmarshal([]byte(body), &v)
	if err == nil {
		return v, nil
	}
	if err2 := json.Unmarshal([]byte(strings.ReplaceAll(body, "'", `"`)), &v); err2 == nil {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %v (raw: %s)", ErrUnparsable, err, truncate(body, 200))
}

// fencedCode returns the content of the first ```json block, or else of the
// first fenced block of any language.
func fencedCode(reply string) (string, bool) {
	src := []byte(reply)
	doc := md.Parser().Parse(text.NewReader(src))

	var first, tagged string
	var haveFirst, haveTagged bool
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var buf bytes.Buffer
		lines := fcb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		code := strings.TrimSpace(buf.String())
		if !haveFirst {
			first, haveFirst = code, true
		}
		if strings.EqualFold(string(fcb.Language(src)), "json") {
			tagged, haveTagged = code, true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	switch {
	case haveTagged:
		return tagged, true
	case haveFirst:
		return first, true
	}
	return "", false
}
