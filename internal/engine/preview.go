package engine

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// ExtractPreview renders markdown down to a plain-text preview of at most
// maxChars runes. Headings, emphasis, and links collapse to their text; code
// blocks are skipped.
func ExtractPreview(markdown string, maxChars int) string {
	src := []byte(markdown)
	doc := goldmark.New().Parser().Parse(gmtext.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(node.Segment.Value(src))
			b.WriteByte(' ')
		default:
			if n.Type() == ast.TypeBlock {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})

	plain := strings.TrimSpace(whitespaceRE.ReplaceAllString(b.String(), " "))
	return truncateRunes(plain, maxChars)
}

// truncateRunes cuts s to at most maxChars runes, appending an ellipsis when
// anything was removed.
func truncateRunes(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	truncated := strings.TrimRight(string(runes[:maxChars]), " ")
	return truncated + "…"
}
