// Package results converts heterogeneous engine result payloads into one
// canonical ordered sequence of hits and renders them for display.
package results

import (
	"fmt"
	"strings"

	"github.com/sorenblake/memcap/internal/engine"
)

const (
	// UntitledPlaceholder stands in for hits without a title.
	UntitledPlaceholder = "Untitled"

	// Separator joins rendered hits for human display.
	Separator = "\n\n---\n\n"

	// NoResultsText is the canonical empty-result message.
	NoResultsText = "No results found."
)

// Payload is the tagged union of result shapes the engine produces: a bare
// ordered hit sequence (timeline) or an object wrapping one (find).
type Payload struct {
	hits    []engine.Hit
	wrapped *engine.FindResult
}

// FromHits wraps a bare ordered sequence.
func FromHits(hits []engine.Hit) Payload {
	return Payload{hits: hits}
}

// FromResult wraps a find result object.
func FromResult(r *engine.FindResult) Payload {
	return Payload{wrapped: r}
}

// Normalize returns the canonical ordered hit sequence. A bare sequence
// passes through unchanged; a wrapped object contributes its hits field; a
// wrapped object without hits yields an empty sequence.
func Normalize(p Payload) []engine.Hit {
	if p.hits != nil {
		return p.hits
	}
	if p.wrapped != nil && p.wrapped.Hits != nil {
		return p.wrapped.Hits
	}
	return []engine.Hit{}
}

// Render formats one hit for display. Content precedence: snippet, then full
// text, then preview, then empty. The score suffix appears only when a score
// is present. Trailing whitespace is trimmed. Formatting never alters the
// underlying hit.
func Render(hit engine.Hit) string {
	title := hit.Title
	if title == "" {
		title = UntitledPlaceholder
	}

	content := hit.Snippet
	if content == "" {
		content = hit.Text
	}
	if content == "" {
		content = hit.Preview
	}

	var b strings.Builder
	b.WriteString(title)
	if content != "" {
		b.WriteString("\n")
		b.WriteString(content)
	}
	if hit.Score != nil {
		b.WriteString(fmt.Sprintf("\n(score: %.3f)", *hit.Score))
	}
	return strings.TrimRight(b.String(), " \t\n")
}

// RenderAll joins the rendered hits with the fixed separator. An empty
// sequence renders as the canonical no-results message, never an empty string.
func RenderAll(hits []engine.Hit) string {
	if len(hits) == 0 {
		return NoResultsText
	}
	rendered := make([]string, len(hits))
	for i, h := range hits {
		rendered[i] = Render(h)
	}
	return strings.Join(rendered, Separator)
}
