package results

import (
	"strings"
	"testing"

	"github.com/sorenblake/memcap/internal/engine"
)

func scorePtr(f float64) *float64 {
	return &f
}

func TestNormalize_BareSequenceUnchanged(t *testing.T) {
	hits := []engine.Hit{{ID: "a"}, {ID: "b"}}

	got := Normalize(FromHits(hits))
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("Normalize = %v, want the sequence unchanged", got)
	}
}

func TestNormalize_WrappedObject(t *testing.T) {
	res := &engine.FindResult{Hits: []engine.Hit{{ID: "x"}}, Total: 1}

	got := Normalize(FromResult(res))
	if len(got) != 1 || got[0].ID != "x" {
		t.Errorf("Normalize = %v, want the hits field", got)
	}
}

func TestNormalize_WrappedWithoutHits(t *testing.T) {
	got := Normalize(FromResult(&engine.FindResult{}))
	if got == nil {
		t.Fatal("Normalize should return an empty sequence, not nil")
	}
	if len(got) != 0 {
		t.Errorf("Normalize = %v, want empty", got)
	}
}

func TestNormalize_ZeroPayload(t *testing.T) {
	got := Normalize(Payload{})
	if got == nil || len(got) != 0 {
		t.Errorf("Normalize = %v, want empty sequence", got)
	}
}

func TestRender_ContentPrecedence(t *testing.T) {
	tests := []struct {
		name string
		hit  engine.Hit
		want string
	}{
		{
			"snippet wins over text",
			engine.Hit{Title: "T", Snippet: "snip", Text: "full"},
			"T\nsnip",
		},
		{
			"text when no snippet",
			engine.Hit{Title: "T", Text: "full"},
			"T\nfull",
		},
		{
			"preview as last resort",
			engine.Hit{Title: "T", Preview: "pre"},
			"T\npre",
		},
		{
			"no content no crash",
			engine.Hit{Title: "T"},
			"T",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.hit); got != tt.want {
				t.Errorf("Render = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_UntitledPlaceholder(t *testing.T) {
	got := Render(engine.Hit{Text: "body"})
	if !strings.HasPrefix(got, UntitledPlaceholder) {
		t.Errorf("Render = %q, want %q prefix", got, UntitledPlaceholder)
	}
}

func TestRender_ScoreSuffix(t *testing.T) {
	with := Render(engine.Hit{Title: "T", Text: "body", Score: scorePtr(0.8735)})
	if !strings.Contains(with, "(score: 0.874)") {
		t.Errorf("Render = %q, want score suffix", with)
	}

	without := Render(engine.Hit{Title: "T", Text: "body"})
	if strings.Contains(without, "score") {
		t.Errorf("Render = %q, must not mention score without one", without)
	}
}

func TestRender_TrimsTrailingWhitespace(t *testing.T) {
	got := Render(engine.Hit{Title: "T", Text: "body  \n"})
	if got != "T\nbody" {
		t.Errorf("Render = %q, want trailing whitespace trimmed", got)
	}
}

func TestRender_DoesNotMutateHit(t *testing.T) {
	hit := engine.Hit{Snippet: "snip", Text: "full", Preview: "pre"}
	_ = Render(hit)
	if hit.Snippet != "snip" || hit.Text != "full" || hit.Preview != "pre" {
		t.Error("Render must not alter the underlying hit")
	}
}

func TestRenderAll_Empty(t *testing.T) {
	if got := RenderAll(nil); got != NoResultsText {
		t.Errorf("RenderAll(nil) = %q, want %q", got, NoResultsText)
	}
	if got := RenderAll([]engine.Hit{}); got != NoResultsText {
		t.Errorf("RenderAll(empty) = %q, want %q", got, NoResultsText)
	}
}

func TestRenderAll_JoinsWithSeparator(t *testing.T) {
	got := RenderAll([]engine.Hit{
		{Title: "A", Text: "one"},
		{Title: "B", Text: "two"},
	})
	want := "A\none" + Separator + "B\ntwo"
	if got != want {
		t.Errorf("RenderAll = %q, want %q", got, want)
	}
}
