package docconv

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMarkdownToHTML(t *testing.T) {
	t.Parallel()

	r := newMarkdownRenderer()

	got, err := r.ToHTML(context.Background(), "# Title\n\nSome *emphasis* here.")
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}

	for _, want := range []string{"<!DOCTYPE html>", "<h1", "Title", "<em>emphasis</em>"} {
		if !strings.Contains(got, want) {
			t.Errorf("ToHTML() output missing %q", want)
		}
	}
}

func TestMarkdownToHTMLTables(t *testing.T) {
	t.Parallel()

	r := newMarkdownRenderer()

	got, err := r.ToHTML(context.Background(), "| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	if !strings.Contains(got, "<table>") {
		t.Error("GFM table not rendered")
	}
}

func TestMarkdownToHTMLCodeHighlighting(t *testing.T) {
	t.Parallel()

	r := newMarkdownRenderer()

	got, err := r.ToHTML(context.Background(), "```go\nfunc main() {}\n```\n")
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	// Chroma emits inline-styled spans for recognized languages.
	if !strings.Contains(got, "<span") {
		t.Error("code block not highlighted")
	}
}

func TestMarkdownToHTMLCancelled(t *testing.T) {
	t.Parallel()

	cause := errors.New("gone")
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(cause)

	r := newMarkdownRenderer()
	_, err := r.ToHTML(ctx, "# Title")
	if !errors.Is(err, cause) {
		t.Errorf("ToHTML() error = %v, want %v", err, cause)
	}
}
