package docconv

import (
	"bytes"
	"context"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

// htmlShell wraps goldmark's fragment output in a complete HTML5
// document for the renderer.
const htmlShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Document</title>
</head>
<body>
%s
</body>
</html>`

// markdownRenderer converts Markdown to HTML in-process using goldmark
// with GFM extensions and chroma-backed code highlighting.
type markdownRenderer struct {
	md goldmark.Markdown
}

func newMarkdownRenderer() *markdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,      // Tables, strikethrough, autolinks, task lists
			extension.Footnote, // [^1] footnotes
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithFormatOptions(chromahtml.WithLineNumbers(false)),
			),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(), // Self-closing tags
		),
	)
	return &markdownRenderer{md: md}
}

// ToHTML converts Markdown content to a standalone HTML5 document.
// Goldmark has no native context support, so conversion runs in a
// goroutine raced against ctx.
func (r *markdownRenderer) ToHTML(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", context.Cause(ctx)
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)
	go func() {
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("rendering markdown: %w", err)}
			return
		}
		done <- result{html: fmt.Sprintf(htmlShell, buf.String())}
	}()

	select {
	case <-ctx.Done():
		return "", context.Cause(ctx)
	case res := <-done:
		return res.html, res.err
	}
}
