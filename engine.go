package docconv

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Engine converts a staged input file into an Outcome. The subprocess
// invoker is the default engine; the native engine handles the
// Markdown/HTML fast path in-process when enabled. Every engine runs
// under the pipeline's admission slot and deadline scope.
type Engine interface {
	Convert(ctx context.Context, ws *Workspace, from, to string, keepOnDisk bool) (*Outcome, error)
}

// Compile-time interface checks.
var (
	_ Engine = (*Invoker)(nil)
	_ Engine = (*NativeEngine)(nil)
)

// nativeSources are the formats the native engine accepts as input.
var nativeSources = map[string]bool{
	"md":       true,
	"markdown": true,
	"html":     true,
	"htm":      true,
}

// Router selects an engine per format pair: the native engine for
// Markdown/HTML to PDF when configured, the subprocess invoker for
// everything else.
type Router struct {
	Subprocess Engine
	Native     Engine // nil disables the native path
}

// Route returns the engine responsible for the given format pair.
func (r *Router) Route(from, to string) Engine {
	if r.Native != nil && to == "pdf" && nativeSources[from] {
		return r.Native
	}
	return r.Subprocess
}

// NativeEngine renders Markdown or HTML to PDF without the external
// converter, pairing goldmark with a shared headless-Chrome renderer.
type NativeEngine struct {
	md  *markdownRenderer
	pdf *chromeRenderer
}

// NewNativeEngine creates the in-process engine. The timeout only caps
// browser page loads; pipeline deadlines still apply on top.
func NewNativeEngine(timeout time.Duration) *NativeEngine {
	return &NativeEngine{
		md:  newMarkdownRenderer(),
		pdf: newChromeRenderer(timeout),
	}
}

// Convert reads the staged input, renders it to PDF, and returns the
// artifact buffered or written back into the workspace.
func (e *NativeEngine) Convert(ctx context.Context, ws *Workspace, from, to string, keepOnDisk bool) (*Outcome, error) {
	if to != "pdf" || !nativeSources[from] {
		return nil, fmt.Errorf("%w: native engine does not support %s to %s", ErrConversion, from, to)
	}

	data, err := os.ReadFile(ws.InputPath(from)) // #nosec G304 -- path confined to the workspace
	if err != nil {
		return nil, fmt.Errorf("%w: reading staged input: %v", ErrConversion, err)
	}

	htmlContent := string(data)
	if from == "md" || from == "markdown" {
		htmlContent, err = e.md.ToHTML(ctx, string(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConversion, err)
		}
	}

	// Chrome loads documents by file URL, so the rendered HTML goes
	// through the workspace as well.
	renderPath := ws.Stem + ".render.html"
	if err := os.WriteFile(renderPath, []byte(htmlContent), 0o600); err != nil {
		return nil, fmt.Errorf("%w: staging render input: %v", ErrConversion, err)
	}

	pdfBytes, err := e.pdf.RenderFromFile(ctx, renderPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}

	if keepOnDisk {
		outputPath := ws.OutputPath(to)
		if err := os.WriteFile(outputPath, pdfBytes, 0o600); err != nil {
			return nil, fmt.Errorf("%w: writing artifact: %v", ErrConversion, err)
		}
		return &Outcome{Path: outputPath}, nil
	}
	return &Outcome{Bytes: pdfBytes}, nil
}

// Close releases the shared browser.
func (e *NativeEngine) Close() error { return e.pdf.Close() }
