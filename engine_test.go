package docconv

import (
	"context"
	"testing"
)

type stubEngine struct{ name string }

func (s *stubEngine) Convert(context.Context, *Workspace, string, string, bool) (*Outcome, error) {
	return &Outcome{Bytes: []byte(s.name)}, nil
}

func TestRouterRoute(t *testing.T) {
	t.Parallel()

	sub := &stubEngine{name: "subprocess"}
	native := &stubEngine{name: "native"}

	tests := []struct {
		name   string
		router Router
		from   string
		to     string
		want   Engine
	}{
		{"markdown to pdf goes native", Router{Subprocess: sub, Native: native}, "md", "pdf", native},
		{"long tag markdown goes native", Router{Subprocess: sub, Native: native}, "markdown", "pdf", native},
		{"html to pdf goes native", Router{Subprocess: sub, Native: native}, "html", "pdf", native},
		{"htm to pdf goes native", Router{Subprocess: sub, Native: native}, "htm", "pdf", native},
		{"docx to pdf stays subprocess", Router{Subprocess: sub, Native: native}, "docx", "pdf", sub},
		{"markdown to docx stays subprocess", Router{Subprocess: sub, Native: native}, "md", "docx", sub},
		{"native disabled", Router{Subprocess: sub}, "md", "pdf", sub},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.router.Route(tt.from, tt.to); got != tt.want {
				t.Errorf("Route(%q, %q) routed to the wrong engine", tt.from, tt.to)
			}
		})
	}
}
