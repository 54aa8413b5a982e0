// Package httpapi is the HTTP shell around the conversion pipeline:
// routing, request parsing, and response serialization. All conversion
// semantics live in the root package.
package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter wires the service routes and middleware stack.
func NewRouter(h *Handler, log *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Get("/metrics", h.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/convert", h.Convert)
	})

	return r
}
