// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up the HTTP routes and middleware chains of the
// Sitecraft API server.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sitecraft/internal/handlers"
	"sitecraft/internal/middleware"
)

// maxBodyBytes bounds request bodies; modify/explain carry whole files.
const maxBodyBytes = 2 << 20

// Deps are the handlers and shared services the router wires up.
// Projects may be nil when no database is configured.
type Deps struct {
	AI       *handlers.AI
	Projects *handlers.Projects
	Limiter  middleware.Limiter
}

// New creates and returns the configured Chi router.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/ai", func(r chi.Router) {
			r.Get("/status", d.AI.Status)
			r.Get("/themes", d.AI.Themes)

			// Generation endpoints call paid providers.
			r.Group(func(r chi.Router) {
				if d.Limiter != nil {
					r.Use(middleware.RateLimit(d.Limiter))
				}
				r.Post("/generate", d.AI.GeneratePage)
				r.Post("/generate-project", d.AI.GenerateProject)
				r.Post("/modify", d.AI.ModifyCode)
				r.Post("/explain", d.AI.ExplainCode)
				r.Post("/analyze-url", d.AI.AnalyzeURL)
				r.Post("/chat", d.AI.Chat)
			})
		})

		if d.Projects != nil {
			r.Route("/projects/{id}", func(r chi.Router) {
				r.Get("/", d.Projects.Get)
				r.Get("/history", d.Projects.History)
			})
		}
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
