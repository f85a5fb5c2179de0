// Package api exposes the article pipeline over HTTP: submit a job,
// poll its state, fetch the gated result, via a chi/cors router narrowed
// to the one resource this program actually produces.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/soochol/blogforge/internal/pipeline"
)

// Server hosts the article-generation HTTP API over one shared
// RegenerationController.
type Server struct {
	controller *pipeline.RegenerationController
	jobs       *JobStore
}

// NewServer builds a Server driving controller, with its own in-memory
// job store for background runs submitted through the API.
func NewServer(controller *pipeline.RegenerationController) *Server {
	return &Server{
		controller: controller,
		jobs:       NewJobStore(),
	}
}

// Handler builds the chi router: article submission/lookup plus a
// liveness probe.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Route("/api/articles", func(r chi.Router) {
		r.Post("/", s.submitArticle)
		r.Get("/{jobID}", s.getArticle)
	})

	return r
}
