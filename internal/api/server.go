package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/avisingh/tradescan/internal/dataset"
	"github.com/avisingh/tradescan/internal/pipeline"
	"github.com/avisingh/tradescan/internal/source"
)

type Server struct {
	router      *chi.Mux
	controller  *pipeline.Controller
	registry    *source.Registry
	reader      *dataset.Reader
	sampleCount int
}

func NewServer(controller *pipeline.Controller, registry *source.Registry, reader *dataset.Reader, sampleCount int) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		controller:  controller,
		registry:    registry,
		reader:      reader,
		sampleCount: sampleCount,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/api/sources", s.handleListSources)
	s.router.Get("/api/categories", s.handleListCategories)
	s.router.Post("/api/scrape", s.handleScrape)
	s.router.Get("/api/status", s.handleStatus)
	s.router.Get("/api/datasets", s.handleListDatasets)
	s.router.Get("/api/data/{filename}", s.handleDataPreview)
	s.router.Get("/api/download/{filename}", s.handleDownload)
	s.router.Get("/api/stats", s.handleStats)
	s.router.Get("/api/metrics", s.handleMetrics)
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  "healthy",
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
