package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/scafell/recollect/internal/engine"
)

// Server is the recollect HTTP API server.
type Server struct {
	manager *engine.Manager
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server backed by the given memory manager.
func New(manager *engine.Manager, version string) *Server {
	s := &Server{
		manager: manager,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/conversations", s.handleConversation)
		r.Post("/voice", s.handleVoice)
		r.Post("/photo", s.handlePhoto)
		r.Post("/memories", s.handleRemember)

		r.Get("/context", s.handleContext)
		r.Get("/recall", s.handleRecall)
		r.Get("/facts", s.handleFacts)
		r.Get("/procedures", s.handleProcedures)
		r.Get("/stats", s.handleStats)

		r.Post("/session/clear", s.handleClearSession)
		r.Post("/clear", s.handleClearAll)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
