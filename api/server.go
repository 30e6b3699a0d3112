package api

import (
	"net/http"
	"sync"

	"adogo/app"
	"adogo/internal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes engine sessions over HTTP. Sessions are held in memory;
// each carries its own lock because an engine is not safe for concurrent
// mutation.
type Server struct {
	router   *chi.Mux
	logger   *internal.Logger
	seed     int64
	epsilon  float64
	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	mu  sync.Mutex
	svc *app.ExperimentService
}

// Config holds server configuration
type Config struct {
	Seed    int64
	Epsilon float64
}

// NewServer creates the API server and wires its routes.
func NewServer(cfg Config, logger *internal.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		seed:     cfg.Seed,
		epsilon:  cfg.Epsilon,
		sessions: make(map[string]*session),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.Get("/api/models", s.handleListModels)
	s.router.Post("/api/sessions", s.handleCreateSession)
	s.router.Get("/api/sessions/{id}/design", s.handleSelectDesign)
	s.router.Post("/api/sessions/{id}/update", s.handleUpdate)
	s.router.Get("/api/sessions/{id}/posterior", s.handlePosterior)
	s.router.Get("/api/sessions/{id}/trials", s.handleTrials)
	s.router.Post("/api/sessions/{id}/reset", s.handleReset)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("API server listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) lookup(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) register(id string, svc *app.ExperimentService) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &session{svc: svc}
}
