// Package server exposes a read-only status and results API over HTTP:
// recorded runs, their per-workload outputs, the registered workloads, and
// a schedule-build endpoint for validating configurations. It performs no
// remote workload execution.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/xbench/internal/schedule"
	"github.com/me/xbench/internal/store"
	"github.com/me/xbench/internal/workload"
)

// Config holds configuration for the status server.
type Config struct {
	Addr string // Listen address (default ":8080")
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Addr: ":8080"}
}

// Server is the xbench status API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    Config
	startTime time.Time
	store     store.Store
	registry  *workload.Registry
	builder   *schedule.Builder
}

// New creates a Server with all routes registered. st may be nil when no
// results database is configured; run endpoints then report 404.
func New(cfg Config, st store.Store, reg *workload.Registry, builder *schedule.Builder, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		store:     st,
		registry:  reg,
		builder:   builder,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving the API on the configured address.
func (s *Server) ListenAndServe() error {
	s.logger.Info("status server listening", "addr", s.config.Addr)
	return http.ListenAndServe(s.config.Addr, s.router)
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(withRequestID)
	r.Use(logRequests(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/runs/{id}/results", s.handleGetResults)
		r.Get("/workloads", s.handleListWorkloads)
		r.Post("/schedule", s.handleBuildSchedule)
	})
}
