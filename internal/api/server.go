package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sajjad-MoBe/tuplespace/internal/shared"
	"github.com/sajjad-MoBe/tuplespace/internal/storage"
)

// Server is the admin HTTP server exposing stats, health and Prometheus metrics
type Server struct {
	router     *mux.Router
	store      *storage.TupleSpace
	metrics    *Metrics
	health     *shared.HealthManager
	logger     *shared.Logger
	httpServer *http.Server
}

// NewServer creates a new admin server instance
func NewServer(store *storage.TupleSpace, metrics *Metrics, health *shared.HealthManager, logger *shared.Logger) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		store:   store,
		metrics: metrics,
		health:  health,
		logger:  logger,
	}
	s.setupRoutes()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// setupRoutes configures all admin routes
func (s *Server) setupRoutes() {
	s.router.Use(
		RecoveryMiddleware,
		LoggingMiddleware(s.logger),
		s.metrics.MetricsMiddleware,
	)

	s.router.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
}

// Router returns the configured handler
func (s *Server) Router() http.Handler {
	return s.router
}

// Serve serves admin requests on l until Shutdown
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("Admin HTTP server listening on %s", l.Addr())
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin HTTP server: %w", err)
	}
	return nil
}

// Start listens on addr and serves admin requests
func (s *Server) Start(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(l)
}

// Shutdown gracefully stops the admin server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleStats handles GET /stats requests
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleHealth handles GET /health requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	overall, status := s.health.Overall(r.Context())

	response := map[string]interface{}{
		"status":     overall,
		"timestamp":  time.Now(),
		"components": status,
	}

	code := http.StatusOK
	if overall != shared.StatusOK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}
