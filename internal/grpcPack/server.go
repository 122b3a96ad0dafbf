package grpcPack

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	kvErr "github.com/sajjad-MoBe/tuplespace/internal/errors"
	"github.com/sajjad-MoBe/tuplespace/internal/shared"
	"github.com/sajjad-MoBe/tuplespace/internal/storage"
)

// Server implements the tuplespace.Admin gRPC service
type Server struct {
	store   *storage.TupleSpace
	health  *shared.HealthManager
	logger  *shared.Logger
	metrics ServerMetrics
}

// ServerMetrics counts admin RPCs
type ServerMetrics struct {
	StatsCount  int64
	HealthCount int64
	ErrorCount  int64
}

// NewServer creates a new admin service instance
func NewServer(store *storage.TupleSpace, health *shared.HealthManager, logger *shared.Logger) *Server {
	return &Server{
		store:  store,
		health: health,
		logger: logger,
	}
}

// Stats implements AdminServer
func (s *Server) Stats(ctx context.Context, req *StatsRequest) (*StatsResponse, error) {
	atomic.AddInt64(&s.metrics.StatsCount, 1)

	if ctx.Err() != nil {
		return nil, status.Error(codes.Canceled, "request canceled")
	}
	return &StatsResponse{Snapshot: s.store.Snapshot()}, nil
}

// Health implements AdminServer
func (s *Server) Health(ctx context.Context, req *HealthRequest) (*HealthResponse, error) {
	atomic.AddInt64(&s.metrics.HealthCount, 1)

	overall, components := s.health.Overall(ctx)
	if req.Component == "" {
		return &HealthResponse{Status: overall, Components: components}, nil
	}

	component, ok := components[req.Component]
	if !ok {
		atomic.AddInt64(&s.metrics.ErrorCount, 1)
		s.logger.Warn("Health requested for unknown component %q", req.Component)
		return nil, kvErr.New(kvErr.ErrorTypeNotFound, fmt.Sprintf("no health checker named %q", req.Component), nil)
	}
	return &HealthResponse{
		Status:     component.Status,
		Components: map[string]shared.HealthStatus{req.Component: component},
	}, nil
}

// GetMetrics returns a copy of the RPC counters
func (s *Server) GetMetrics() ServerMetrics {
	return ServerMetrics{
		StatsCount:  atomic.LoadInt64(&s.metrics.StatsCount),
		HealthCount: atomic.LoadInt64(&s.metrics.HealthCount),
		ErrorCount:  atomic.LoadInt64(&s.metrics.ErrorCount),
	}
}

// NewGRPCServer builds a grpc.Server with the admin service and error interceptor installed
func NewGRPCServer(srv *Server) *grpc.Server {
	s := grpc.NewServer(grpc.UnaryInterceptor(UnaryErrorInterceptor))
	RegisterAdminServer(s, srv)
	return s
}

// Serve serves the admin service on l until s is stopped
func Serve(s *grpc.Server, l net.Listener, logger *shared.Logger) error {
	logger.Info("Admin gRPC server listening on %s", l.Addr())
	if err := s.Serve(l); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("admin gRPC server: %w", err)
	}
	return nil
}
