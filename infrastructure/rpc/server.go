// Package rpc runs the gRPC endpoint used by orchestrators to probe the relay.
package rpc

import (
	"errors"
	"fmt"
	"log/slog"
	"net"

	grpc3 "github.com/mama165/sdk-go/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health entry tracking the relay as a whole.
const ServiceName = "chat-relay"

type Server struct {
	log    *slog.Logger
	server *grpc.Server
	health *health.Server
}

// NewServer starts in NOT_SERVING until the first health check passes.
func NewServer(log *slog.Logger) *Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(grpc3.UnaryLoggingInterceptor(log)))
	h := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, h)
	reflection.Register(s)

	server := &Server{log: log, server: s, health: h}
	server.SetServing(false)
	return server
}

// SetServing updates both the overall status and the relay entry.
func (s *Server) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Serve blocks until the listener fails or GracefulStop is called.
func (s *Server) Serve(listener net.Listener) error {
	for name := range s.server.GetServiceInfo() {
		s.log.Debug("gRPC exposed service", "name", name)
	}
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("gRPC server error: %w", err)
	}
	return nil
}

// GracefulStop reports NOT_SERVING to watchers before draining calls.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
