package httpapi

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/samad-59/access-guard-role-Project/internal/obs"
)

const grpcServiceName = "access-guard-api"

type readinessChecker interface {
	Check(ctx context.Context) error
}

// GRPCServer exposes the standard gRPC health service so orchestrators
// can probe the API over gRPC without a bespoke proto.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	probe  readinessChecker
}

// NewGRPCServer creates the gRPC health endpoint backed by the same
// readiness probe the HTTP /readyz handler uses.
func NewGRPCServer(probe readinessChecker) *GRPCServer {
	s := &GRPCServer{
		server: grpc.NewServer(),
		health: health.NewServer(),
		probe:  probe,
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	s.health.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Refresh re-evaluates readiness and publishes the result to health
// watchers and the readiness gauge.
func (s *GRPCServer) Refresh(ctx context.Context) {
	if err := s.probe.Check(ctx); err != nil {
		s.health.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
		obs.SetReady(false)
		return
	}
	s.health.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_SERVING)
	obs.SetReady(true)
}

// Watch keeps the serving status fresh until the context is cancelled.
func (s *GRPCServer) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Serve blocks, serving gRPC on the listener.
func (s *GRPCServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// Stop drains in-flight RPCs and shuts the server down.
func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
