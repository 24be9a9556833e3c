// Package grpc exposes the standard gRPC health service, reporting whether
// screen monitoring is running.
package grpc

import (
	"net"

	"github.com/lcalzada-xor/cyberpet/internal/core/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// MonitorService is the health service name tracking the scheduler.
const MonitorService = "cyberpet.monitor"

type GrpcServer struct {
	server *grpc.Server
	health *health.Server
}

// NewGrpcServer registers the health service. The server as a whole reports
// SERVING; MonitorService starts NOT_SERVING.
func NewGrpcServer() *GrpcServer {
	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(MonitorService, healthpb.HealthCheckResponse_NOT_SERVING)

	return &GrpcServer{server: s, health: hs}
}

// OnMonitorState is installed as the scheduler's state observer.
func (s *GrpcServer) OnMonitorState(state domain.MonitorState) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if state == domain.MonitorRunning {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(MonitorService, status)
}

func (s *GrpcServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// GracefulStop flips every service to NOT_SERVING before draining.
func (s *GrpcServer) GracefulStop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
