package rpc

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"holdem.com/server/logging"
)

var rpcLogger = logging.GetZeroLogger("rpc::health", nil)

// EngineService is the service name reported by the health endpoint.
const EngineService = "holdem.Engine"

type HealthServer struct {
	server *grpc.Server
	health *health.Server
}

func NewHealthServer() *HealthServer {
	s := grpc.NewServer()
	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)
	h.SetServingStatus(EngineService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{server: s, health: h}
}

func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus(EngineService, status)
	h.health.SetServingStatus("", status)
}

// Serve blocks until the listener fails or Stop is called.
func (h *HealthServer) Serve(lis net.Listener) error {
	rpcLogger.Info().Msgf("gRPC health service listening on %s", lis.Addr())
	return h.server.Serve(lis)
}

func (h *HealthServer) Start(portNo int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", portNo))
	if err != nil {
		return err
	}
	return h.Serve(lis)
}

func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
