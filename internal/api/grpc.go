package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// healthService reports over the standard gRPC health protocol whether the
// aggregated account view is being served.
type healthService struct {
	srv *health.Server
}

func newHealthService() *healthService {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return &healthService{srv: hs}
}

func (h *healthService) register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
}

func (h *healthService) serving() {
	h.srv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
}

// shutdown marks every service NOT_SERVING and ignores later updates.
func (h *healthService) shutdown() {
	h.srv.Shutdown()
}

// Status returns the overall serving status.
func (h *healthService) Status(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := h.srv.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
