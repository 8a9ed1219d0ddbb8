package grpcapi

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service entry reporting webhook processing.
const ServiceName = "reconciler.Processing"

// HealthReporter publishes the worker pool state through grpc.health.v1.
type HealthReporter struct {
	server *health.Server
	ready  func() bool
	logger *slog.Logger
}

func NewHealthReporter(ready func() bool, logger *slog.Logger) *HealthReporter {
	return &HealthReporter{server: health.NewServer(), ready: ready, logger: logger}
}

func (h *HealthReporter) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Refresh sets the serving status from the current pool state.
func (h *HealthReporter) Refresh() {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if h.ready() {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
}

// Watch refreshes the status every interval until ctx is done, then reports
// NOT_SERVING for good.
func (h *HealthReporter) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Refresh()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			h.logger.Info("health reporter stopped")
			return
		case <-ticker.C:
			h.Refresh()
		}
	}
}
