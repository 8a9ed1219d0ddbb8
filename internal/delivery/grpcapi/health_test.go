package grpcapi

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthReporter_Refresh(t *testing.T) {
	var ready atomic.Bool
	h := NewHealthReporter(ready.Load, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	tests := []struct {
		name  string
		ready bool
		want  healthpb.HealthCheckResponse_ServingStatus
	}{
		{name: "pool stopped", ready: false, want: healthpb.HealthCheckResponse_NOT_SERVING},
		{name: "pool running", ready: true, want: healthpb.HealthCheckResponse_SERVING},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ready.Store(tt.ready)
			h.Refresh()

			resp, err := h.server.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
			if err != nil {
				t.Fatalf("Check failed: %v", err)
			}
			if resp.Status != tt.want {
				t.Errorf("status = %v, want %v", resp.Status, tt.want)
			}
		})
	}
}
