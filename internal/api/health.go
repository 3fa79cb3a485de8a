package api

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name of the classifier.
const ServiceName = "flowsentinel.Classifier"

// Health publishes classifier readiness through the standard gRPC health service.
type Health struct {
	server *health.Server
}

// NewHealth creates a health server that starts out NOT_SERVING until Update(true).
func NewHealth() *Health {
	h := &Health{server: health.NewServer()}
	h.Update(false)
	return h
}

// Register attaches the health service to a gRPC server.
func (h *Health) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Update sets the status of the classifier service and of the server as a whole.
func (h *Health) Update(ready bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
}

// Shutdown marks every service NOT_SERVING.
func (h *Health) Shutdown() {
	h.server.Shutdown()
}

// Server exposes the underlying health server.
func (h *Health) Server() healthpb.HealthServer {
	return h.server
}
