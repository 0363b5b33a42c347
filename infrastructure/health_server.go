package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"net"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer exposes the standard gRPC health service for liveness probes
type HealthServer struct {
	addr     string
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
}

// NewHealthServer creates a health server bound to addr once Serve is called
func NewHealthServer(addr string) *HealthServer {
	server := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthServer{
		addr:   addr,
		server: server,
		health: hs,
	}
}

// Listen binds the listener; Addr is valid afterwards
func (h *HealthServer) Listen() error {
	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.addr, err)
	}
	h.listener = lis
	return nil
}

// Addr returns the bound address
func (h *HealthServer) Addr() string {
	if h.listener == nil {
		return h.addr
	}
	return h.listener.Addr().String()
}

// Serve blocks until ctx is cancelled
func (h *HealthServer) Serve(ctx context.Context) error {
	if h.listener == nil {
		if err := h.Listen(); err != nil {
			return err
		}
	}

	go func() {
		<-ctx.Done()
		h.health.Shutdown()
		h.server.GracefulStop()
	}()

	log.WithField("addr", h.Addr()).Info("gRPC health server listening")
	if err := h.server.Serve(h.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("health server failed: %w", err)
	}
	return nil
}

// SetServing flips the overall service status
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
}
