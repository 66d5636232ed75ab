package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServiceName is the gRPC health service name reported alongside the
// server-wide "" entry.
const HealthServiceName = "lotto.Lottery"

// HealthChecker reports whether the service's dependencies are usable.
type HealthChecker func(ctx context.Context) error

// HealthService serves grpc.health.v1 and refreshes its status from a
// HealthChecker on a fixed interval.
type HealthService struct {
	addr     string
	check    HealthChecker
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	grpc   *grpc.Server
	health *health.Server

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
	stopOnce sync.Once
}

// NewHealthService creates a HealthService listening on addr.
//
// Precondition: check and logger are non-nil; interval > 0.
func NewHealthService(addr string, check HealthChecker, interval time.Duration, logger *zap.Logger) *HealthService {
	h := &HealthService{
		addr:     addr,
		check:    check,
		interval: interval,
		timeout:  5 * time.Second,
		logger:   logger,
		grpc:     grpc.NewServer(),
		health:   health.NewServer(),
		done:     make(chan struct{}),
	}
	healthpb.RegisterHealthServer(h.grpc, h.health)
	return h
}

// Refresh runs the checker once and publishes the resulting status.
//
// Postcondition: both "" and HealthServiceName report SERVING iff check
// returned nil.
func (h *HealthService) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.check(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(HealthServiceName, status)
	return status
}

// Addr returns the bound listener address, or nil before Start has listened.
func (h *HealthService) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener == nil {
		return nil
	}
	return h.listener.Addr()
}

// Start listens, publishes an initial status and serves until Stop.
func (h *HealthService) Start() error {
	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.addr, err)
	}
	h.mu.Lock()
	h.listener = lis
	h.mu.Unlock()

	h.Refresh(context.Background())
	go h.poll()

	h.logger.Info("gRPC health service listening",
		zap.String("addr", lis.Addr().String()),
	)
	return h.grpc.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains in-flight calls.
func (h *HealthService) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.health.Shutdown()
		h.grpc.GracefulStop()
	})
}

func (h *HealthService) poll() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.Refresh(context.Background())
		}
	}
}
