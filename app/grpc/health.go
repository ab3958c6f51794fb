package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name the auth backend reports under in addition to the
// overall ("") status.
const ServiceName = "onlearn.auth"

// Pinger is a backing store the service cannot work without.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// HealthChecker keeps the standard health service in sync with MySQL and
// Redis reachability.
type HealthChecker struct {
	server  *health.Server
	pingers map[string]Pinger
	timeout time.Duration
}

func NewHealthChecker(pingers map[string]Pinger) *HealthChecker {
	return &HealthChecker{
		server:  health.NewServer(),
		pingers: pingers,
		timeout: 2 * time.Second,
	}
}

// Server returns the grpc.health.v1 implementation to register.
func (h *HealthChecker) Server() healthpb.HealthServer {
	return h.server
}

// Check pings every dependency once and publishes the result.
func (h *HealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var err error
	for name, p := range h.pingers {
		if pingErr := p.Ping(ctx); pingErr != nil {
			logrus.WithError(pingErr).WithField("dependency", name).Warn("Health check failed")
			err = multierr.Append(err, pingErr)
		}
	}

	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return err
}

// Run re-checks on every tick until ctx is done.
func (h *HealthChecker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = h.Check(ctx)
		}
	}
}

// Shutdown reports NOT_SERVING to all watchers.
func (h *HealthChecker) Shutdown() {
	h.server.Shutdown()
}
