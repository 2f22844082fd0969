// Package grpc serves the standard gRPC health protocol for kokoto. The
// overall status follows periodic probes of the database and the cache.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/hatamake/kokoto-httpd/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Check is one dependency probed for readiness.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthServer struct {
	address  string
	checks   []Check
	interval time.Duration
	logger   logging.Logger
	health   *health.Server
}

func NewHealthServer(a string, l logging.Logger, interval time.Duration, checks ...Check) *HealthServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthServer{
		address:  a,
		checks:   checks,
		interval: interval,
		logger:   l.With("module", "grpc_server"),
		health:   health.NewServer(),
	}
}

// Probe runs every check once and publishes the result as the overall
// serving status. It reports whether all checks passed.
func (s *HealthServer) Probe(ctx context.Context) bool {
	ok := true
	for _, c := range s.checks {
		pingCtx, cancel := context.WithTimeout(ctx, s.interval)
		err := c.Ping(pingCtx)
		cancel()
		if err != nil {
			s.logger.Warn(ctx, "health check failed", "check", c.Name, "error", err)
			ok = false
		}
	}

	st := healthpb.HealthCheckResponse_SERVING
	if !ok {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	return ok
}

func (s *HealthServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.Probe(ctx)
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping gRPC server...")
				s.health.Shutdown()
				srv.GracefulStop()
				return
			case <-ticker.C:
				s.Probe(ctx)
			}
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
