package grpc

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// loggingInterceptor logs every unary call with its outcome. Health probes
// are frequent and go to Debug.
func (s *HealthServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	args := []any{
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	}
	switch {
	case err != nil:
		s.logger.Warn(ctx, "grpc call failed", append(args, "error", err)...)
	case strings.HasPrefix(info.FullMethod, "/grpc.health.v1.Health/"):
		s.logger.Debug(ctx, "grpc call", args...)
	default:
		s.logger.Info(ctx, "grpc call", args...)
	}

	return resp, err
}
