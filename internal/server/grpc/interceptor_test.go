package grpc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hatamake/kokoto-httpd/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type recordingLogger struct {
	nopLogger
	mu     sync.Mutex
	levels []string
}

func (r *recordingLogger) record(level string) {
	r.mu.Lock()
	r.levels = append(r.levels, level)
	r.mu.Unlock()
}

func (r *recordingLogger) Debug(context.Context, string, ...any) { r.record("debug") }
func (r *recordingLogger) Info(context.Context, string, ...any)  { r.record("info") }
func (r *recordingLogger) Warn(context.Context, string, ...any)  { r.record("warn") }
func (r *recordingLogger) With(...any) logging.Logger            { return r }

func TestLoggingInterceptor(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		handlerErr error
		wantLevel  string
	}{
		{"health probe", "/grpc.health.v1.Health/Check", nil, "debug"},
		{"other call", "/pkg.Service/Method", nil, "info"},
		{"failure", "/grpc.health.v1.Health/Check", status.Error(codes.NotFound, "unknown service"), "warn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLogger{}
			s := NewHealthServer("", log, time.Second)

			h := func(ctx context.Context, req any) (any, error) {
				return "ok", tt.handlerErr
			}
			resp, err := s.loggingInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, h)
			if err != tt.handlerErr {
				t.Fatalf("error = %v, want %v", err, tt.handlerErr)
			}
			if resp != "ok" {
				t.Fatalf("unexpected handler resp: %v", resp)
			}
			if len(log.levels) != 1 || log.levels[0] != tt.wantLevel {
				t.Fatalf("levels = %v, want [%s]", log.levels, tt.wantLevel)
			}
		})
	}
}
