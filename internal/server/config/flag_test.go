package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-grpc", ":6000", "-driver", "sqlite", "-d", "file:kokoto.db",
			"-redis", "localhost:6379", "-cache-ttl", "30", "-page-size", "50", "-s", "secret",
			"-t", "1", "-r", "3", "-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1",
			"-e", "http://endpoint", "-log-level", "debug", "-log-format", "text", "-debug",
		},
			expected: &Config{
				EndpointAddrHTTP:             "127.0.0.1:9090",
				EndpointAddrGRPC:             ":6000",
				DatabaseDriver:               "sqlite",
				DatabaseDSN:                  "file:kokoto.db",
				RedisAddr:                    "localhost:6379",
				CacheTTL:                     30 * time.Second,
				PageSize:                     50,
				SecretKey:                    "secret",
				AccessTokenValidityDuration:  1 * time.Minute,
				RefreshTokenValidityDuration: 3 * time.Minute,
				S3RootUser:                   "user",
				S3RootPassword:               "password",
				S3Bucket:                     "bucket",
				S3Region:                     "us-west-1",
				S3BaseEndpoint:               "http://endpoint",
				Debug:                        true,
				LogLevel:                     "debug",
				LogFormat:                    "text",
			}},
		{name: "foreign flags ignored", args: []string{"cmd", "-config", "x.json", "-zzz", "1", "-page-size", "3"},
			expected: &Config{PageSize: 3}},
		{name: "bad int panics", args: []string{"cmd", "-page-size", "many"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
