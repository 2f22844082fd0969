package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func writeTempJSON(t *testing.T, name string, data map[string]any) string {
	t.Helper()
	b, err := json.Marshal(data)
	require.NoError(t, err)
	return writeTempFile(t, name, string(b))
}

func Test_parseFile_JSON(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "cfg.json", map[string]any{
		"endpoint_addr_http":              "www.example:9000",
		"database_driver":                 "sqlite",
		"database_dsn":                    "file:kokoto.db",
		"redis_addr":                      "redis:6379",
		"redis_db":                        2,
		"cache_ttl":                       "90s",
		"page_size":                       15,
		"secret_key":                      "my_secret_key",
		"access_token_validity_duration":  "1m",
		"refresh_token_validity_duration": "3m",
		"s3_bucket":                       "bucket",
		"debug":                           true,
		"site":                            map[string]string{"title": "wiki"},
	})
	os.Args = []string{"testbin", "-config", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)

	assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
	assert.Equal(t, ":50051", cfg.EndpointAddrGRPC, "absent keys keep defaults")
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "file:kokoto.db", cfg.DatabaseDSN)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 15, cfg.PageSize)
	assert.Equal(t, "my_secret_key", cfg.SecretKey)
	assert.Equal(t, 1*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 3*time.Minute, cfg.RefreshTokenValidityDuration)
	assert.Equal(t, "bucket", cfg.S3Bucket)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "wiki", cfg.Site["title"])
}

func Test_parseFile_YAML(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempFile(t, "cfg.yml", `
endpoint_addr_http: ":9999"
cache_ttl: 5m
log_format: text
site:
  motd: hello
`)
	os.Args = []string{"testbin", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)

	assert.Equal(t, ":9999", cfg.EndpointAddrHTTP)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "hello", cfg.Site["motd"])
	assert.Equal(t, "kokoto", cfg.Site["title"])
}

func Test_parseFile_NoFlagNoChanges(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	cfg := &Config{EndpointAddrHTTP: "defaults:1234", PageSize: 9}
	parseFile(cfg)

	assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
	assert.Equal(t, 9, cfg.PageSize)
}

func Test_parseFile_InvalidPanics(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	bad := writeTempFile(t, "bad.json", `{ this is not valid json`)
	os.Args = []string{"testbin", "-config", bad}
	require.Panics(t, func() { parseFile(&Config{}) })

	os.Args = []string{"testbin", "-config", filepath.Join(t.TempDir(), "missing.yaml")}
	require.Panics(t, func() { parseFile(&Config{}) })
}
