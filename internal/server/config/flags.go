package config

import (
	"flag"
	"os"
	"time"

	"github.com/hatamake/kokoto-httpd/internal/flagx"
)

var serverFlags = []string{
	"-a", "-grpc", "-driver", "-d", "-redis", "-cache-ttl", "-page-size",
	"-s", "-t", "-r", "-u", "-p", "-b", "-g", "-e", "-debug", "-log-level", "-log-format",
}

// parseFlags overlays Config with command-line flags:
//
//	-a string        HTTP bind address (":8080")
//	-grpc string     gRPC health bind address (":50051")
//	-driver string   database driver: pgx | sqlite
//	-d string        database DSN
//	-redis string    Redis address; empty disables the cache
//	-cache-ttl int   cache entry lifetime, seconds (0 = no expiry)
//	-page-size int   search page size
//	-s string        JWT HMAC secret
//	-t int           access token validity, minutes
//	-r int           refresh token validity, minutes
//	-u, -p string    S3 user and password
//	-b, -g, -e       S3 bucket, region, base endpoint
//	-debug           include stack traces in error responses
//	-log-level       debug | info | warn | error
//	-log-format      json | text
//
// Unknown flags are filtered out first so other components can share os.Args.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "grpc", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver (pgx or sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")
	cacheTTL := fs.Int("cache-ttl", int(config.CacheTTL.Seconds()), "cache ttl (in seconds)")
	fs.IntVar(&config.PageSize, "page-size", config.PageSize, "search page size")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.BoolVar(&config.Debug, "debug", config.Debug, "debug mode")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.CacheTTL = time.Duration(*cacheTTL) * time.Second
	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
}
