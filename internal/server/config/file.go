package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/hatamake/kokoto-httpd/internal/flagx"
	"github.com/hatamake/kokoto-httpd/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config for JSON and YAML files. Durations accept "90s"
// style strings or integer nanoseconds. Zero values leave the current setting
// untouched.
type FileConfig struct {
	EndpointAddrHTTP             string            `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPC             string            `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDriver               string            `json:"database_driver" yaml:"database_driver"`
	DatabaseDSN                  string            `json:"database_dsn" yaml:"database_dsn"`
	RedisAddr                    string            `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword                string            `json:"redis_password" yaml:"redis_password"`
	RedisDB                      int               `json:"redis_db" yaml:"redis_db"`
	CacheTTL                     timex.Duration    `json:"cache_ttl" yaml:"cache_ttl"`
	PageSize                     int               `json:"page_size" yaml:"page_size"`
	SecretKey                    string            `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration  timex.Duration    `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration    `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	S3RootUser                   string            `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword               string            `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                     string            `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                     string            `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint               string            `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	Debug                        bool              `json:"debug" yaml:"debug"`
	LogLevel                     string            `json:"log_level" yaml:"log_level"`
	LogFormat                    string            `json:"log_format" yaml:"log_format"`
	Site                         map[string]string `json:"site" yaml:"site"`
}

// parseFile overlays Config with the file given via -c/-config. Files ending
// in .yaml or .yml are decoded as YAML, everything else as JSON. Unreadable
// or invalid files panic: the server must not start half-configured.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	if c.RedisDB != 0 {
		config.RedisDB = c.RedisDB
	}
	if c.CacheTTL.Duration != 0 {
		config.CacheTTL = c.CacheTTL.Duration
	}
	if c.PageSize > 0 {
		config.PageSize = c.PageSize
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.Debug {
		config.Debug = true
	}

	if config.Site == nil {
		config.Site = map[string]string{}
	}
	for k, v := range c.Site {
		config.Site[k] = v
	}
}
