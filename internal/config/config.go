// Package config loads deskswap settings from the environment.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Files     FilesConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host              string        `envconfig:"HOST" default:"0.0.0.0"`
	Port              string        `envconfig:"PORT" default:"8080"`
	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"10s"`
}

// FilesConfig describes the served directory.
type FilesConfig struct {
	Root         string `envconfig:"ROOT_PATH" default:"/data"`
	ShowHidden   bool   `envconfig:"SHOW_HIDDEN" default:"false"`
	MaxUploadMB  int64  `envconfig:"MAX_UPLOAD_MB" default:"1024"`
	ArchiveLevel int    `envconfig:"ARCHIVE_LEVEL" default:"-1"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"50"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"100"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORSConfig lists the origins allowed to call the API.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// legacyPortEnv is the port variable earlier deployments set. PORT wins
// when both are present.
const legacyPortEnv = "FLASK_PORT"

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if os.Getenv("PORT") == "" {
		if port := os.Getenv(legacyPortEnv); port != "" {
			cfg.Server.Port = port
		} else if cfg.Server.Port == "" {
			cfg.Server.Port = Default().Server.Port
		}
	}

	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			ReadHeaderTimeout: 10 * time.Second,
		},
		Files: FilesConfig{
			Root:         "/data",
			ShowHidden:   false,
			MaxUploadMB:  1024,
			ArchiveLevel: -1,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
	}
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

// MaxUploadBytes converts the upload limit to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Files.MaxUploadMB << 20
}
