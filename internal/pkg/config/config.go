package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Settings struct {
	Port     string `env:"PORT,     default=8080"`
	Env      string `env:"ENV,      default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// ConfigFile is the path to the YAML gateway configuration snapshot.
	ConfigFile string `env:"CONFIG_FILE, default=config.yml"`

	JWTSecret          string `env:"JWT_SECRET, default=your-secret-key-here"`
	TokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES, default=30"`

	Upstream UpstreamSettings
}

// UpstreamSettings sizes the shared outbound connection pool and bounds the
// per-request upstream timeout.
type UpstreamSettings struct {
	Timeout             time.Duration `env:"UPSTREAM_TIMEOUT, default=30s"`
	MaxIdleConns        int           `env:"UPSTREAM_MAX_IDLE_CONNS, default=100"`
	MaxIdleConnsPerHost int           `env:"UPSTREAM_MAX_IDLE_CONNS_PER_HOST, default=10"`
	MaxConnsPerHost     int           `env:"UPSTREAM_MAX_CONNS_PER_HOST, default=0"`
	IdleConnTimeout     time.Duration `env:"UPSTREAM_IDLE_CONN_TIMEOUT, default=90s"`
}

// Load reads process settings from environment variables using go-envconfig.
func Load() *Settings {
	var s Settings
	if err := envconfig.Process(context.Background(), &s); err != nil {
		panic(fmt.Sprintf("config: failed to load settings: %v", err))
	}
	return &s
}
