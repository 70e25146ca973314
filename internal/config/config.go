package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Backend  BackendConfig  `envPrefix:"BACKEND_"`
	Realtime RealtimeConfig `envPrefix:"REALTIME_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Resolver ResolverConfig `envPrefix:"RESOLVER_"`
}

type ServerConfig struct {
	Addr string `env:"ADDR" envDefault:"127.0.0.1:8080"`
	// CORSOriginPattern matches browser origins allowed to call the gateway;
	// the default covers local UI dev servers.
	CORSOriginPattern string `env:"CORS_ORIGIN_PATTERN" envDefault:"^https?://(localhost|127\\.0\\.0\\.1)(:\\d+)?$"`
}

type BackendConfig struct {
	BaseURL string        `env:"BASE_URL,required"`
	Token   string        `env:"TOKEN"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type RealtimeConfig struct {
	URL                  string        `env:"URL,required"`
	ReconnectBaseDelay   time.Duration `env:"RECONNECT_BASE_DELAY" envDefault:"1s"`
	ReconnectMaxDelay    time.Duration `env:"RECONNECT_MAX_DELAY" envDefault:"30s"`
	MaxReconnectAttempts int           `env:"MAX_RECONNECT_ATTEMPTS" envDefault:"0"`
}

type DatabaseConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"false"`
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"27017"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	Database string `env:"DATABASE" envDefault:"feed_client"`
}

type ResolverConfig struct {
	// RetryDelay is the single-shot delay before the post-conflict re-scan.
	// It exists to dodge a narrow backend race window, not transient network
	// failure, so there is no backoff.
	RetryDelay time.Duration `env:"RETRY_DELAY" envDefault:"1s"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
