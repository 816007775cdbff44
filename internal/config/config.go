package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings, read from the environment.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	DatabasePath    string        `env:"DATABASE_PATH" envDefault:"./bookshelf.db"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	LogLevel        slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"text"`

	// RedisAddr enables the token cache and list item events when set.
	RedisAddr string `env:"REDIS_CONNSTRING"`

	Auth      AuthConfig
	Telemetry TelemetryConfig
}

// AuthConfig controls token issuance and password hashing.
type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET" envDefault:"bookshelf-dev-secret-change-me"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"72h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`
}

// TelemetryConfig controls OpenTelemetry export. An empty OTLPEndpoint
// disables OTLP export entirely.
type TelemetryConfig struct {
	ServiceName    string `env:"SERVICE_NAME" envDefault:"bookshelf"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"v0.1.0"`
	OTLPEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	TraceStdout    bool   `env:"OTEL_TRACE_STDOUT" envDefault:"false"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}
	return &cfg, nil
}
