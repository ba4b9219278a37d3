// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/alextanhongpin/shopobs/types/env"
	"github.com/alextanhongpin/shopobs/validator"
)

type Config struct {
	AppName         string        `json:"app_name" validate:"required"`
	Version         string        `json:"version"`
	Port            int           `json:"port" validate:"gt=0,lte=65535"`
	LogLevel        string        `json:"log_level" validate:"oneof=debug info warn error"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" validate:"gt=0"`

	OTel       OTel       `json:"otel"`
	Payment    Payment    `json:"payment"`
	Downstream Downstream `json:"downstream"`

	StressIterations int `json:"stress_iterations" validate:"gt=0"`
}

type OTel struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint" validate:"required_if=Enabled true"`
}

type Payment struct {
	FailureRate float64       `json:"failure_rate" validate:"gte=0,lte=1"`
	MinDelay    time.Duration `json:"min_delay" validate:"gte=0"`
	MaxDelay    time.Duration `json:"max_delay" validate:"gtefield=MinDelay"`
}

// Downstream holds the hosts called by the /chain endpoint.
type Downstream struct {
	TargetOneHost string `json:"target_one_host"`
	TargetTwoHost string `json:"target_two_host"`
}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		AppName:         env.LoadOr("APP_NAME", "ecommerce-service"),
		Version:         env.LoadOr("APP_VERSION", "1.0.0"),
		Port:            env.LoadOr("EXPOSE_PORT", 8000),
		LogLevel:        env.LoadOr("LOG_LEVEL", "info"),
		ShutdownTimeout: env.LoadDurationOr("SHUTDOWN_TIMEOUT", 5*time.Second),
		OTel: OTel{
			Enabled:  env.LoadOr("OTEL_ENABLED", true),
			Endpoint: env.LoadOr("OTLP_GRPC_ENDPOINT", "tempo:4317"),
		},
		Payment: Payment{
			FailureRate: env.LoadOr("PAYMENT_FAILURE_RATE", 0.1),
			MinDelay:    env.LoadDurationOr("PAYMENT_MIN_DELAY", 100*time.Millisecond),
			MaxDelay:    env.LoadDurationOr("PAYMENT_MAX_DELAY", 500*time.Millisecond),
		},
		Downstream: Downstream{
			TargetOneHost: env.LoadOr("TARGET_ONE_HOST", "app-b"),
			TargetTwoHost: env.LoadOr("TARGET_TWO_HOST", "app-c"),
		},
		StressIterations: env.LoadOr("STRESS_ITERATIONS", 1_000_000),
	}

	if err := validator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Level returns the slog level for the configured log level.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}

	return lvl
}
