// Package config loads sample-binary configuration from the environment
// (and an optional .env file), following the same env-tag/envDefault
// convention and load-then-validate shape as the teacher's server
// config.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds everything a sample quote/trade client binary needs to
// connect to the venue and expose its own observability surface.
type Config struct {
	Host         string `env:"FIXVENUE_HOST,required"`
	Username     string `env:"FIXVENUE_USERNAME,required"`
	Password     string `env:"FIXVENUE_PASSWORD,required"`
	SenderCompID string `env:"FIXVENUE_SENDER_COMP_ID,required"`

	HeartBtInt       int           `env:"FIXVENUE_HEARTBEAT_INTERVAL" envDefault:"30"`
	ResendBufferSize int           `env:"FIXVENUE_RESEND_BUFFER_SIZE" envDefault:"10"`
	LogonTimeout     time.Duration `env:"FIXVENUE_LOGON_TIMEOUT" envDefault:"5s"`
	LogoutTimeout    time.Duration `env:"FIXVENUE_LOGOUT_TIMEOUT" envDefault:"5s"`

	OutboundRateLimit int `env:"FIXVENUE_OUTBOUND_RATE_LIMIT" envDefault:"50"`

	MetricsAddr string `env:"FIXVENUE_METRICS_ADDR" envDefault:":9090"`
	StorePath   string `env:"FIXVENUE_STORE_PATH" envDefault:""`

	LogLevel  string `env:"FIXVENUE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"FIXVENUE_LOG_FORMAT" envDefault:"json"`
}

// Load reads configuration from a .env file (if present) and the
// environment, then validates it. logger may be nil.
func Load(logger *zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if logger != nil {
			logger.Info().Msg("no .env file found, using environment variables only")
		}
	} else if logger != nil {
		logger.Info().Msg("loaded configuration from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks field ranges and enums that struct tags cannot
// express.
func (c *Config) Validate() error {
	if c.HeartBtInt < 1 {
		return fmt.Errorf("FIXVENUE_HEARTBEAT_INTERVAL must be > 0, got %d", c.HeartBtInt)
	}
	if c.ResendBufferSize < 1 {
		return fmt.Errorf("FIXVENUE_RESEND_BUFFER_SIZE must be > 0, got %d", c.ResendBufferSize)
	}
	if c.OutboundRateLimit < 1 {
		return fmt.Errorf("FIXVENUE_OUTBOUND_RATE_LIMIT must be > 0, got %d", c.OutboundRateLimit)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("FIXVENUE_LOG_LEVEL must be one of: debug, info, warn, error (got: %s)", c.LogLevel)
	}
	validLogFormats := map[string]bool{"json": true, "console": true}
	if !validLogFormats[c.LogFormat] {
		return fmt.Errorf("FIXVENUE_LOG_FORMAT must be one of: json, console (got: %s)", c.LogFormat)
	}
	return nil
}

// LogConfig logs the (non-secret) configuration fields once at startup.
func (c *Config) LogConfig(logger zerolog.Logger) {
	logger.Info().
		Str("host", c.Host).
		Str("sender_comp_id", c.SenderCompID).
		Int("heartbeat_interval", c.HeartBtInt).
		Int("resend_buffer_size", c.ResendBufferSize).
		Dur("logon_timeout", c.LogonTimeout).
		Dur("logout_timeout", c.LogoutTimeout).
		Int("outbound_rate_limit", c.OutboundRateLimit).
		Str("metrics_addr", c.MetricsAddr).
		Str("store_path", c.StorePath).
		Str("log_level", c.LogLevel).
		Str("log_format", c.LogFormat).
		Msg("configuration loaded")
}
