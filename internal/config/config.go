package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the insight service.
// Environment variables are automatically parsed from the MINDLOOM_ prefix.
type Config struct {
	// Build target selects high-level environment: local, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// Derived or override driver
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Postgres Configuration
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// SQLite Configuration (local build target)
	SQLitePath string `envconfig:"SQLITE_PATH" default:"mindloom.db"`

	// Auth configuration: static (local dev keys) or remote (identity provider)
	AuthMode string `envconfig:"AUTH_MODE" default:"static"`
	AuthURL  string `envconfig:"AUTH_URL" default:""`

	// Narrative generation (Gemini). Empty API key disables the generative
	// path; the pipeline then always uses the deterministic fallback.
	GeminiAPIKey              string  `envconfig:"GEMINI_API_KEY" default:""`
	GeminiModel               string  `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	GeminiTemperature         float32 `envconfig:"GEMINI_TEMPERATURE" default:"0.4"`
	GeminiMaxRetries          int     `envconfig:"GEMINI_MAX_RETRIES" default:"2"`
	GenerationTimeoutSeconds  int     `envconfig:"GENERATION_TIMEOUT_SECONDS" default:"20"`
	DefaultInsightListLimit   int     `envconfig:"DEFAULT_INSIGHT_LIST_LIMIT" default:"20"`
	EventBufferSize           int     `envconfig:"EVENT_BUFFER_SIZE" default:"16"`
	HealthIntervalSeconds     int     `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int     `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	allowedDB := map[string]bool{"postgres": true, "sqlite": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required for the postgres driver")
	}
	if c.AuthMode == "remote" && c.AuthURL == "" {
		return fmt.Errorf("AUTH_URL is required for remote auth mode")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Environment variables should be prefixed with MINDLOOM_
// Example: MINDLOOM_HTTP_PORT, MINDLOOM_POSTGRES_DSN
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("MINDLOOM", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("auth_mode", cfg.AuthMode).
		Str("gemini_model", cfg.GeminiModel).
		Bool("gemini_key_present", cfg.GeminiAPIKey != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		BuildTarget:               "local",
		DBDriver:                  "sqlite",
		Environment:               EnvTesting,
		HTTPPort:                  8080,
		SQLitePath:                ":memory:",
		AuthMode:                  "static",
		GeminiModel:               "gemini-2.0-flash",
		GeminiTemperature:         0.4,
		GeminiMaxRetries:          0,
		GenerationTimeoutSeconds:  5,
		DefaultInsightListLimit:   20,
		EventBufferSize:           16,
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
