package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Sandbox    SandboxConfig
	Workspace  WorkspaceConfig
	Exec       ExecConfig
	Fetch      FetchConfig
	Delegation DelegationConfig
	Model      ModelConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// SandboxConfig holds script execution limits.
type SandboxConfig struct {
	Timeout      time.Duration `envconfig:"CODEACT_TIMEOUT" default:"10s"`
	MaxTimeout   time.Duration `envconfig:"CODEACT_MAX_TIMEOUT" default:"5m"`
	MaxCallStack int           `envconfig:"CODEACT_MAX_CALL_STACK" default:"1024"`
}

// WorkspaceConfig holds the filesystem boundary.
type WorkspaceConfig struct {
	Root string `envconfig:"CODEACT_WORKSPACE" default:"./workspace"`
}

// ExecConfig holds shell execution settings.
type ExecConfig struct {
	Shell     string `envconfig:"CODEACT_EXEC_SHELL" default:"/bin/sh"`
	MaxOutput int    `envconfig:"CODEACT_EXEC_MAX_OUTPUT" default:"1048576"`
}

// FetchConfig holds outbound HTTP settings.
type FetchConfig struct {
	Timeout           time.Duration `envconfig:"CODEACT_FETCH_TIMEOUT" default:"30s"`
	MaxBodyBytes      int64         `envconfig:"CODEACT_FETCH_MAX_BYTES" default:"5242880"`
	RequestsPerSecond float64       `envconfig:"CODEACT_FETCH_RPS" default:"0"`
	Retries           int           `envconfig:"CODEACT_FETCH_RETRIES" default:"2"`
}

// DelegationConfig holds sub-agent delegation settings.
type DelegationConfig struct {
	Enabled       bool `envconfig:"CODEACT_DELEGATE_ENABLED" default:"true"`
	MaxIterations int  `envconfig:"CODEACT_DELEGATE_MAX_ITERATIONS" default:"6"`
}

// ModelConfig holds the language model endpoint.
type ModelConfig struct {
	BaseURL string        `envconfig:"MODEL_BASE_URL"`
	Name    string        `envconfig:"MODEL_NAME" default:"gpt-4o-mini"`
	APIKey  string        `envconfig:"MODEL_API_KEY"`
	Timeout time.Duration `envconfig:"MODEL_TIMEOUT" default:"120s"`
}

// Configured reports whether a model endpoint is available.
func (m ModelConfig) Configured() bool {
	return m.BaseURL != ""
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	if c.Workspace.Root == "" {
		return fmt.Errorf("invalid config: workspace root is empty")
	}
	if c.Sandbox.Timeout < 0 {
		return fmt.Errorf("invalid config: negative sandbox timeout %s", c.Sandbox.Timeout)
	}
	if c.Delegation.MaxIterations < 1 {
		return fmt.Errorf("invalid config: delegation max iterations must be >= 1, got %d", c.Delegation.MaxIterations)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Sandbox: SandboxConfig{
			Timeout:      10 * time.Second,
			MaxTimeout:   5 * time.Minute,
			MaxCallStack: 1024,
		},
		Workspace: WorkspaceConfig{
			Root: "./workspace",
		},
		Exec: ExecConfig{
			Shell:     "/bin/sh",
			MaxOutput: 1 << 20,
		},
		Fetch: FetchConfig{
			Timeout:      30 * time.Second,
			MaxBodyBytes: 5 << 20,
			Retries:      2,
		},
		Delegation: DelegationConfig{
			Enabled:       true,
			MaxIterations: 6,
		},
		Model: ModelConfig{
			Name:    "gpt-4o-mini",
			Timeout: 120 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}
