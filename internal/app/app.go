package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/codeact/internal/agent"
	"github.com/GriffinCanCode/codeact/internal/capabilities"
	"github.com/GriffinCanCode/codeact/internal/config"
	"github.com/GriffinCanCode/codeact/internal/delegation"
	"github.com/GriffinCanCode/codeact/internal/fetch"
	"github.com/GriffinCanCode/codeact/internal/logging"
	"github.com/GriffinCanCode/codeact/internal/monitoring"
	"github.com/GriffinCanCode/codeact/internal/sandbox"
	"github.com/GriffinCanCode/codeact/internal/server"
	"github.com/GriffinCanCode/codeact/internal/workspace"
)

// ErrNoModel is returned when an agent session is requested without a model
var ErrNoModel = errors.New("no model configured (set MODEL_BASE_URL)")

// App holds the assembled components
type App struct {
	Config    *config.Config
	Logger    *logging.Logger
	Metrics   *monitoring.Metrics
	Root      *workspace.Root
	Fetcher   *fetch.Client
	Toolset   *capabilities.Toolset
	Runner    *sandbox.Runner
	Model     agent.Model            // nil without a model endpoint
	Delegator *delegation.Delegator // nil unless Model is set and delegation is enabled
}

// Option configures New
type Option func(*App)

// WithModel overrides the configured model endpoint
func WithModel(m agent.Model) Option {
	return func(a *App) {
		a.Model = m
	}
}

// New builds every component from cfg
func New(cfg *config.Config, logger *logging.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{
		Config:  cfg,
		Logger:  logger.OrNop(),
		Metrics: monitoring.NewMetrics(),
	}

	root, err := workspace.New(cfg.Workspace.Root)
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}
	a.Root = root

	a.Fetcher = fetch.New(fetch.Config{
		Timeout:  cfg.Fetch.Timeout,
		MaxBytes: cfg.Fetch.MaxBodyBytes,
		RPS:      cfg.Fetch.RequestsPerSecond,
		Retries:  cfg.Fetch.Retries,
	}, a.Logger.Named("fetch"))

	execCfg := capabilities.DefaultExecConfig()
	execCfg.Shell = cfg.Exec.Shell
	execCfg.MaxOutput = cfg.Exec.MaxOutput
	a.Toolset = capabilities.New(root,
		capabilities.WithFetcher(a.Fetcher),
		capabilities.WithExecConfig(execCfg),
		capabilities.WithLogger(a.Logger.Named("capabilities")))

	a.Runner = sandbox.New(sandbox.Config{
		DefaultTimeout:   cfg.Sandbox.Timeout,
		MaxCallStackSize: cfg.Sandbox.MaxCallStack,
		GlobalName:       sandbox.DefaultConfig().GlobalName,
	}, sandbox.WithLogger(a.Logger.Named("sandbox")), sandbox.WithMetrics(a.Metrics))

	if cfg.Model.Configured() {
		a.Model = agent.NewHTTPModel(agent.HTTPModelConfig{
			BaseURL: cfg.Model.BaseURL,
			Model:   cfg.Model.Name,
			APIKey:  cfg.Model.APIKey,
			Timeout: cfg.Model.Timeout,
		})
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.Model != nil && cfg.Delegation.Enabled {
		a.Delegator = delegation.New(a.Model, a.Runner, a.Toolset, delegation.Config{
			MaxIterations: cfg.Delegation.MaxIterations,
		}, delegation.WithLogger(a.Logger.Named("delegation")), delegation.WithMetrics(a.Metrics))
	}

	a.Logger.Info("runtime assembled",
		zap.String("workspace", root.Path()),
		zap.Duration("timeout", cfg.Sandbox.Timeout),
		zap.Bool("model", a.Model != nil),
		zap.Bool("delegation", a.Delegator != nil))
	return a, nil
}

// Capabilities returns the top-level capability set: the base toolset,
// plus delegateTask when a delegator is available.
func (a *App) Capabilities() capabilities.Set {
	if a.Delegator == nil {
		return a.Toolset
	}
	return capabilities.WithDelegation(a.Toolset, a.Delegator)
}

// Execute runs one script with the top-level capabilities
func (a *App) Execute(ctx context.Context, script string, timeout time.Duration) *sandbox.Result {
	return a.Runner.Execute(ctx, sandbox.ExecutionRequest{
		Script:       script,
		Timeout:      timeout,
		Capabilities: a.Capabilities(),
	})
}

// NewSession starts a top-level agent session
func (a *App) NewSession(maxIterations int, opts ...agent.SessionOption) (*agent.Session, error) {
	if a.Model == nil {
		return nil, ErrNoModel
	}
	opts = append([]agent.SessionOption{agent.WithLogger(a.Logger.Named("agent"))}, opts...)
	return agent.NewSession(a.Model, a.Runner, a.Capabilities(), agent.SessionConfig{
		MaxIterations: maxIterations,
	}, opts...), nil
}

// Server builds the HTTP API over the top-level capabilities
func (a *App) Server() *server.Server {
	return server.New(a.Config, server.Deps{
		Runner:       a.Runner,
		Capabilities: a.Capabilities(),
		Metrics:      a.Metrics,
		Logger:       a.Logger.Named("server"),
	})
}
