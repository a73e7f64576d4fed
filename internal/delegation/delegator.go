package delegation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/codeact/internal/agent"
	"github.com/GriffinCanCode/codeact/internal/capabilities"
	"github.com/GriffinCanCode/codeact/internal/deadline"
	"github.com/GriffinCanCode/codeact/internal/logging"
	"github.com/GriffinCanCode/codeact/internal/monitoring"
	"github.com/GriffinCanCode/codeact/internal/shared/id"
	"github.com/GriffinCanCode/codeact/internal/shared/types"
)

// ErrEmptyTask is returned when the task is blank
var ErrEmptyTask = errors.New("delegateTask requires a non-empty task")

// DefaultMaxIterations caps child sessions unless configured otherwise
const DefaultMaxIterations = 6

// Config bounds child sessions
type Config struct {
	MaxIterations int           // upper bound for maxIterations; 0 uses DefaultMaxIterations
	ScriptTimeout time.Duration // per child script; 0 uses the runner default
}

// Option configures a Delegator
type Option func(*Delegator)

// WithLogger sets the delegator logger
func WithLogger(logger *logging.Logger) Option {
	return func(d *Delegator) {
		d.logger = logger.OrNop()
	}
}

// WithMetrics records delegation outcomes
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(d *Delegator) {
		d.metrics = metrics
	}
}

// Delegator implements capabilities.Delegator
type Delegator struct {
	model    agent.Model
	executor agent.Executor
	base     *capabilities.Toolset
	config   Config
	logger   *logging.Logger
	metrics  *monitoring.Metrics
}

var _ capabilities.Delegator = (*Delegator)(nil)

// New creates a delegator whose children run with base
func New(model agent.Model, executor agent.Executor, base *capabilities.Toolset, cfg Config, opts ...Option) *Delegator {
	if cfg.MaxIterations < 1 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	d := &Delegator{
		model:    model,
		executor: executor,
		base:     base,
		config:   cfg,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// MaxIterations returns the iteration cap
func (d *Delegator) MaxIterations() int {
	return d.config.MaxIterations
}

// Iterations clamps a requested budget to [1, MaxIterations]; 0 means the cap
func (d *Delegator) Iterations(requested int) int {
	switch {
	case requested == 0 || requested > d.config.MaxIterations:
		return d.config.MaxIterations
	case requested < 1:
		return 1
	}
	return requested
}

// DelegateTask runs input in a fresh child session and parses its final
// response.
func (d *Delegator) DelegateTask(ctx context.Context, input types.DelegateTaskInput) (types.DelegateTaskResult, error) {
	task := strings.TrimSpace(input.Task)
	if task == "" {
		d.metrics.RecordDelegation(monitoring.StatusError)
		return types.DelegateTaskResult{}, ErrEmptyTask
	}

	delegationID := id.NewDelegationID().String()
	log := d.logger.With(zap.String("delegation", delegationID))
	artifacts := d.validArtifacts(log, input.ContextArtifacts)
	iterations := d.Iterations(input.MaxIterations)

	session := agent.NewSession(d.model, d.executor, d.base, agent.SessionConfig{
		MaxIterations: iterations,
		ScriptTimeout: d.config.ScriptTimeout,
	}, agent.WithLogger(log))

	log.Info("delegating task",
		zap.String("session", session.ID()),
		zap.Int("max_iterations", iterations),
		zap.Int("artifacts", len(artifacts)))

	start := time.Now()
	reply, err := session.Run(ctx, childPrompt(task, artifacts))
	if err != nil && !errors.Is(err, agent.ErrIterationsExhausted) {
		status := monitoring.StatusError
		if deadline.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
			status = monitoring.StatusTimeout
		}
		d.metrics.RecordDelegation(status)
		log.Warn("delegation failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return types.DelegateTaskResult{}, fmt.Errorf("delegation %s: %w", delegationID, err)
	}

	result := ParseResult(reply)
	if result.Success {
		d.metrics.RecordDelegation(monitoring.StatusSuccess)
	} else {
		d.metrics.RecordDelegation(monitoring.StatusError)
	}
	log.Info("delegation finished",
		zap.Bool("success", result.Success),
		zap.Bool("exhausted", err != nil),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

func (d *Delegator) validArtifacts(log *logging.Logger, in []types.Artifact) []types.Artifact {
	out := make([]types.Artifact, 0, len(in))
	for i, a := range in {
		if strings.TrimSpace(a.Path) == "" {
			log.Debug("dropping artifact without path", zap.Int("index", i))
			continue
		}
		out = append(out, a)
	}
	return out
}

func childPrompt(task string, artifacts []types.Artifact) string {
	var b strings.Builder
	b.WriteString("Task:\n")
	b.WriteString(task)
	b.WriteString("\n")
	if len(artifacts) > 0 {
		b.WriteString("\nContext artifacts in the workspace:\n")
		for _, a := range artifacts {
			b.WriteString("- ")
			b.WriteString(a.Path)
			if a.Description != "" {
				b.WriteString(": ")
				b.WriteString(a.Description)
			}
			if a.LastUpdated != "" {
				b.WriteString(" (updated ")
				b.WriteString(a.LastUpdated)
				b.WriteString(")")
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\nWhen finished, reply with only a JSON object and no code block:\n")
	b.WriteString(`{"success": true, "summary": "what you did", "artifacts": [{"path": "file", "description": "what it holds"}]}`)
	b.WriteString("\n")
	return b.String()
}
