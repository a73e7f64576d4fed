package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/codeact/internal/logging"
	"github.com/GriffinCanCode/codeact/internal/sandbox"
	"github.com/GriffinCanCode/codeact/internal/shared/id"
)

// ErrIterationsExhausted is returned with the last reply when the turn budget runs out
var ErrIterationsExhausted = errors.New("iteration budget exhausted")

// SessionConfig bounds one session
type SessionConfig struct {
	MaxIterations int
	ScriptTimeout time.Duration // per script; 0 uses the runner default
	SystemPrompt  string        // empty builds one from the capabilities
	GlobalName    string        // "sdk" when empty
}

// DefaultSessionConfig returns the default session limits
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxIterations: 10,
		GlobalName:    "sdk",
	}
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithLogger sets the session logger
func WithLogger(logger *logging.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger.OrNop()
	}
}

// WithObserver reports every finished turn
func WithObserver(fn func(Step)) SessionOption {
	return func(s *Session) {
		s.observe = fn
	}
}

// Session drives one model through the script loop
type Session struct {
	id       string
	model    Model
	executor Executor
	caps     sandbox.Capabilities
	config   SessionConfig
	logger   *logging.Logger
	observe  func(Step)
}

// NewSession creates a session bound to one capability set
func NewSession(model Model, executor Executor, caps sandbox.Capabilities, cfg SessionConfig, opts ...SessionOption) *Session {
	if cfg.MaxIterations < 1 {
		cfg.MaxIterations = DefaultSessionConfig().MaxIterations
	}
	if cfg.GlobalName == "" {
		cfg.GlobalName = "sdk"
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = SystemPrompt(cfg.GlobalName, caps)
	}

	s := &Session{
		id:       id.NewSessionID().String(),
		model:    model,
		executor: executor,
		caps:     caps,
		config:   cfg,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Run loops until the model answers without a script, the budget runs
// out, or ctx is done.
func (s *Session) Run(ctx context.Context, task string) (string, error) {
	messages := []Message{
		{Role: RoleSystem, Content: s.config.SystemPrompt},
		{Role: RoleUser, Content: task},
	}
	log := s.logger.With(zap.String("session", s.id))

	var last string
	for i := 1; i <= s.config.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		reply, err := s.model.Complete(ctx, messages)
		if err != nil {
			return last, fmt.Errorf("model turn %d: %w", i, err)
		}
		last = reply
		messages = append(messages, Message{Role: RoleAssistant, Content: reply})

		script, ok := ExtractScript(reply)
		if !ok {
			log.Debug("session finished", zap.Int("iterations", i))
			s.report(Step{Iteration: i, Reply: reply})
			return reply, nil
		}

		res := s.executor.Execute(ctx, sandbox.ExecutionRequest{
			Script:       script,
			Timeout:      s.config.ScriptTimeout,
			Capabilities: s.caps,
		})
		log.Debug("script executed",
			zap.Int("iteration", i),
			zap.String("execution", res.ID),
			zap.Bool("success", res.Success))
		s.report(Step{Iteration: i, Reply: reply, Script: script, Result: res})

		messages = append(messages, Message{Role: RoleUser, Content: FormatResult(res)})
	}

	log.Info("session ran out of iterations", zap.Int("max", s.config.MaxIterations))
	return last, ErrIterationsExhausted
}

func (s *Session) report(step Step) {
	if s.observe != nil {
		s.observe(step)
	}
}
