package sandbox

import (
	"context"
	"time"

	"github.com/GriffinCanCode/codeact/internal/logging"
	"github.com/GriffinCanCode/codeact/internal/monitoring"
)

// Console levels
const (
	LevelLog   = "log"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Config defines sandbox configuration
type Config struct {
	DefaultTimeout   time.Duration // Applied when a request has no timeout; 0 = unbounded
	MaxCallStackSize int           // goja call stack limit
	GlobalName       string        // Name of the capability object, "sdk" by default
}

// DefaultConfig returns the default sandbox configuration
func DefaultConfig() Config {
	return Config{
		DefaultTimeout:   10 * time.Second,
		MaxCallStackSize: 1024,
		GlobalName:       "sdk",
	}
}

// HostHandler performs the host side of a capability call.
// ctx is cancelled when the execution deadline passes.
type HostHandler func(ctx context.Context, args []any) (any, error)

// HostFunction is one capability exposed to the guest
type HostFunction struct {
	Name    string
	Handler HostHandler
}

// Capabilities is a set of host functions installed for one execution
type Capabilities interface {
	HostFunctions() []HostFunction
}

// Functions adapts a plain slice to Capabilities
type Functions []HostFunction

// HostFunctions implements Capabilities
func (f Functions) HostFunctions() []HostFunction {
	return f
}

// ExecutionRequest describes one script run
type ExecutionRequest struct {
	Script       string
	Timeout      time.Duration // <= 0 uses Config.DefaultTimeout
	Capabilities Capabilities
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    `json:"level"`
	Message string    `json:"text"`
	Time    time.Time `json:"time"`
}

// Result holds the outcome of one execution.
// Exactly one of Value/FormattedValue or ErrorMessage is meaningful.
type Result struct {
	ID             string     `json:"id"`
	Success        bool       `json:"success"`
	Value          any        `json:"value,omitempty"`
	FormattedValue string     `json:"formattedValue,omitempty"`
	Logs           []LogEntry `json:"logs"`
	DurationMs     int64      `json:"durationMs"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	ErrorStack     string     `json:"errorStack,omitempty"`
	TimedOut       bool       `json:"timedOut,omitempty"`
}

// Option configures a Runner
type Option func(*Runner)

// WithLogger sets the runner logger
func WithLogger(logger *logging.Logger) Option {
	return func(r *Runner) {
		r.logger = logger.OrNop()
	}
}

// WithMetrics enables execution metrics
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(r *Runner) {
		r.metrics = metrics
	}
}
