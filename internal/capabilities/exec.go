package capabilities

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/codeact/internal/deadline"
)

// ExecConfig configures the exec capability
type ExecConfig struct {
	Shell     string
	MaxOutput int           // bytes kept per stream
	WaitDelay time.Duration // grace period for pipes after the process is killed
}

// DefaultExecConfig returns the default exec configuration
func DefaultExecConfig() ExecConfig {
	return ExecConfig{
		Shell:     "/bin/sh",
		MaxOutput: 1 << 20,
		WaitDelay: 500 * time.Millisecond,
	}
}

func (c ExecConfig) withDefaults() ExecConfig {
	defaults := DefaultExecConfig()
	if c.Shell == "" {
		c.Shell = defaults.Shell
	}
	if c.MaxOutput <= 0 {
		c.MaxOutput = defaults.MaxOutput
	}
	if c.WaitDelay <= 0 {
		c.WaitDelay = defaults.WaitDelay
	}
	return c
}

// ExecOptions are per-call exec settings
type ExecOptions struct {
	Cwd     string
	Timeout time.Duration // tightens the execution deadline when smaller
}

// ExecResult is the outcome of a finished command
type ExecResult struct {
	Code      int
	Stdout    string
	Stderr    string
	Truncated bool
}

// ToMap converts the result to the guest shape
func (r *ExecResult) ToMap() map[string]any {
	m := map[string]any{
		"code":   r.Code,
		"stdout": r.Stdout,
		"stderr": r.Stderr,
	}
	if r.Truncated {
		m["truncated"] = true
	}
	return m
}

// Exec runs command through the shell inside the workspace. A non-zero
// exit status is reported in Code, not as an error.
func (t *Toolset) Exec(ctx context.Context, command string, opts ExecOptions) (*ExecResult, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("%w: command", ErrMissingArgument)
	}
	dir, err := t.root.Resolve(opts.Cwd)
	if err != nil {
		return nil, err
	}
	if err := t.root.EnsureRoot(); err != nil {
		return nil, err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("cwd %s: %w", displayPath(opts.Cwd), ErrNotDirectory)
	}

	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, t.exec.Shell, "-c", command)
	cmd.Dir = dir
	cmd.Env = t.env(dir)
	cmd.WaitDelay = t.exec.WaitDelay
	configureProcess(cmd)

	var stdout, stderr bytes.Buffer
	outW := &limitedWriter{w: &stdout, remaining: t.exec.MaxOutput}
	errW := &limitedWriter{w: &stderr, remaining: t.exec.MaxOutput}
	cmd.Stdout = outW
	cmd.Stderr = errW

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	code := 0
	if runErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if runCtx.Err() != nil {
			return nil, &deadline.TimeoutError{Label: "exec", Timeout: opts.Timeout}
		}
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("exec: %w", runErr)
		}
		code = exitErr.ExitCode()
	}

	t.logger.Debug("Command finished",
		zap.String("dir", t.root.Rel(dir)),
		zap.Int("code", code),
		zap.Duration("elapsed", elapsed),
		zap.Int("stdout_bytes", stdout.Len()),
		zap.Int("stderr_bytes", stderr.Len()))

	return &ExecResult{
		Code:      code,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: outW.truncated || errW.truncated,
	}, nil
}

// env is a minimal environment; host secrets are never inherited
func (t *Toolset) env(dir string) []string {
	path := os.Getenv("PATH")
	if path == "" {
		path = "/usr/local/bin:/usr/bin:/bin"
	}
	return []string{
		"PATH=" + path,
		"HOME=" + t.root.Path(),
		"PWD=" + dir,
		"LANG=C.UTF-8",
		"TERM=dumb",
	}
}

// limitedWriter keeps the first remaining bytes and discards the rest
// while still reporting full writes, so the child never sees EPIPE.
type limitedWriter struct {
	w         *bytes.Buffer
	remaining int
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.remaining <= 0 {
		lw.truncated = lw.truncated || n > 0
		return n, nil
	}
	if len(p) > lw.remaining {
		p = p[:lw.remaining]
		lw.truncated = true
	}
	lw.w.Write(p)
	lw.remaining -= len(p)
	return n, nil
}
