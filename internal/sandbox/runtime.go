package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/codeact/internal/deadline"
	"github.com/GriffinCanCode/codeact/internal/logging"
	"github.com/GriffinCanCode/codeact/internal/monitoring"
	"github.com/GriffinCanCode/codeact/internal/shared/id"
)

// ErrEmptyScript is reported for requests without script text
var ErrEmptyScript = errors.New("script is empty")

// The wrapper keeps the opening line intact so guest line numbers match.
const (
	scriptPrefix = "(async () => {"
	scriptSuffix = "\n})()"
	scriptName   = "script.js"
)

// sealSource locks the capability object in place before the guest runs.
const sealSource = `(function (name) {
	Object.defineProperty(globalThis, name, {
		value: Object.freeze(globalThis[name]),
		writable: false,
		enumerable: false,
		configurable: false
	});
})`

var (
	sealOnce    sync.Once
	sealProgram *goja.Program
	sealErr     error
)

func sealer() (*goja.Program, error) {
	sealOnce.Do(func() {
		sealProgram, sealErr = goja.Compile("seal.js", sealSource, true)
	})
	return sealProgram, sealErr
}

// Runner executes guest scripts, one isolated runtime per call.
// A Runner is safe for concurrent use; executions share no mutable state.
type Runner struct {
	config  Config
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a runner
func New(cfg Config, opts ...Option) *Runner {
	defaults := DefaultConfig()
	if cfg.MaxCallStackSize <= 0 {
		cfg.MaxCallStackSize = defaults.MaxCallStackSize
	}
	if cfg.GlobalName == "" {
		cfg.GlobalName = defaults.GlobalName
	}
	r := &Runner{
		config: cfg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the runner configuration
func (r *Runner) Config() Config {
	return r.config
}

// Execute runs one script to completion, failure or deadline.
// It never panics; every failure is encoded in the returned Result. When it
// returns, the guest has stopped and every host call it issued has returned.
func (r *Runner) Execute(ctx context.Context, req ExecutionRequest) (res *Result) {
	start := time.Now()
	res = &Result{
		ID:   id.NewExecutionID().String(),
		Logs: []LogEntry{},
	}
	log := r.logger.With(zap.String("execution_id", res.ID))

	r.metrics.ExecutionStarted()
	defer func() {
		if p := recover(); p != nil {
			log.Error("Execution panicked", zap.Any("panic", p))
			res.fail(&thrown{message: fmt.Sprintf("internal error: %v", p)})
		}
		elapsed := time.Since(start)
		res.DurationMs = elapsed.Milliseconds()
		r.metrics.RecordExecution(res.status(), elapsed)
		log.Debug("Execution finished",
			zap.Bool("success", res.Success),
			zap.Bool("timed_out", res.TimedOut),
			zap.Int64("duration_ms", res.DurationMs))
	}()

	if strings.TrimSpace(req.Script) == "" {
		res.fail(&thrown{message: ErrEmptyScript.Error()})
		return res
	}

	info := r.deadlineFor(ctx, req.Timeout)
	if info.Expired() {
		res.fail(describe(info.Err("script")))
		return res
	}
	if err := ctx.Err(); err != nil {
		res.fail(describe(err))
		return res
	}

	log.Debug("Executing script", zap.Int("script_bytes", len(req.Script)), zap.Any("deadline", info))
	r.run(ctx, info, req, res)
	return res
}

// deadlineFor picks the tighter of the request timeout and ctx's deadline.
func (r *Runner) deadlineFor(ctx context.Context, timeout time.Duration) *deadline.Info {
	if timeout <= 0 {
		timeout = r.config.DefaultTimeout
	}
	info := deadline.New(timeout)
	if at, ok := ctx.Deadline(); ok && (info == nil || at.Before(info.At)) {
		info = &deadline.Info{Timeout: time.Until(at), At: at}
	}
	return info
}

func (r *Runner) run(ctx context.Context, info *deadline.Info, req ExecutionRequest, res *Result) {
	vm := goja.New()
	vm.SetMaxCallStackSize(r.config.MaxCallStackSize)

	execCtx, cancel := context.WithCancel(ctx)
	ex := &execution{
		vm:      vm,
		ctx:     execCtx,
		gov:     deadline.NewGovernor(info),
		pump:    newPump(),
		logger:  r.logger,
		metrics: r.metrics,
	}
	out := &console{}

	var interrupt *time.Timer
	if remaining, ok := info.Remaining(); ok {
		interrupt = time.AfterFunc(remaining, func() {
			vm.Interrupt(info.Err("script"))
		})
	}
	stopCancelWatch := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})

	defer func() {
		if interrupt != nil {
			interrupt.Stop()
		}
		stopCancelWatch()
		ex.pump.stop()
		cancel()
		ex.pending.Wait()
		ex.gov.Wait()
		res.Logs = out.collect()
	}()

	if err := r.prepare(ex, out, req.Capabilities); err != nil {
		res.fail(describe(err))
		return
	}

	program, err := goja.Compile(scriptName, scriptPrefix+req.Script+scriptSuffix, false)
	if err != nil {
		res.fail(describe(err))
		return
	}

	value, err := vm.RunProgram(program)
	if err != nil {
		res.fail(describe(err))
		return
	}

	promise, ok := value.Export().(*goja.Promise)
	if !ok {
		res.fail(&thrown{message: "script entry point did not yield a promise"})
		return
	}

	settled := func() bool { return promise.State() != goja.PromiseStatePending }
	if err := ex.pump.run(execCtx, info, settled, ex.idle); err != nil {
		res.fail(describe(err))
		return
	}

	switch promise.State() {
	case goja.PromiseStateRejected:
		res.fail(describeThrown(promise.Result(), ""))
	case goja.PromiseStateFulfilled:
		var exported any
		if err := guard(func() (err error) {
			exported, err = exportValue(promise.Result())
			return err
		}); err != nil {
			res.fail(describe(fmt.Errorf("result: %w", err)))
			return
		}
		res.succeed(exported)
		if goja.IsUndefined(promise.Result()) {
			res.FormattedValue = "undefined"
		}
	}
}

func (r *Runner) prepare(ex *execution, out *console, caps Capabilities) error {
	if err := out.install(ex.vm); err != nil {
		return err
	}
	if err := ex.install(r.config.GlobalName, caps); err != nil {
		return err
	}
	program, err := sealer()
	if err != nil {
		return err
	}
	return guard(func() error {
		seal, err := ex.vm.RunProgram(program)
		if err != nil {
			return err
		}
		fn, ok := goja.AssertFunction(seal)
		if !ok {
			return errors.New("seal program is not a function")
		}
		_, err = fn(goja.Undefined(), ex.vm.ToValue(r.config.GlobalName))
		return err
	})
}

func (res *Result) succeed(v any) {
	res.Success = true
	res.Value = v
	res.FormattedValue = Format(v)
	res.ErrorMessage = ""
	res.ErrorStack = ""
}

func (res *Result) fail(t *thrown) {
	res.Success = false
	res.Value = nil
	res.FormattedValue = ""
	res.ErrorMessage = t.message
	if res.ErrorMessage == "" {
		res.ErrorMessage = "unknown error"
	}
	res.ErrorStack = t.stack
	res.TimedOut = t.timeout
}

func (res *Result) status() string {
	switch {
	case res.Success:
		return monitoring.StatusSuccess
	case res.TimedOut:
		return monitoring.StatusTimeout
	default:
		return monitoring.StatusError
	}
}
