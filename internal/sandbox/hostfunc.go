package sandbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/codeact/internal/deadline"
	"github.com/GriffinCanCode/codeact/internal/logging"
	"github.com/GriffinCanCode/codeact/internal/monitoring"
)

// execution is the per-run state shared by host function bindings.
// vm is touched only from the goroutine running Execute.
type execution struct {
	vm      *goja.Runtime
	ctx     context.Context
	gov     *deadline.Governor
	pump    *pump
	logger  *logging.Logger
	metrics *monitoring.Metrics

	pending  sync.WaitGroup
	inflight atomic.Int64
}

// idle reports whether no host call is awaiting settlement
func (ex *execution) idle() bool {
	return ex.inflight.Load() == 0
}

// install binds every host function under a fresh global object
func (ex *execution) install(global string, caps Capabilities) error {
	target := ex.vm.NewObject()
	if caps != nil {
		for _, fn := range caps.HostFunctions() {
			if fn.Name == "" || fn.Handler == nil {
				return fmt.Errorf("invalid host function %q", fn.Name)
			}
			if err := target.Set(fn.Name, ex.bind(fn)); err != nil {
				return err
			}
		}
	}
	return ex.vm.Set(global, target)
}

// bind returns the guest-callable wrapper of fn. Each call returns a
// promise that settles on the runtime goroutine once the handler returns
// or the deadline passes.
func (ex *execution) bind(fn HostFunction) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		args := make([]any, len(call.Arguments))
		for i, arg := range call.Arguments {
			v, err := exportValue(arg)
			if err != nil {
				panic(ex.vm.NewTypeError("%s: argument %d: %v", fn.Name, i, err))
			}
			args[i] = v
		}

		promise, resolve, reject := ex.vm.NewPromise()
		ex.inflight.Add(1)
		ex.pending.Add(1)
		go ex.invoke(fn, args, resolve, reject)
		return ex.vm.ToValue(promise)
	}
}

func (ex *execution) invoke(fn HostFunction, args []any, resolve, reject func(any) error) {
	defer ex.pending.Done()

	start := time.Now()
	value, err := ex.gov.Race(ex.ctx, fn.Name, func(ctx context.Context) (value any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("host function %s panicked: %v", fn.Name, r)
			}
		}()
		return fn.Handler(ctx, args)
	})
	ex.record(fn.Name, err, time.Since(start))

	queued := ex.pump.enqueue(func() error {
		ex.inflight.Add(-1)
		return guard(func() error {
			if err != nil {
				return reject(newError(ex.vm, errorNameHost, err))
			}
			v, convErr := importValue(ex.vm, value)
			if convErr != nil {
				return reject(newError(ex.vm, errorNameHost, fmt.Errorf("%s: result: %w", fn.Name, convErr)))
			}
			return resolve(v)
		})
	})
	if !queued {
		ex.inflight.Add(-1)
		ex.logger.Debug("Dropped late host settlement", zap.String("function", fn.Name), zap.Error(err))
	}
}

func (ex *execution) record(name string, err error, elapsed time.Duration) {
	status := monitoring.StatusSuccess
	switch {
	case deadline.IsTimeout(err):
		status = monitoring.StatusTimeout
	case err != nil:
		status = monitoring.StatusError
	}
	ex.metrics.RecordCapabilityCall(name, status, elapsed)
	if err != nil {
		ex.logger.Debug("Host function failed",
			zap.String("function", name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
	}
}
