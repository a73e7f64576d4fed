package sandbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/GriffinCanCode/codeact/internal/deadline"
)

// ErrStalled means the script awaits a promise nothing can settle.
var ErrStalled = errors.New("script is waiting on a promise that can never settle")

// job runs on the runtime goroutine. goja drains its own microtask queue
// when the job returns control, so one job advances every continuation
// its settlement unblocked.
type job func() error

// pump feeds host settlements back into the runtime goroutine.
type pump struct {
	jobs chan job
	done chan struct{}
	once sync.Once
}

func newPump() *pump {
	return &pump{
		jobs: make(chan job, 64),
		done: make(chan struct{}),
	}
}

// enqueue schedules j from any goroutine. After stop it drops j and
// returns false instead of blocking.
func (p *pump) enqueue(j job) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.jobs <- j:
		return true
	case <-p.done:
		return false
	}
}

// run executes jobs until settled reports true, the deadline passes or ctx
// ends. idle reports whether no host operation is outstanding; with an empty
// queue that means nothing can ever settle the script.
func (p *pump) run(ctx context.Context, info *deadline.Info, settled, idle func() bool) error {
	var expired <-chan time.Time
	if remaining, ok := info.Remaining(); ok {
		if remaining <= 0 {
			return info.Err("script")
		}
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		expired = timer.C
	}

	for !settled() {
		if len(p.jobs) == 0 && idle() {
			return ErrStalled
		}
		select {
		case j := <-p.jobs:
			if err := j(); err != nil {
				return err
			}
		case <-expired:
			return info.Err("script")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// stop closes the pump; pending and future jobs are discarded.
func (p *pump) stop() {
	p.once.Do(func() {
		close(p.done)
	})
}
