package deadline

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Operation is a host-side unit of work raced against the deadline.
// It must honour ctx cancellation for best-effort abort.
type Operation func(ctx context.Context) (any, error)

// Governor races operations of one execution against a shared Info.
type Governor struct {
	info *Info
	wg   sync.WaitGroup
}

type outcome struct {
	value any
	err   error
}

// NewGovernor creates a governor bound to info (nil = unbounded).
func NewGovernor(info *Info) *Governor {
	return &Governor{info: info}
}

// Info returns the deadline shared by every operation of this governor.
func (g *Governor) Info() *Info {
	return g.info
}

// Race runs op against the remaining budget.
//
// An exhausted budget rejects immediately without starting op. When the
// timer wins, op's context is cancelled and a TimeoutError carrying label is
// returned; op keeps running until it observes the cancellation and is
// accounted for by Wait.
func (g *Governor) Race(ctx context.Context, label string, op Operation) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.info.Expired() {
		return nil, g.info.Err(label)
	}

	opCtx, cancel := g.info.Context(ctx)
	defer cancel()

	var expired <-chan time.Time
	if remaining, ok := g.info.Remaining(); ok {
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		expired = timer.C
	}

	done := make(chan outcome, 1)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		value, err := op(opCtx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && errors.Is(out.err, context.DeadlineExceeded) && g.info.Expired() {
			return nil, g.info.Err(label)
		}
		return out.value, out.err
	case <-expired:
		return nil, g.info.Err(label)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Wait blocks until every operation started by Race has returned.
func (g *Governor) Wait() {
	g.wg.Wait()
}
