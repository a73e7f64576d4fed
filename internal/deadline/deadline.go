package deadline

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Info is the budget of one execution. A nil *Info is unbounded.
type Info struct {
	Timeout time.Duration `json:"timeoutMs"`
	At      time.Time     `json:"deadline"`
}

// New computes the deadline for a timeout starting now.
// Non-positive timeouts mean unbounded and are reserved for trusted callers.
func New(timeout time.Duration) *Info {
	if timeout <= 0 {
		return nil
	}
	return &Info{Timeout: timeout, At: time.Now().Add(timeout)}
}

// Remaining returns the budget left. ok is false for an unbounded deadline.
func (i *Info) Remaining() (remaining time.Duration, ok bool) {
	if i == nil {
		return 0, false
	}
	return time.Until(i.At), true
}

// Expired reports whether the budget is exhausted.
func (i *Info) Expired() bool {
	remaining, ok := i.Remaining()
	return ok && remaining <= 0
}

// Context derives a context that is cancelled when the deadline passes.
func (i *Info) Context(parent context.Context) (context.Context, context.CancelFunc) {
	if i == nil {
		return context.WithCancel(parent)
	}
	return context.WithDeadline(parent, i.At)
}

// Err returns the timeout error for an operation bound to this deadline.
func (i *Info) Err(label string) *TimeoutError {
	if i == nil {
		return &TimeoutError{Label: label}
	}
	return &TimeoutError{Label: label, Timeout: i.Timeout}
}

// TimeoutError reports that the labelled operation exceeded its budget.
type TimeoutError struct {
	Label   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("%s timed out after %s", e.Label, e.Timeout)
	}
	return fmt.Sprintf("%s timed out", e.Label)
}

// IsTimeout reports whether err is, or wraps, a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
