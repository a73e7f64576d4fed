package sandbox

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/codeact/internal/deadline"
)

// Error names visible to the guest on rejected host calls
const (
	errorNameTimeout    = "TimeoutError"
	errorNameCapability = "CapabilityError"
	errorNameHost       = "HostError"
)

// CapabilityError is returned by host handlers for refused calls
// (bad arguments, paths outside the workspace). The guest sees it as a
// CapabilityError rather than a generic host failure.
type CapabilityError struct {
	Capability string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// thrown wraps an error raised by the guest or the interrupt
type thrown struct {
	message string
	stack   string
	timeout bool
}

func (t *thrown) Error() string { return t.message }

// guard runs fn and turns goja panics raised by guest getters or the
// deadline interrupt into errors.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch x := r.(type) {
			case *goja.Exception:
				err = describeException(x)
			case *goja.InterruptedError:
				err = describeInterrupt(x)
			default:
				panic(r)
			}
		}
	}()
	return fn()
}

// describe converts an error from RunProgram or a job into a thrown.
func describe(err error) *thrown {
	var t *thrown
	if errors.As(err, &t) {
		return t
	}
	var ie *goja.InterruptedError
	if errors.As(err, &ie) {
		return describeInterrupt(ie)
	}
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return describeException(ex)
	}
	return &thrown{message: err.Error(), timeout: deadline.IsTimeout(err)}
}

func describeInterrupt(ie *goja.InterruptedError) *thrown {
	if err, ok := ie.Value().(error); ok {
		return &thrown{message: err.Error(), timeout: deadline.IsTimeout(err)}
	}
	return &thrown{message: ie.String()}
}

func describeException(ex *goja.Exception) *thrown {
	return describeThrown(ex.Value(), ex.String())
}

// describeThrown builds a message and stack from any thrown guest value.
// Errors named other than "Error" keep their name as a prefix.
func describeThrown(v goja.Value, fallbackStack string) *thrown {
	t := &thrown{stack: fallbackStack}
	obj, ok := v.(*goja.Object)
	if !ok || obj.ClassName() != "Error" {
		if v == nil || goja.IsUndefined(v) {
			t.message = "undefined"
		} else {
			t.message = safeString(v)
		}
		return t
	}

	name := propString(obj, "name")
	message := propString(obj, "message")
	switch {
	case name == "" || name == "Error":
		t.message = message
	case message == "":
		t.message = name
	default:
		t.message = name + ": " + message
	}
	if t.message == "" {
		t.message = "Error"
	}
	if stack := propString(obj, "stack"); stack != "" {
		t.stack = stack
	}
	t.timeout = name == errorNameTimeout
	return t
}

func propString(obj *goja.Object, key string) (s string) {
	_ = guard(func() error {
		v := obj.Get(key)
		if v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
			s = v.String()
		}
		return nil
	})
	return s
}

func safeString(v goja.Value) (s string) {
	err := guard(func() error {
		if obj, ok := v.(*goja.Object); ok {
			s = stringify(obj)
			return nil
		}
		s = v.String()
		return nil
	})
	if err != nil {
		return "[unprintable value]"
	}
	return s
}

// newError builds the guest error that rejects a host call promise.
func newError(vm *goja.Runtime, name string, err error) goja.Value {
	var capErr *CapabilityError
	if errors.As(err, &capErr) {
		name = errorNameCapability
	}
	if deadline.IsTimeout(err) {
		name = errorNameTimeout
	}
	obj := vm.NewGoError(err)
	_ = obj.Set("name", name)
	_ = obj.Set("stack", fmt.Sprintf("%s: %s\n    at <host>", name, strings.TrimSpace(err.Error())))
	return obj
}
