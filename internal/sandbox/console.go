package sandbox

import (
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dop251/goja"
)

// console collects guest log lines in call order
type console struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (c *console) install(vm *goja.Runtime) error {
	obj := vm.NewObject()
	for _, level := range []string{LevelLog, LevelInfo, LevelWarn, LevelError} {
		if err := obj.Set(level, c.writer(level)); err != nil {
			return err
		}
	}
	// debug is an alias some guests reach for
	if err := obj.Set("debug", c.writer(LevelLog)); err != nil {
		return err
	}
	return vm.Set("console", obj)
}

func (c *console) writer(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, renderLogArg(arg))
		}
		c.append(level, strings.Join(parts, " "))
		return goja.Undefined()
	}
}

func (c *console) append(level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, LogEntry{Level: level, Message: message, Time: time.Now()})
}

func (c *console) collect() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// renderLogArg prints strings raw and everything else as JSON when it can.
func renderLogArg(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	obj, isObject := v.(*goja.Object)
	if !isObject {
		if s, ok := v.Export().(string); ok {
			return s
		}
	} else if obj.ClassName() == "Error" {
		return describeThrown(obj, "").message
	}
	exported, err := exportValue(v)
	if err != nil {
		return safeString(v)
	}
	data, err := sonic.ConfigStd.Marshal(exported)
	if err != nil {
		return safeString(v)
	}
	return string(data)
}
