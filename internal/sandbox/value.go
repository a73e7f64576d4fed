package sandbox

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/dop251/goja"
)

const maxValueDepth = 64

// maxExportItems bounds the array elements plus object fields of one export
const maxExportItems = 100_000

// 2^53, the largest integer a float64 holds exactly
const maxSafeInteger = 1 << 53

var (
	ErrValueTooDeep  = errors.New("value nesting exceeds limit")
	ErrValueCycle    = errors.New("value contains a cycle")
	ErrValueTooLarge = errors.New("value exceeds 100000 elements")
)

// exportValue converts a guest value to a host value.
// Results are nil, bool, int64, float64, string, []any or map[string]any;
// functions, symbols and other exotic objects are stringified.
func exportValue(v goja.Value) (any, error) {
	e := &exporter{path: make(map[*goja.Object]struct{}), budget: maxExportItems}
	return e.export(v, 0)
}

// exporter walks one guest value. budget is charged before any
// element is read, so a sparse array with a huge length fails at once.
type exporter struct {
	path   map[*goja.Object]struct{}
	budget int64
}

func (e *exporter) charge(n int64) error {
	if n < 0 || n > e.budget {
		return ErrValueTooLarge
	}
	e.budget -= n
	return nil
}

func (e *exporter) export(v goja.Value, depth int) (any, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	if depth > maxValueDepth {
		return nil, ErrValueTooDeep
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		switch x := v.Export().(type) {
		case bool, string:
			return x, nil
		case int64:
			return x, nil
		case float64:
			return normalizeNumber(x), nil
		default:
			return v.String(), nil
		}
	}

	if _, seen := e.path[obj]; seen {
		return nil, ErrValueCycle
	}
	e.path[obj] = struct{}{}
	defer delete(e.path, obj)

	switch obj.ClassName() {
	case "Array":
		length := obj.Get("length").ToInteger()
		if err := e.charge(length); err != nil {
			return nil, err
		}
		items := make([]any, 0, length)
		for i := int64(0); i < length; i++ {
			item, err := e.export(obj.Get(strconv.FormatInt(i, 10)), depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case "Object":
		keys := obj.Keys()
		if err := e.charge(int64(len(keys))); err != nil {
			return nil, err
		}
		fields := make(map[string]any, len(keys))
		for _, key := range keys {
			field, err := e.export(obj.Get(key), depth+1)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			fields[key] = field
		}
		return fields, nil
	default:
		return stringify(obj), nil
	}
}

// stringify converts an exotic object with its own toString, except
// array-likes too long to join.
func stringify(obj *goja.Object) string {
	if n := obj.Get("length"); n != nil && n.ToInteger() > maxExportItems {
		return "[" + obj.ClassName() + "(" + strconv.FormatInt(n.ToInteger(), 10) + ")]"
	}
	return obj.String()
}

// normalizeNumber narrows integral floats to int64. NaN and the
// infinities have no JSON form and become "NaN", "Infinity", "-Infinity".
func normalizeNumber(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) <= maxSafeInteger && !(f == 0 && math.Signbit(f)) {
		return int64(f)
	}
	return f
}

// importValue converts a host value into a guest value.
// Values outside the closed shape set go through a JSON round trip.
func importValue(vm *goja.Runtime, v any) (goja.Value, error) {
	return importDepth(vm, v, 0)
}

func importDepth(vm *goja.Runtime, v any, depth int) (goja.Value, error) {
	if depth > maxValueDepth {
		return nil, ErrValueTooDeep
	}

	switch x := v.(type) {
	case nil:
		return goja.Null(), nil
	case goja.Value:
		return x, nil
	case bool, string, int, int32, int64, uint, uint32, uint64, float32, float64:
		return vm.ToValue(x), nil
	case []byte:
		return vm.ToValue(string(x)), nil
	case []string:
		items := make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}
		return vm.NewArray(items...), nil
	case []any:
		items := make([]any, len(x))
		for i, item := range x {
			gv, err := importDepth(vm, item, depth+1)
			if err != nil {
				return nil, err
			}
			items[i] = gv
		}
		return vm.NewArray(items...), nil
	case []map[string]any:
		items := make([]any, len(x))
		for i, item := range x {
			gv, err := importDepth(vm, item, depth+1)
			if err != nil {
				return nil, err
			}
			items[i] = gv
		}
		return vm.NewArray(items...), nil
	case map[string]string:
		obj := vm.NewObject()
		for _, key := range sortedKeys(x) {
			if err := obj.Set(key, x[key]); err != nil {
				return nil, err
			}
		}
		return obj, nil
	case map[string]any:
		obj := vm.NewObject()
		for _, key := range sortedKeys(x) {
			gv, err := importDepth(vm, x[key], depth+1)
			if err != nil {
				return nil, err
			}
			if err := obj.Set(key, gv); err != nil {
				return nil, err
			}
		}
		return obj, nil
	default:
		data, err := sonic.ConfigStd.Marshal(x)
		if err != nil {
			return nil, fmt.Errorf("unsupported host value %T: %w", x, err)
		}
		var generic any
		if err := sonic.ConfigStd.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("unsupported host value %T: %w", x, err)
		}
		return importDepth(vm, generic, depth)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Format renders a host value for humans and models:
// strings verbatim, everything else as indented JSON.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	}
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
