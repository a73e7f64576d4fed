package capabilities

import (
	"fmt"
	"math"
	"time"
)

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func requireString(args []any, i int, name string) (string, error) {
	switch v := arg(args, i).(type) {
	case nil:
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
	case string:
		if v == "" {
			return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
		}
		return v, nil
	default:
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidArgument, name, v)
	}
}

func optionalObject(args []any, i int, name string) (map[string]any, error) {
	switch v := arg(args, i).(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %s must be an object", ErrInvalidArgument, name)
	}
}

func stringField(m map[string]any, key string) (string, error) {
	switch v := m[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidArgument, key)
	}
}

func boolField(m map[string]any, key string) (bool, error) {
	switch v := m[key].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	default:
		return false, fmt.Errorf("%w: %s must be a boolean", ErrInvalidArgument, key)
	}
}

const (
	// maxIntArg is the largest integer a guest number carries exactly.
	maxIntArg = 1 << 53
	maxMillis = int64(24 * time.Hour / time.Millisecond)
)

func intField(m map[string]any, key string) (int64, error) {
	switch v := m[key].(type) {
	case nil:
		return 0, nil
	case int64:
		if v > maxIntArg || v < -maxIntArg {
			return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidArgument, key)
		}
		return v, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %s must be finite", ErrInvalidArgument, key)
		}
		if math.Abs(v) > maxIntArg {
			return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidArgument, key)
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidArgument, key)
	}
}

func millisField(m map[string]any, key string) (time.Duration, error) {
	ms, err := intField(m, key)
	if err != nil {
		return 0, err
	}
	if ms < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrInvalidArgument, key)
	}
	if ms > maxMillis {
		return 0, fmt.Errorf("%w: %s must not exceed %d", ErrInvalidArgument, key, maxMillis)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func stringMapField(m map[string]any, key string) (map[string]string, error) {
	switch v := m[key].(type) {
	case nil:
		return nil, nil
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s must be a string", ErrInvalidArgument, key, k)
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be an object", ErrInvalidArgument, key)
	}
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}
