package sandbox

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/codeact/internal/deadline"
)

func TestHostFunctionResolves(t *testing.T) {
	echo := HostFunction{Name: "echo", Handler: func(_ context.Context, args []any) (any, error) {
		return map[string]any{"args": args}, nil
	}}

	res := execute(t, `return await sdk.echo("a", 2, true, null, undefined, [1, {x: 1.5}])`, time.Second, echo)

	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, map[string]any{
		"args": []any{"a", int64(2), true, nil, nil, []any{int64(1), map[string]any{"x": 1.5}}},
	}, res.Value)
}

func TestHostFunctionRejects(t *testing.T) {
	fail := HostFunction{Name: "fail", Handler: func(context.Context, []any) (any, error) {
		return nil, errors.New("host failure")
	}}

	res := execute(t, `
try {
	await sdk.fail();
} catch (e) {
	return [e.name, e.message, typeof e.stack];
}`, time.Second, fail)

	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, []any{errorNameHost, "host failure", "string"}, res.Value)
}

func TestHostFunctionCapabilityError(t *testing.T) {
	deny := HostFunction{Name: "deny", Handler: func(context.Context, []any) (any, error) {
		return nil, &CapabilityError{Capability: "deny", Err: errors.New("not allowed")}
	}}

	res := execute(t, `await sdk.deny()`, time.Second, deny)

	assert.False(t, res.Success)
	assert.Equal(t, "CapabilityError: deny: not allowed", res.ErrorMessage)
}

func TestHostFunctionUncaughtRejectionFailsScript(t *testing.T) {
	fail := HostFunction{Name: "fail", Handler: func(context.Context, []any) (any, error) {
		return nil, errors.New("disk on fire")
	}}

	res := execute(t, `await sdk.fail(); return "unreachable"`, time.Second, fail)

	assert.False(t, res.Success)
	assert.Equal(t, "HostError: disk on fire", res.ErrorMessage)
	assert.NotEmpty(t, res.ErrorStack)
}

func TestHostFunctionSettlesInCompletionOrder(t *testing.T) {
	sleep := HostFunction{Name: "sleep", Handler: func(ctx context.Context, args []any) (any, error) {
		ms, _ := args[0].(int64)
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
			return ms, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}}

	res := execute(t, `
const order = [];
await Promise.all([
	sdk.sleep(60).then(v => order.push(v)),
	sdk.sleep(5).then(v => order.push(v)),
	sdk.sleep(30).then(v => order.push(v)),
]);
return order;
`, 2*time.Second, sleep)

	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, []any{int64(5), int64(30), int64(60)}, res.Value)
}

func TestHostFunctionSequentialCallsShareDeadline(t *testing.T) {
	var calls atomic.Int32
	slow := HostFunction{Name: "slow", Handler: func(ctx context.Context, _ []any) (any, error) {
		calls.Add(1)
		select {
		case <-time.After(40 * time.Millisecond):
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}}

	start := time.Now()
	res := execute(t, `for (let i = 0; i < 20; i++) { await sdk.slow() } return "done"`, 150*time.Millisecond, slow)

	assert.False(t, res.Success)
	assert.True(t, res.TimedOut)
	assert.Less(t, calls.Load(), int32(20))
	assert.Less(t, time.Since(start), time.Second)
}

func TestHostFunctionHangingCallBoundedByDeadline(t *testing.T) {
	var returned atomic.Bool
	hang := HostFunction{Name: "hang", Handler: func(ctx context.Context, _ []any) (any, error) {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		returned.Store(true)
		return nil, ctx.Err()
	}}

	res := execute(t, `await sdk.hang(); return 1`, 50*time.Millisecond, hang)

	assert.False(t, res.Success)
	assert.True(t, res.TimedOut)
	assert.Regexp(t, "timed out", res.ErrorMessage)
	// Execute waits for outstanding host calls before returning
	assert.True(t, returned.Load())
}

func TestHostFunctionTimeoutCatchableByGuest(t *testing.T) {
	hang := HostFunction{Name: "hang", Handler: func(ctx context.Context, _ []any) (any, error) {
		<-ctx.Done()
		return nil, &deadline.TimeoutError{Label: "hang"}
	}}

	// The guest catches the rejection but the script deadline still ends the run.
	res := execute(t, `try { await sdk.hang() } catch (e) { console.log(e.name) } while (true) {}`, 50*time.Millisecond, hang)

	assert.False(t, res.Success)
	assert.True(t, res.TimedOut)
}

func TestHostFunctionBadArgument(t *testing.T) {
	called := false
	fn := HostFunction{Name: "take", Handler: func(context.Context, []any) (any, error) {
		called = true
		return nil, nil
	}}

	res := execute(t, `const a = {}; a.self = a; try { sdk.take(a) } catch (e) { return e.name }`, time.Second, fn)

	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, "TypeError", res.Value)
	assert.False(t, called)
}

func TestHostFunctionOversizedArgument(t *testing.T) {
	called := false
	fn := HostFunction{Name: "take", Handler: func(context.Context, []any) (any, error) {
		called = true
		return nil, nil
	}}

	start := time.Now()
	res := execute(t, `const a = []; a.length = 50000000; try { sdk.take(a) } catch (e) { return e.name }`, time.Second, fn)

	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, "TypeError", res.Value)
	assert.False(t, called)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHostFunctionUnconvertibleResult(t *testing.T) {
	fn := HostFunction{Name: "chan", Handler: func(context.Context, []any) (any, error) {
		return make(chan int), nil
	}}

	res := execute(t, `await sdk.chan()`, time.Second, fn)

	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage, "chan: result")
}

func TestHostFunctionReceivesCancellationOnTimeout(t *testing.T) {
	cancelled := make(chan struct{})
	fn := HostFunction{Name: "wait", Handler: func(ctx context.Context, _ []any) (any, error) {
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	}}

	execute(t, `await sdk.wait()`, 30*time.Millisecond, fn)

	select {
	case <-cancelled:
	default:
		t.Fatal("handler context was not cancelled")
	}
}
