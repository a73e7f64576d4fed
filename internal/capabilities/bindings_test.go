package capabilities

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/codeact/internal/fetch"
	"github.com/GriffinCanCode/codeact/internal/sandbox"
	"github.com/GriffinCanCode/codeact/internal/shared/types"
)

func run(t *testing.T, caps sandbox.Capabilities, script string) *sandbox.Result {
	t.Helper()
	return sandbox.New(sandbox.DefaultConfig()).Execute(context.Background(), sandbox.ExecutionRequest{
		Script:       script,
		Timeout:      5 * time.Second,
		Capabilities: caps,
	})
}

func TestScriptWriteThenRead(t *testing.T) {
	res := run(t, newTestToolset(t), `await sdk.writeFile("a.txt", "hi"); return await sdk.readFile("a.txt")`)

	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, "hi", res.Value)
}

func TestScriptStructuredWriteAndList(t *testing.T) {
	res := run(t, newTestToolset(t), `
const w = await sdk.writeFile("cfg/app.json", {port: 8080, debug: false});
await sdk.writeFile("cfg/notes.txt", "n");
const all = await sdk.listFiles({recursive: true});
const json = await sdk.listFiles("cfg", {pattern: "*.json"});
return {w, all, json, text: await sdk.readFile("cfg/app.json")};
`)

	require.True(t, res.Success, res.ErrorMessage)
	value := res.Value.(map[string]any)
	assert.Equal(t, "cfg/app.json", value["w"].(map[string]any)["path"])
	assert.Equal(t, []any{
		map[string]any{"name": "cfg", "kind": "directory"},
		map[string]any{"name": "cfg/app.json", "kind": "file"},
		map[string]any{"name": "cfg/notes.txt", "kind": "file"},
	}, value["all"])
	assert.Equal(t, []any{map[string]any{"name": "app.json", "kind": "file"}}, value["json"])
	assert.JSONEq(t, `{"debug":false,"port":8080}`, value["text"].(string))
}

func TestScriptEscapeIsCapabilityError(t *testing.T) {
	res := run(t, newTestToolset(t), `
try {
	await sdk.readFile("../../etc/passwd");
} catch (e) {
	return [e.name, e.message];
}`)

	require.True(t, res.Success, res.ErrorMessage)
	value := res.Value.([]any)
	assert.Equal(t, "CapabilityError", value[0])
	assert.Contains(t, value[1], "outside the workspace")
}

func TestScriptMissingArgument(t *testing.T) {
	res := run(t, newTestToolset(t), `await sdk.readFile()`)

	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage, "CapabilityError")
	assert.Contains(t, res.ErrorMessage, "missing argument: path")
}

func TestScriptDeleteSemantics(t *testing.T) {
	res := run(t, newTestToolset(t), `
await sdk.writeFile("gone.txt", "x");
const first = await sdk.deletePath("gone.txt");
const second = await sdk.deletePath("gone.txt");
let rootRefused = false;
try { await sdk.deletePath(".") } catch (e) { rootRefused = e.name === "CapabilityError" }
return [first, second, rootRefused];
`)

	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, []any{true, false, true}, res.Value)
}

func TestScriptFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"greeting":"hello"}`))
	}))
	defer srv.Close()

	ts := newTestToolset(t, WithFetcher(fetch.New(fetch.Config{Retries: 0}, nil)))
	res := run(t, ts, `const r = await sdk.fetch("`+srv.URL+`"); return [r.status, r.data.greeting]`)

	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, []any{int64(200), "hello"}, res.Value)
}

func TestFetchAbsentWithoutFetcher(t *testing.T) {
	res := run(t, newTestToolset(t), `return typeof sdk.fetch`)

	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, "undefined", res.Value)
}

type recordingDelegator struct {
	mu     sync.Mutex
	inputs []types.DelegateTaskInput
	err    error
}

func (r *recordingDelegator) DelegateTask(_ context.Context, input types.DelegateTaskInput) (types.DelegateTaskResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, input)
	if r.err != nil {
		return types.DelegateTaskResult{}, r.err
	}
	return types.DelegateTaskResult{
		Success:   true,
		Summary:   "did " + input.Task,
		Artifacts: []types.Artifact{{Path: "out.md", Description: "result"}},
	}, nil
}

func TestDelegatingToolsetExposesDelegateTask(t *testing.T) {
	delegator := &recordingDelegator{}
	set := WithDelegation(newTestToolset(t), delegator)

	res := run(t, set, `
return await sdk.delegateTask({
	task: "summarise",
	maxIterations: 3,
	contextArtifacts: [{path: "in.md", description: "source"}, {description: "no path"}],
});`)

	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, map[string]any{
		"success":   true,
		"summary":   "did summarise",
		"artifacts": []any{map[string]any{"path": "out.md", "description": "result"}},
	}, res.Value)

	require.Len(t, delegator.inputs, 1)
	assert.Equal(t, "summarise", delegator.inputs[0].Task)
	assert.Equal(t, 3, delegator.inputs[0].MaxIterations)
	assert.Len(t, delegator.inputs[0].ContextArtifacts, 2)
}

func TestBaseToolsetCannotDelegate(t *testing.T) {
	set := WithDelegation(newTestToolset(t), &recordingDelegator{})

	res := run(t, set.Base(), `return typeof sdk.delegateTask`)

	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, "undefined", res.Value)
}

func TestDelegateTaskErrorRejects(t *testing.T) {
	set := WithDelegation(newTestToolset(t), &recordingDelegator{err: errors.New("no model")})

	res := run(t, set, `await sdk.delegateTask("x")`)

	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage, "no model")
}

func TestParseDelegateInput(t *testing.T) {
	input, err := ParseDelegateInput("just a task")
	require.NoError(t, err)
	assert.Equal(t, "just a task", input.Task)

	input, err = ParseDelegateInput(map[string]any{
		"task":             "t",
		"maxIterations":    float64(2.9),
		"contextArtifacts": []any{"a.md", map[string]any{"path": "b.md", "lastUpdated": "2026-01-01"}, int64(4)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, input.MaxIterations)
	assert.Equal(t, []types.Artifact{{Path: "a.md"}, {Path: "b.md", LastUpdated: "2026-01-01"}, {}}, input.ContextArtifacts)

	_, err = ParseDelegateInput(map[string]any{"contextArtifacts": "nope"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = ParseDelegateInput(int64(1))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNumericArgumentsOutOfRange(t *testing.T) {
	tests := []map[string]any{
		{"task": "t", "maxIterations": float64(1e30)},
		{"task": "t", "maxIterations": float64(-1e30)},
		{"task": "t", "maxIterations": math.Inf(1)},
		{"task": "t", "maxIterations": int64(1) << 62},
	}
	for _, raw := range tests {
		_, err := ParseDelegateInput(raw)
		assert.ErrorIs(t, err, ErrInvalidArgument, "%v", raw)
	}

	for _, ms := range []float64{1e20, float64(maxMillis + 1)} {
		_, err := millisField(map[string]any{"timeoutMs": ms}, "timeoutMs")
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
	d, err := millisField(map[string]any{"timeoutMs": float64(maxMillis)}, "timeoutMs")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, d)
}

func TestScriptExecRejectsHugeTimeout(t *testing.T) {
	res := run(t, newTestToolset(t), `
try {
	await sdk.exec("true", {timeoutMs: 1e20});
	return "ran";
} catch (e) {
	return e.message;
}`)

	require.True(t, res.Success, res.ErrorMessage)
	assert.Contains(t, res.Value, "timeoutMs must not exceed")
}
