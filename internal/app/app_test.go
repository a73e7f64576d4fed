package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/codeact/internal/agent"
	"github.com/GriffinCanCode/codeact/internal/capabilities"
	"github.com/GriffinCanCode/codeact/internal/config"
	"github.com/GriffinCanCode/codeact/internal/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Workspace.Root = filepath.Join(t.TempDir(), "ws")
	cfg.RateLimit.Enabled = false
	return cfg
}

var finalAnswer = agent.ModelFunc(func(context.Context, []agent.Message) (string, error) {
	return `{"success": true, "summary": "done"}`, nil
})

func TestNewWithoutModel(t *testing.T) {
	a, err := New(testConfig(t), logging.NewNop())
	require.NoError(t, err)

	assert.Nil(t, a.Model)
	assert.Nil(t, a.Delegator)
	_, delegating := a.Capabilities().(capabilities.Delegating)
	assert.False(t, delegating)

	_, err = a.NewSession(3)
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestNewWithModelEnablesDelegation(t *testing.T) {
	a, err := New(testConfig(t), logging.NewNop(), WithModel(finalAnswer))
	require.NoError(t, err)

	require.NotNil(t, a.Delegator)
	assert.Equal(t, 6, a.Delegator.MaxIterations())
	_, delegating := a.Capabilities().(capabilities.Delegating)
	assert.True(t, delegating)

	res := a.Execute(context.Background(), `return (await sdk.delegateTask({task: "x"})).summary`, 0)
	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, "done", res.Value)
}

func TestDelegationDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Delegation.Enabled = false

	a, err := New(cfg, logging.NewNop(), WithModel(finalAnswer))
	require.NoError(t, err)

	assert.Nil(t, a.Delegator)
	res := a.Execute(context.Background(), `return typeof sdk.delegateTask`, 0)
	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, "undefined", res.Value)
}

func TestExecuteUsesWorkspace(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, logging.NewNop())
	require.NoError(t, err)

	res := a.Execute(context.Background(), `return await sdk.writeFile("hello.txt", "hi")`, 0)
	require.True(t, res.Success, res.ErrorMessage)

	data, err := os.ReadFile(filepath.Join(cfg.Workspace.Root, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))
}

func TestSessionRuns(t *testing.T) {
	a, err := New(testConfig(t), logging.NewNop(), WithModel(finalAnswer))
	require.NoError(t, err)

	session, err := a.NewSession(2)
	require.NoError(t, err)
	out, err := session.Run(context.Background(), "anything")
	require.NoError(t, err)
	assert.Contains(t, out, "done")
}

func TestServerExposesCapabilities(t *testing.T) {
	a, err := New(testConfig(t), logging.NewNop())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	a.Server().Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"readFile"`)
	assert.Contains(t, w.Body.String(), `"fetch"`)
	assert.NotContains(t, w.Body.String(), `"delegateTask"`)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Workspace.Root = ""

	_, err := New(cfg, logging.NewNop())
	assert.Error(t, err)
}
