package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/codeact/internal/config"
	"github.com/GriffinCanCode/codeact/internal/monitoring"
	"github.com/GriffinCanCode/codeact/internal/sandbox"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}
	caps := sandbox.Functions{{
		Name: "double",
		Handler: func(_ context.Context, args []any) (any, error) {
			n, _ := args[0].(float64)
			if i, ok := args[0].(int64); ok {
				n = float64(i)
			}
			return n * 2, nil
		},
	}}
	metrics := monitoring.NewMetrics()
	return New(cfg, Deps{
		Runner:       sandbox.New(sandbox.DefaultConfig(), sandbox.WithMetrics(metrics)),
		Capabilities: caps,
		Metrics:      metrics,
	})
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) sandbox.Result {
	t.Helper()
	var res sandbox.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	return res
}

func TestExecuteSuccess(t *testing.T) {
	srv := newTestServer(t, nil)

	w := do(t, srv, http.MethodPost, "/v1/execute", `{"script": "console.log('hi'); return await sdk.double(21)"}`)

	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	assert.True(t, res.Success, res.ErrorMessage)
	assert.EqualValues(t, 42, res.Value)
	assert.Regexp(t, `^exec_`, res.ID)
	require.Len(t, res.Logs, 1)
	assert.Equal(t, "hi", res.Logs[0].Message)
	assert.Regexp(t, `^req_`, w.Header().Get("X-Request-ID"))
}

func TestExecuteScriptFailureIsOK(t *testing.T) {
	srv := newTestServer(t, nil)

	w := do(t, srv, http.MethodPost, "/v1/execute", `{"script": "throw new Error('nope')"}`)

	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	assert.False(t, res.Success)
	assert.Equal(t, "nope", res.ErrorMessage)
}

func TestExecuteNonFiniteResultIsEncodable(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		script string
		want   any
	}{
		{"return NaN", "NaN"},
		{"return -Infinity", "-Infinity"},
		{"return {x: Infinity}", map[string]any{"x": "Infinity"}},
	}

	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			body, err := json.Marshal(map[string]string{"script": tt.script})
			require.NoError(t, err)

			w := do(t, srv, http.MethodPost, "/v1/execute", string(body))

			require.Equal(t, http.StatusOK, w.Code)
			res := decode(t, w)
			assert.True(t, res.Success, res.ErrorMessage)
			assert.Equal(t, tt.want, res.Value)
		})
	}
}

func TestExecuteRejectsMalformedRequests(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{script`},
		{"missing script", `{"timeoutMs": 100}`},
		{"blank script", `{"script": "   "}`},
		{"negative timeout", `{"script": "return 1", "timeoutMs": -5}`},
		{"wrong type", `{"script": 42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/v1/execute", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestExecuteTimeoutIsCapped(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Sandbox.MaxTimeout = 100 * time.Millisecond
	})

	start := time.Now()
	w := do(t, srv, http.MethodPost, "/v1/execute", `{"script": "while (true) {}", "timeoutMs": 60000}`)

	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	assert.True(t, res.TimedOut)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHealthAndRoot(t *testing.T) {
	srv := newTestServer(t, nil)

	health := do(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, health.Code)
	assert.JSONEq(t, `{"status":"healthy","capabilities":["double"]}`, health.Body.String())

	root := do(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, root.Code)
	assert.Contains(t, root.Body.String(), `"service":"codeact"`)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	do(t, srv, http.MethodPost, "/v1/execute", `{"script": "return 1"}`)

	w := do(t, srv, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "codeact_executions_total")
	assert.Contains(t, w.Body.String(), `path="/v1/execute"`)
}

func TestRateLimitEnabled(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.RequestsPerSecond = 1
		cfg.RateLimit.Burst = 1
	})

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, srv, http.MethodGet, "/health", "").Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv := newTestServer(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "healthy")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
