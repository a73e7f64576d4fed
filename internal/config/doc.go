// Package config provides 12-factor configuration for codeact.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables.
//
// Configuration Sections:
//   - Server: HTTP execute API settings (port, host)
//   - Sandbox: default script timeout and call stack limit
//   - Workspace: the root every file capability is confined to
//   - Exec: shell used by sdk.exec and its output cap
//   - Fetch: outbound HTTP client limits for sdk.fetch
//   - Delegation: iteration cap for delegated sub-agents
//   - Model: OpenAI-compatible endpoint driving agent sessions
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting of the HTTP API
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	root, err := workspace.New(cfg.Workspace.Root)
//
// Environment Variables:
//   - PORT, HOST
//   - CODEACT_TIMEOUT, CODEACT_MAX_CALL_STACK
//   - CODEACT_WORKSPACE
//   - CODEACT_EXEC_SHELL, CODEACT_EXEC_MAX_OUTPUT
//   - CODEACT_FETCH_TIMEOUT, CODEACT_FETCH_MAX_BYTES, CODEACT_FETCH_RPS, CODEACT_FETCH_RETRIES
//   - CODEACT_DELEGATE_MAX_ITERATIONS, CODEACT_DELEGATE_ENABLED
//   - MODEL_BASE_URL, MODEL_NAME, MODEL_API_KEY
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
