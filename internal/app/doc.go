// Package app assembles the runtime from configuration.
//
// It owns construction order: logger and metrics first, then the
// workspace root, fetch client and base toolset, then the runner, and
// finally the model and delegator when a model endpoint is configured.
// The CLI and the HTTP server both start from an *App.
//
// Example Usage:
//
//	a, err := app.New(config.LoadOrDefault(), logging.NewDefault())
//	res := a.Execute(ctx, `return await sdk.listFiles()`, 0)
package app
