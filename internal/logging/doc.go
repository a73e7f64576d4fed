// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// Logs go to stderr by default so the CLI can keep stdout for execution
// results.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("execution finished", zap.String("id", execID), zap.Bool("success", ok))
//	logger.Error("fetch failed", zap.Error(err))
package logging
