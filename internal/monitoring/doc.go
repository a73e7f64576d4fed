/*
Package monitoring provides Prometheus metrics for script executions.

# Overview

Metrics live on a private registry owned by Metrics, so tests and embedded
uses can create as many collectors as they like without clashing on the
global default registry.

# Metrics

  - codeact_executions_total{status}: finished executions (success, error, timeout)
  - codeact_execution_duration_seconds: wall-clock time of one execution
  - codeact_capability_calls_total{capability,status}: host calls made by scripts
  - codeact_capability_duration_seconds{capability}: host call latency
  - codeact_delegations_total{status}: delegated sub-agent tasks
  - codeact_http_requests_total{method,path,status}: execute API requests

All Record* methods are nil-safe, so components accept an optional *Metrics.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
