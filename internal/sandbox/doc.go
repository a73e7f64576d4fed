/*
Package sandbox runs untrusted JavaScript written by an agent against a fixed
set of host capabilities.

# Overview

Every call to Runner.Execute gets a brand-new goja runtime. The runtime has
no native I/O: files, processes, network and delegation are reachable only
through host functions installed on the global sdk object. Each execution:

  - is bounded by one wall-clock deadline shared by the script and every host call
  - captures console output (log, info, warn, error) in emission order
  - returns a Result carrying either a value or an error, never both
  - is torn down completely before Execute returns

# Architecture

 1. Runner: per-execution lifecycle (console, capabilities, interrupt, teardown)
 2. Host functions: guest-callable functions returning promises, backed by goroutines
 3. Job pump: hands host results back to the runtime goroutine
 4. Value bridge: conversion over a closed set of shapes (null, bool, number, string, array, object)

# Concurrency

A goja runtime is not safe for concurrent use. Only the goroutine running
Execute touches it; host handlers run on their own goroutines and enqueue
settlement jobs on the pump. Executions share nothing mutable, so any number
may run in parallel.

# Timeouts

The deadline is enforced twice: a timer interrupts the runtime so synchronous
loops abort, and every host call is raced against the remaining budget. When
Execute returns a timeout, the guest has stopped running and every host
operation it started has returned.

# Usage Example

	runner := sandbox.New(sandbox.DefaultConfig(), sandbox.WithLogger(logger))
	result := runner.Execute(ctx, sandbox.ExecutionRequest{
		Script:       "await sdk.writeFile('a.txt', 'hi'); return await sdk.readFile('a.txt');",
		Timeout:      time.Second,
		Capabilities: toolset,
	})
*/
package sandbox
