// Package types provides shared data structures for the codeact backend.
//
// Types here cross package boundaries: the delegation descriptors travel
// from the guest through capabilities into the delegation package, and the
// request types are bound by the HTTP API.
//
// Delegation Types:
//   - Artifact: a workspace file a task produced or depends on
//   - DelegateTaskInput: a sub-task handed to a child agent
//   - DelegateTaskResult: the child's final structured response
//
// Request Types:
//   - ExecuteRequest: one script execution over HTTP
//
// Example Usage:
//
//	input := types.DelegateTaskInput{
//	    Task:          "Summarise notes/*.md into summary.md",
//	    MaxIterations: 4,
//	}
package types
