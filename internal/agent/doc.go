// Package agent runs the bounded model/script loop.
//
// Each turn the model either answers with a fenced ```js block, which is
// executed in the sandbox with the session's capabilities and fed back as
// the next user message, or answers without one, which ends the session
// with that reply as the final response.
//
// Delegation runs child sessions through it; the CLI runs top-level ones.
package agent
