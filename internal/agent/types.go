package agent

import (
	"context"

	"github.com/GriffinCanCode/codeact/internal/sandbox"
)

// Role is the author of a message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation entry
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Model produces the next assistant reply
type Model interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// ModelFunc adapts a function to Model
type ModelFunc func(ctx context.Context, messages []Message) (string, error)

// Complete implements Model
func (f ModelFunc) Complete(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}

// Executor runs scripts; *sandbox.Runner implements it
type Executor interface {
	Execute(ctx context.Context, req sandbox.ExecutionRequest) *sandbox.Result
}

// Step is one finished turn, reported to observers
type Step struct {
	Iteration int
	Reply     string
	Script    string
	Result    *sandbox.Result // nil when the reply carried no script
}
