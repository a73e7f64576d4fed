package capabilities

import (
	"context"

	"github.com/GriffinCanCode/codeact/internal/fetch"
	"github.com/GriffinCanCode/codeact/internal/logging"
	"github.com/GriffinCanCode/codeact/internal/sandbox"
	"github.com/GriffinCanCode/codeact/internal/shared/types"
	"github.com/GriffinCanCode/codeact/internal/workspace"
)

// Set is the capability surface shared by every session
type Set interface {
	sandbox.Capabilities
	ReadFile(ctx context.Context, path string) (string, error)
	WriteFile(ctx context.Context, path string, content any) (*WriteResult, error)
	ListFiles(ctx context.Context, path string, opts ListOptions) ([]FileEntry, error)
	DeletePath(ctx context.Context, path string) (bool, error)
	Exec(ctx context.Context, command string, opts ExecOptions) (*ExecResult, error)
	Fetch(ctx context.Context, req fetch.Request) (*fetch.Response, error)
}

// Delegator runs a sub-task in a child agent session
type Delegator interface {
	DelegateTask(ctx context.Context, input types.DelegateTaskInput) (types.DelegateTaskResult, error)
}

// Delegating is a Set that can also delegate
type Delegating interface {
	Set
	Delegator
}

// Fetcher performs outbound HTTP requests
type Fetcher interface {
	Do(ctx context.Context, req fetch.Request) (*fetch.Response, error)
}

// Toolset is the base capability set
type Toolset struct {
	root    *workspace.Root
	fetcher Fetcher
	exec    ExecConfig
	logger  *logging.Logger
}

// Option configures a Toolset
type Option func(*Toolset)

// WithFetcher enables the fetch capability
func WithFetcher(f Fetcher) Option {
	return func(t *Toolset) {
		t.fetcher = f
	}
}

// WithExecConfig overrides the exec settings
func WithExecConfig(cfg ExecConfig) Option {
	return func(t *Toolset) {
		t.exec = cfg.withDefaults()
	}
}

// WithLogger sets the toolset logger
func WithLogger(logger *logging.Logger) Option {
	return func(t *Toolset) {
		t.logger = logger.OrNop()
	}
}

// New creates a toolset confined to root
func New(root *workspace.Root, opts ...Option) *Toolset {
	t := &Toolset{
		root:   root,
		exec:   DefaultExecConfig(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Root returns the workspace root
func (t *Toolset) Root() *workspace.Root {
	return t.root
}

// Fetch performs an outbound request
func (t *Toolset) Fetch(ctx context.Context, req fetch.Request) (*fetch.Response, error) {
	if t.fetcher == nil {
		return nil, ErrFetchDisabled
	}
	return t.fetcher.Do(ctx, req)
}

// DelegatingToolset is a Toolset plus delegateTask
type DelegatingToolset struct {
	*Toolset
	delegator Delegator
}

// WithDelegation extends base with delegation through d
func WithDelegation(base *Toolset, d Delegator) *DelegatingToolset {
	return &DelegatingToolset{Toolset: base, delegator: d}
}

// Base returns the set handed to delegated children
func (d *DelegatingToolset) Base() *Toolset {
	return d.Toolset
}

// DelegateTask runs input in a child session
func (d *DelegatingToolset) DelegateTask(ctx context.Context, input types.DelegateTaskInput) (types.DelegateTaskResult, error) {
	return d.delegator.DelegateTask(ctx, input)
}

var (
	_ Set        = (*Toolset)(nil)
	_ Delegating = (*DelegatingToolset)(nil)
)
