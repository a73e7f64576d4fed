package capabilities

import (
	"context"

	"github.com/GriffinCanCode/codeact/internal/fetch"
	"github.com/GriffinCanCode/codeact/internal/sandbox"
)

// Guest-visible capability names
const (
	NameReadFile     = "readFile"
	NameWriteFile    = "writeFile"
	NameListFiles    = "listFiles"
	NameDeletePath   = "deletePath"
	NameExec         = "exec"
	NameFetch        = "fetch"
	NameDelegateTask = "delegateTask"
)

// HostFunctions implements sandbox.Capabilities
func (t *Toolset) HostFunctions() []sandbox.HostFunction {
	fns := []sandbox.HostFunction{
		bind(NameReadFile, t.readFile),
		bind(NameWriteFile, t.writeFile),
		bind(NameListFiles, t.listFiles),
		bind(NameDeletePath, t.deletePath),
		bind(NameExec, t.execCommand),
	}
	if t.fetcher != nil {
		fns = append(fns, bind(NameFetch, t.fetch))
	}
	return fns
}

// HostFunctions implements sandbox.Capabilities
func (d *DelegatingToolset) HostFunctions() []sandbox.HostFunction {
	return append(d.Toolset.HostFunctions(), bind(NameDelegateTask, d.delegateTask))
}

func bind(name string, handler sandbox.HostHandler) sandbox.HostFunction {
	return sandbox.HostFunction{
		Name: name,
		Handler: func(ctx context.Context, args []any) (any, error) {
			value, err := handler(ctx, args)
			if err != nil {
				return nil, classify(name, err)
			}
			return value, nil
		},
	}
}

func (t *Toolset) readFile(ctx context.Context, args []any) (any, error) {
	p, err := requireString(args, 0, "path")
	if err != nil {
		return nil, err
	}
	return t.ReadFile(ctx, p)
}

func (t *Toolset) writeFile(ctx context.Context, args []any) (any, error) {
	p, err := requireString(args, 0, "path")
	if err != nil {
		return nil, err
	}
	res, err := t.WriteFile(ctx, p, arg(args, 1))
	if err != nil {
		return nil, err
	}
	return res.ToMap(), nil
}

// listFiles accepts (path?, options?) or (options)
func (t *Toolset) listFiles(ctx context.Context, args []any) (any, error) {
	var p string
	optIndex := 1
	switch v := arg(args, 0).(type) {
	case nil:
	case string:
		p = v
	case map[string]any:
		optIndex = 0
	default:
		return nil, invalid("path must be a string")
	}

	raw, err := optionalObject(args, optIndex, "options")
	if err != nil {
		return nil, err
	}
	var opts ListOptions
	if opts.Recursive, err = boolField(raw, "recursive"); err != nil {
		return nil, err
	}
	if opts.Pattern, err = stringField(raw, "pattern"); err != nil {
		return nil, err
	}

	entries, err := t.ListFiles(ctx, p, opts)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{"name": e.Name, "kind": e.Kind})
	}
	return out, nil
}

func (t *Toolset) deletePath(ctx context.Context, args []any) (any, error) {
	p, err := requireString(args, 0, "path")
	if err != nil {
		return nil, err
	}
	return t.DeletePath(ctx, p)
}

func (t *Toolset) execCommand(ctx context.Context, args []any) (any, error) {
	command, err := requireString(args, 0, "command")
	if err != nil {
		return nil, err
	}
	raw, err := optionalObject(args, 1, "options")
	if err != nil {
		return nil, err
	}
	var opts ExecOptions
	if opts.Cwd, err = stringField(raw, "cwd"); err != nil {
		return nil, err
	}
	if opts.Timeout, err = millisField(raw, "timeoutMs"); err != nil {
		return nil, err
	}

	res, err := t.Exec(ctx, command, opts)
	if err != nil {
		return nil, err
	}
	return res.ToMap(), nil
}

func (t *Toolset) fetch(ctx context.Context, args []any) (any, error) {
	url, err := requireString(args, 0, "url")
	if err != nil {
		return nil, err
	}
	raw, err := optionalObject(args, 1, "options")
	if err != nil {
		return nil, err
	}
	req := fetch.Request{URL: url, Body: raw["body"]}
	if req.Method, err = stringField(raw, "method"); err != nil {
		return nil, err
	}
	if req.Format, err = stringField(raw, "format"); err != nil {
		return nil, err
	}
	if req.Headers, err = stringMapField(raw, "headers"); err != nil {
		return nil, err
	}

	resp, err := t.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.ToMap(), nil
}

func (d *DelegatingToolset) delegateTask(ctx context.Context, args []any) (any, error) {
	input, err := ParseDelegateInput(arg(args, 0))
	if err != nil {
		return nil, err
	}
	res, err := d.DelegateTask(ctx, input)
	if err != nil {
		return nil, err
	}
	return res.ToMap(), nil
}
