package capabilities

import (
	"errors"

	"github.com/GriffinCanCode/codeact/internal/fetch"
	"github.com/GriffinCanCode/codeact/internal/sandbox"
	"github.com/GriffinCanCode/codeact/internal/workspace"
)

var (
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrBinaryFile      = errors.New("file is not UTF-8 text")
	ErrIsDirectory     = errors.New("is a directory")
	ErrNotDirectory    = errors.New("not a directory")
	ErrDeleteRoot      = errors.New("refusing to delete the workspace root")
	ErrFetchDisabled   = errors.New("fetch is not available")
)

// refusals are errors raised before any side effect
var refusals = []error{
	ErrMissingArgument,
	ErrInvalidArgument,
	ErrBinaryFile,
	ErrIsDirectory,
	ErrNotDirectory,
	ErrDeleteRoot,
	ErrFetchDisabled,
	fetch.ErrUnsupportedScheme,
	fetch.ErrInvalidMethod,
}

// classify marks refusals as capability errors so the guest can tell a
// rejected call from a failed one
func classify(name string, err error) error {
	if err == nil {
		return nil
	}
	if workspace.IsEscape(err) {
		return &sandbox.CapabilityError{Capability: name, Err: err}
	}
	for _, target := range refusals {
		if errors.Is(err, target) {
			return &sandbox.CapabilityError{Capability: name, Err: err}
		}
	}
	return err
}
