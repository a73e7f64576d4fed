package capabilities

import (
	"github.com/GriffinCanCode/codeact/internal/shared/types"
)

// ParseDelegateInput converts the guest argument of delegateTask. A bare
// string is taken as the task. Artifact entries are kept as given, even
// without a path; the delegator decides what to drop.
func ParseDelegateInput(v any) (types.DelegateTaskInput, error) {
	var input types.DelegateTaskInput
	switch x := v.(type) {
	case nil:
		return input, nil
	case string:
		input.Task = x
		return input, nil
	case map[string]any:
		var err error
		if input.Task, err = stringField(x, "task"); err != nil {
			return input, err
		}
		maxIterations, err := intField(x, "maxIterations")
		if err != nil {
			return input, err
		}
		input.MaxIterations = int(maxIterations)

		switch artifacts := x["contextArtifacts"].(type) {
		case nil:
		case []any:
			for _, item := range artifacts {
				input.ContextArtifacts = append(input.ContextArtifacts, parseArtifact(item))
			}
		default:
			return input, invalid("contextArtifacts must be an array")
		}
		return input, nil
	default:
		return input, invalid("delegateTask expects an object")
	}
}

func parseArtifact(v any) types.Artifact {
	switch x := v.(type) {
	case string:
		return types.Artifact{Path: x}
	case map[string]any:
		path, _ := x["path"].(string)
		description, _ := x["description"].(string)
		lastUpdated, _ := x["lastUpdated"].(string)
		return types.Artifact{Path: path, Description: description, LastUpdated: lastUpdated}
	default:
		return types.Artifact{}
	}
}
