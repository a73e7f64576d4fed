package delegation

import (
	"regexp"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/codeact/internal/shared/types"
)

var jsonFence = regexp.MustCompile("(?s)```json[ \\t]*\\r?\\n(.*?)```")

type childResponse struct {
	Success   *bool            `json:"success"`
	Summary   string           `json:"summary"`
	Artifacts []types.Artifact `json:"artifacts"`
}

// ParseResult reads a child's final response. Anything that is not a JSON
// object with a success field yields success=false with the raw text as
// summary.
func ParseResult(raw string) types.DelegateTaskResult {
	for _, candidate := range candidates(raw) {
		var resp childResponse
		if err := sonic.ConfigStd.UnmarshalFromString(candidate, &resp); err != nil || resp.Success == nil {
			continue
		}
		artifacts := make([]types.Artifact, 0, len(resp.Artifacts))
		for _, a := range resp.Artifacts {
			if strings.TrimSpace(a.Path) != "" {
				artifacts = append(artifacts, a)
			}
		}
		return types.DelegateTaskResult{
			Success:   *resp.Success,
			Summary:   resp.Summary,
			Artifacts: artifacts,
		}
	}
	return types.DelegateTaskResult{Summary: raw, Artifacts: []types.Artifact{}}
}

// candidates lists the fenced block, the whole reply and the outermost
// braces, in that order.
func candidates(raw string) []string {
	var out []string
	if m := jsonFence.FindStringSubmatch(raw); m != nil {
		out = append(out, strings.TrimSpace(m[1]))
	}
	trimmed := strings.TrimSpace(raw)
	out = append(out, trimmed)
	if start, end := strings.Index(trimmed, "{"), strings.LastIndex(trimmed, "}"); start > 0 && end > start {
		out = append(out, trimmed[start:end+1])
	}
	return out
}
