package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/GriffinCanCode/codeact/internal/sandbox"
)

var scriptFence = regexp.MustCompile("(?s)```(?:js|javascript)[ \\t]*\\r?\\n(.*?)```")

// ExtractScript returns the first ```js or ```javascript block of reply
func ExtractScript(reply string) (string, bool) {
	m := scriptFence.FindStringSubmatch(reply)
	if m == nil {
		return "", false
	}
	script := strings.TrimSpace(m[1])
	return script, script != ""
}

// FormatResult renders an execution result as the next user message
func FormatResult(res *sandbox.Result) string {
	var b strings.Builder
	if res.Success {
		fmt.Fprintf(&b, "Execution succeeded in %dms.\nResult:\n%s\n", res.DurationMs, res.FormattedValue)
	} else {
		fmt.Fprintf(&b, "Execution failed after %dms.\nError: %s\n", res.DurationMs, res.ErrorMessage)
		if res.ErrorStack != "" {
			fmt.Fprintf(&b, "Stack:\n%s\n", res.ErrorStack)
		}
	}
	if len(res.Logs) > 0 {
		b.WriteString("Console:\n")
		for _, entry := range res.Logs {
			fmt.Fprintf(&b, "[%s] %s\n", entry.Level, entry.Message)
		}
	}
	return b.String()
}
