package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/codeact/internal/sandbox"
)

func TestExtractScript(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		script string
		ok     bool
	}{
		{"js fence", "run:\n```js\nreturn 1\n```", "return 1", true},
		{"javascript fence", "```javascript\nconst a = 1;\nreturn a\n```", "const a = 1;\nreturn a", true},
		{"first of many", "```js\nreturn 1\n```\n```js\nreturn 2\n```", "return 1", true},
		{"crlf", "```js\r\nreturn 3\r\n```", "return 3", true},
		{"other language", "```python\nprint(1)\n```", "", false},
		{"bare fence", "```\nreturn 1\n```", "", false},
		{"empty block", "```js\n\n```", "", false},
		{"plain text", "All done.", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, ok := ExtractScript(tt.reply)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.script, script)
		})
	}
}

func TestFormatResult(t *testing.T) {
	ok := FormatResult(&sandbox.Result{
		Success:        true,
		FormattedValue: `{"a":1}`,
		DurationMs:     12,
		Logs:           []sandbox.LogEntry{{Level: "log", Message: "hello"}},
	})
	assert.Equal(t, "Execution succeeded in 12ms.\nResult:\n{\"a\":1}\nConsole:\n[log] hello\n", ok)

	failed := FormatResult(&sandbox.Result{
		ErrorMessage: "TypeError: x is not a function",
		ErrorStack:   "at script.js:1:1",
		DurationMs:   3,
	})
	assert.Equal(t, "Execution failed after 3ms.\nError: TypeError: x is not a function\nStack:\nat script.js:1:1\n", failed)
}

func TestSystemPromptListsOnlyGivenFunctions(t *testing.T) {
	caps := sandbox.Functions{{Name: "readFile"}, {Name: "exec"}}

	prompt := SystemPrompt("sdk", caps)

	assert.Contains(t, prompt, "- sdk.readFile(path) -> string")
	assert.Contains(t, prompt, "- sdk.exec(command")
	assert.NotContains(t, prompt, "delegateTask")
	assert.NotContains(t, prompt, "sdk.fetch(")
}
