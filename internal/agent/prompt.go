package agent

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/codeact/internal/sandbox"
)

var signatures = map[string]string{
	"readFile":     "readFile(path) -> string",
	"writeFile":    "writeFile(path, content) -> {path, bytes}; objects are encoded by extension (.json, .yaml, .toml)",
	"listFiles":    "listFiles(path?, {recursive?, pattern?}) -> [{name, kind}]",
	"deletePath":   "deletePath(path) -> bool",
	"exec":         "exec(command, {cwd?, timeoutMs?}) -> {code, stdout, stderr}",
	"fetch":        "fetch(url, {method?, headers?, body?, format?}) -> {status, headers, body, data?, title?, text?}",
	"delegateTask": "delegateTask({task, contextArtifacts?, maxIterations?}) -> {success, summary, artifacts}",
}

const promptHeader = `You solve tasks by writing JavaScript that runs in a sandbox.

To act, reply with exactly one fenced block:

` + "```js" + `
const text = await sdk.readFile("notes.md");
console.log(text.length);
return text.split("\n")[0];
` + "```" + `

The block runs as the body of an async function. Use await on every sdk call.
The returned value and console output come back to you in the next message.
There is no require, no timers and no network access except through sdk.
All paths are relative to the workspace.

`

// SystemPrompt describes the host functions caps exposes under global
func SystemPrompt(global string, caps sandbox.Capabilities) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	fmt.Fprintf(&b, "Available functions on %s:\n", global)
	if caps != nil {
		for _, fn := range caps.HostFunctions() {
			sig, ok := signatures[fn.Name]
			if !ok {
				sig = fn.Name + "(...)"
			}
			fmt.Fprintf(&b, "- %s.%s\n", global, sig)
		}
	}
	b.WriteString("\nWhen the task is done, reply without a code block. That reply is your final answer.\n")
	return b.String()
}
