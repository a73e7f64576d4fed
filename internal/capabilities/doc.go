/*
Package capabilities defines the host functions a guest script can call.

Everything a script can do outside its own runtime is listed here and
installed on the global sdk object:

	readFile(path)                          -> string
	writeFile(path, text | value)           -> {path, bytes}
	listFiles(path?, {recursive, pattern})  -> [{name, kind}]
	deletePath(path)                        -> boolean
	exec(command, {cwd, timeoutMs})         -> {code, stdout, stderr}
	fetch(url, {method, headers, body, format})
	                                        -> {status, headers, body, data?, title?, text?}
	delegateTask({task, contextArtifacts, maxIterations})
	                                        -> {success, summary, artifacts}

Paths are confined to a workspace.Root and checked before any filesystem
access. exec runs through the configured shell with a sanitised
environment, in its own process group, and is killed with the group when
the execution deadline passes.

# Capability sets

A Toolset carries everything except delegation. DelegatingToolset adds
delegateTask on top of a Toolset. Delegated children receive the plain
Toolset, so a child can never delegate again: the limit is the shape of
the type, not a depth counter.
*/
package capabilities
