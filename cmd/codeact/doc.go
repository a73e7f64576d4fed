// Package main is the codeact command.
//
// Subcommands:
//
//	codeact run [-timeout 5s] [-file script.js | -e 'return 1']   run one script, print the Result as JSON
//	codeact serve [-host 0.0.0.0] [-port 8000]                    serve the HTTP API
//	codeact agent -task "..." [-max-iterations 10]                run an agent session against the configured model
//
// Without -file or -e, run reads the script from stdin.
//
// Configuration:
//   - Environment variables (see internal/config)
//   - CLI flags override them
//   - -dev switches to colored debug logs
//
// Logs go to stderr; results go to stdout.
//
// Signals:
//   - SIGINT, SIGTERM: cancel the running script or session, or shut the server down gracefully
package main
