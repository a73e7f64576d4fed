// Package http contains the gin handlers of the execution API.
//
// Endpoints:
//   - GET  /          service banner
//   - GET  /health    liveness plus the installed capability names
//   - POST /v1/execute run one script, answering with the execution Result
//
// A script that fails still answers 200: the failure is part of the
// Result. Only malformed requests get 400.
package http
