// Package server wires the gin engine of the execution API.
//
// Server Lifecycle:
//  1. Build the runner, capability set and metrics (cmd/codeact)
//  2. Install middleware: recovery, request IDs, metrics, CORS, rate limiting
//  3. Register routes
//  4. Serve until the context is cancelled, then shut down gracefully
//
// Example Usage:
//
//	srv := server.New(cfg, server.Deps{Runner: runner, Capabilities: caps, Metrics: metrics, Logger: logger})
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal("server failed", zap.Error(err))
//	}
package server
