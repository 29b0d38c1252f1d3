// Package logging provides structured logging for the Lumin request client.
//
// This package wraps a zap logger with package-level helpers and a few
// request-specific field builders used by the dispatcher and the host bridge.
//
// # Log Levels
//
//   - Debug: full URLs, request bodies, response bodies
//   - Info: request lifecycle (run started, request sent)
//   - Warn: recoverable oddities
//   - Error: body parse failures, invalid methods, transport failures
//
// # Configuration
//
// Logging is silent by default so the client can be embedded in a host
// application without producing output. Enable it explicitly:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// or set LUMIN_LOG_LEVEL and call InitializeFromEnv.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once initialized.
package logging
