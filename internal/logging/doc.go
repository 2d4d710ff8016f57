// Package logging provides structured logging for the arm daemon.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the daemon. It provides both general logging
// functions and specialized helpers for protocol and servo events.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (raw byte dumps, received command lines)
//   - Info: Normal operations (connections, applied servo updates, state changes)
//   - Warn: Non-fatal issues (buffer overflows, unparsable commands)
//   - Error: Fatal issues (startup failures, sink errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Client connected",
//	    zap.String("remote_addr", "192.168.4.2:51234"),
//	)
//
// # Specialized Logging
//
// Connection lifecycle:
//
//	logging.LogConnection(remoteAddr, "connection_accepted")
//	logging.LogConnection(remoteAddr, "connection_timeout")
//	logging.LogConnection(remoteAddr, "connection_closed")
//
// Applied servo updates (one entry per applied field):
//
//	logging.LogServoUpdate("base", 0, 90, 19917)
//
// Raw protocol bytes at debug level:
//
//	logging.LogRawBytes("rx", data)
//
// # Configuration
//
// Initialize logging at daemon startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is configured, and ARMD_LOG_LEVEL is unset, the logger is a
// no-op; CLI commands stay silent by default.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
