// Package logging provides structured logging for g2link.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the toolkit. It provides both general logging
// functions and specialized functions for protocol-specific logging needs.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (hex dumps, frame parsing, GATT writes)
//   - Info: Normal operations (connections, messages, state changes)
//   - Warn: Non-fatal issues (dropped frames, orphaned fragments)
//   - Error: Fatal issues (startup failures, critical errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Glasses connected",
//	    zap.String("device", "Even G2_L_123456"),
//	    zap.String("address", "FC:12:34:56:78:9A"),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
// Connection Logging:
//
//	logging.LogConnection(deviceName, "ble_connected")
//	logging.LogConnection(deviceName, "auth_complete")
//	logging.LogConnection(deviceName, "disconnected")
//
// Frame Logging:
//
//	logging.LogFrame("tx", 0x0B, 0x20, seq, frameBytes)
//	logging.LogFrame("rx", svcHi, svcLo, seq, notification)
//
// Raw Byte Logging:
//
//	logging.LogRawBytes("notify payload", data)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// CLI commands that want silent mode by default should use
// InitializeFromEnv, which only enables output when G2LINK_LOG_LEVEL is set.
//
// # Output Format
//
// Logs are written to stdout in console format (human-readable):
//
//	2025-11-25T10:30:45.123-0800  INFO  Connection event
//	  device=Even G2_L_123456
//	  event=ble_connected
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
