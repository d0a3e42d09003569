// Package logging provides structured logging for rev4switch.
//
// This package wraps a zap logger with package-level helpers so the codec,
// the bridge server and the CLI all log the same way.
//
// # Log Levels
//
//   - Debug: pulse dumps, ambiguous input, message bodies
//   - Info: encoded/decoded commands, connections, requests
//   - Warn: recoverable problems (dropped clients, bad captures)
//   - Error: rejected commands, startup failures
//
// # Structured Logging
//
//	logging.Info("Bridge listening",
//	    zap.String("addr", ":5001"),
//	)
//
// Domain helpers:
//
//	logging.LogCommand("encode", "rev4_switch", 5, 2, "on")
//	logging.LogPulses("Encoded pulse train", pulses)
//	logging.LogConnection(remoteAddr, "websocket_upgraded")
//
// # Configuration
//
// Logging is silent until initialized with a level, either explicitly or
// through REV4_LOG_LEVEL:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Output goes to stderr so that commands printing pulse trains to stdout
// stay pipeable.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once initialized.
package logging
