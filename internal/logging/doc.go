// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"dispatch": "debug",  // Per-module overrides
//			"stream":   "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("dispatch")
//	logger.Info("starting up", "devices", 3)
//	logger.Debug("details", "config", cfg)
//	logger.Warn("something unusual", "error", err)
//	logger.Error("failed", "error", err)
//
// Add contextual attributes:
//
//	logger := logging.GetLogger("evdevio").With("domain", dom)
//	logger.Info("device opened")  // Includes domain in all logs
//
// # Log Levels
//
//	debug - Verbose debugging information
//	info  - General operational messages
//	warn  - Warning conditions
//	error - Error conditions
//
// # Output Destinations
//
// The system automatically detects available outputs:
//
//	Journal available + stdout available → MultiHandler (both)
//	Journal available only              → JournalHandler
//	Stdout available only               → TextHandler or JSONHandler
//
// Journal availability is checked via [github.com/coreos/go-systemd/v22/journal.Enabled].
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t evflow              # All evflow logs
//	journalctl -t evflow -f           # Follow live
//	journalctl -t evflow --since "5m" # Last 5 minutes
//	journalctl -t evflow -p err       # Errors only
//
// Filter by structured fields:
//
//	journalctl -t evflow MODULE=dispatch
//
// # Configuration
//
// Log levels can be set globally or per-module. Module-specific levels
// override the global level for that module only.
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	dispatch = "debug"
//	stream = "warn"
package logging
