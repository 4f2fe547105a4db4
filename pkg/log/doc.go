// Package log provides structured event logging for Wi-Fi bring-up.
//
// This package defines the Logger interface and Event types for capturing
// link, association, provisioning, readiness and time-sync events. It is
// separate from operational logging (slog): the event log is a complete
// machine-readable trace of what the device did while joining a network.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.EventLogger, _ = log.NewFileLogger("/var/log/wifiprov/device.wlog")
//
//	// Both: use MultiLogger, stamped with a boot ID
//	cfg.EventLogger = log.NewStamper(log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	), "pico-kitchen")
//
// # Event Types
//
// Every event carries a layer and a category. The payload is one of:
//   - StateChangeEvent: association or readiness state transitions
//   - RetryEvent: a failed attempt and the remaining retry budget
//   - CredentialEvent: credentials received from provisioning (SSID only)
//   - AddressEvent: the address captured when the link came up
//   - TimeSyncEvent: a clock synchronization result
//   - ErrorEventData: errors at any layer
//
// Secrets are never logged.
//
// # File Format
//
// Log files use CBOR encoding with .wlog extension. The wifiprov-log CLI
// tool provides viewing, filtering, and export capabilities.
package log
