// Package logger provides structured logging for the Timi client.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, configuration, dynamic level
//   - context.go: context propagation of the logger and client ID
//   - redact.go: masking of bearer tokens and secrets
//
// The CLI logs to stderr in text format at warn level by default so normal
// command output on stdout stays clean.
package logger
