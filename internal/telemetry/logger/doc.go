// Package logger provides structured logging on top of log/slog.
//
//   - logger.go: Logger interface, construction and the process-wide level
//   - context.go: context propagation of the logger, request ID and user ID
//   - redact.go: masking of secrets before they reach the output
package logger
