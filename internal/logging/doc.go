// Package logging builds the process-wide slog logger with console and JSON
// handlers, shared attribute helpers, and log file retention.
package logging
