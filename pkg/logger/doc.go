// Package logger provides a slog factory with environment-aware defaults:
// human-readable text output at debug level for development, JSON at info
// level for everything else.
package logger
