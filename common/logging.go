// Package common provides shared utilities used across the toolkit:
// logger setup, version information, and external command execution.
package common

import (
	"log/slog"
	"os"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// LoggingOpts configures the process-wide structured logger.
type LoggingOpts struct {
	// Service is added as a 'service' attribute to all log records.
	Service string

	// JSON switches the handler to JSON output.
	JSON bool

	// Debug lowers the handler level to debug.
	Debug bool

	// Version is added as a 'version' attribute to all log records.
	Version string
}

// SetupLogger creates a slog.Logger according to the provided options.
func SetupLogger(opts *LoggingOpts) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	if opts.Service != "" {
		logger = logger.With("service", opts.Service)
	}
	if opts.Version != "" {
		logger = logger.With("version", opts.Version)
	}
	return logger
}
