// Package logging wires slog to a charmbracelet/log handler.
package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Setup builds the process logger and installs it as the slog default.
func Setup(level, format string) *slog.Logger {
	var formatter log.Formatter
	switch format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		formatter = log.TextFormatter
	}

	logLevel := log.InfoLevel
	switch level {
	case "debug":
		logLevel = log.DebugLevel
	case "warn":
		logLevel = log.WarnLevel
	case "error":
		logLevel = log.ErrorLevel
	}

	handler := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Formatter:       formatter,
		Level:           logLevel,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
