// Package logging provides logging setup and configuration for the agent.
// Logs are written to both file and stdout by default.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	logFileName = "hostlens.log"
	logFileMode = 0644
	logDirMode  = 0755
)

// Config holds logging configuration.
type Config struct {
	LogDir      string
	Debug       bool
	LogToStdout bool
}

// Setup initializes logging with both file and optional stdout output.
// Returns the configured logger and a cleanup function to close the log
// file. File setup failures fall back to stdout-only logging rather than
// failing the agent.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: logLevel}

	if err := os.MkdirAll(cfg.LogDir, logDirMode); err != nil {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), func() {}, nil
	}

	logPath := filepath.Join(cfg.LogDir, logFileName)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, logFileMode)
	if err != nil {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)), func() {}, nil
	}

	var writer io.Writer = logFile
	if cfg.LogToStdout {
		writer = io.MultiWriter(logFile, os.Stdout)
	}

	logger := slog.New(slog.NewJSONHandler(writer, opts))
	cleanup := func() {
		logFile.Close()
	}
	return logger, cleanup, nil
}
