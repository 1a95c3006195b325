package loadgen

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/perfcore/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging initialises the logger on stdout and, when logFile is set,
// on that file too. The returned close func is never nil.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	if logFile == "" {
		if err := logger.Init(logger.WithLevel(level)); err != nil {
			return func() error { return nil }, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return func() error { return nil }, nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return func() error { return nil }, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithLevel(level), logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return func() error { return nil }, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file.Close, nil
}

// ShowHelp prints usage information for the load generator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`perfcore load generator
=======================

Generates synthetic teams, scores them concurrently through /v1/teams/score
and verifies every answer.

Usage:
  go run ./cmd/loadgen [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -teams int
        Number of teams to submit (default 100)
  -size int
        Members per team (default 25)
  -workers int
        Number of concurrent submitters (default CPU cores * 2)
  -policy string
        Scoring policy (default: the service default)
  -seed uint
        Generator seed (default: from the clock)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Save the generated teams to this JSON file
  -log string
        Also write the log to this file
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/loadgen -teams 1000 -size 50 -workers 16
  go run ./cmd/loadgen -policy sales -seed 42 -output teams.json
`)
}
