package loadtest

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/prizewheel/pkg/logger"
)

// SetupLogging sends logs to both the console and logFile. If logFile is
// empty, a timestamped filename is generated. The returned func closes it.
func SetupLogging(logFile string) (func() error, error) {
	if logFile == "" {
		logFile = "entry_load_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWithWriter(io.MultiWriter(os.Stdout, file)); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file.Close, nil
}

// ShowHelp prints usage information for the entry load tool.
func ShowHelp() {
	os.Stdout.WriteString(`Prizewheel Entry Load Tool
==========================

Creates a prize, submits many distinct entries to it concurrently, then
checks that every accepted entry was stored. Optionally draws a winner once
the prize closes and checks that a second draw is refused.

Usage:
  go run ./cmd/entry-load [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -token string
        Admin bearer token (default $PRIZEWHEEL_ADMIN_TOKEN)
  -entries int
        Number of entries to submit (default 1000)
  -workers int
        Number of concurrent submitters (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -window duration
        How long the test prize accepts entries (default 1m)
  -settle duration
        How long to wait for stored entries to converge (default 10s)
  -draw
        Draw a winner after the prize closes
  -output string
        Output file for submitted entries
  -log string
        Log file for test output (default: entry_load_TIMESTAMP.log)
  -verbose
        Log every failed entry
  -help
        Show this help message

Examples:
  # Quick check against a local server
  go run ./cmd/entry-load -entries 200

  # Heavier run that also draws
  go run ./cmd/entry-load -entries 20000 -workers 64 -window 2m -draw
`)
}
