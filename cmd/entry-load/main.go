package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/prizewheel/internal/loadtest"
)

// Default configuration constants.
const (
	defaultNumEntries  = 1000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultWindow      = time.Minute
	defaultSettle      = 10 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	_ = godotenv.Load()

	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		token      = flag.String("token", os.Getenv("PRIZEWHEEL_ADMIN_TOKEN"), "Admin bearer token")
		numEntries = flag.Int("entries", defaultNumEntries, "Number of entries to submit")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		window     = flag.Duration("window", defaultWindow, "How long the test prize accepts entries")
		settle     = flag.Duration("settle", defaultSettle, "How long to wait for stored entries to converge")
		doDraw     = flag.Bool("draw", false, "Draw a winner after the prize closes")
		outputFile = flag.String("output", "", "Output file for submitted entries")
		logFile    = flag.String("log", "", "Log file for test output (default: entry_load_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Log every failed entry")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	closeLog, err := loadtest.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
	defer cancel()

	config := &loadtest.Config{
		BaseURL:    *baseURL,
		AdminToken: *token,
		NumEntries: *numEntries,
		Workers:    *workers,
		Timeout:    *timeout,
		Window:     *window,
		Settle:     *settle,
		Draw:       *doDraw,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	if _, err := loadtest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		cancel()
		_ = closeLog()
		os.Exit(1)
	}
}
