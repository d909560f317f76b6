package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/okian/prizewheel/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// ErrPrizeNotVisible is returned when a created prize never shows up in the
// admin list.
var ErrPrizeNotVisible = errors.New("created prize did not appear")

// Run executes the complete entry load test and returns its statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	if config.Settle <= 0 {
		config.Settle = defaultSettle
	}

	logger.Get().Info(ctx, "starting prizewheel entry load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("entries", config.NumEntries),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Duration("window", config.Window),
		logger.Bool("draw", config.Draw),
		logger.Bool("verbose", config.Verbose))

	client := newHTTPClient(config)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Create a prize that closes after the window
	deadline := time.Now().Add(config.Window)
	prizeID, err := createPrize(ctx, config, client, deadline)
	if err != nil {
		return stats, fmt.Errorf("prize creation failed: %w", err)
	}
	stats.PrizeID = prizeID

	// Step 3: Generate and submit entries concurrently
	entries := generateEntries(ctx, config.NumEntries, stats)
	if err := submitEntries(ctx, config, client, prizeID, entries, stats); err != nil {
		return stats, fmt.Errorf("entry submission failed: %w", err)
	}

	// Step 4: Wait for the entries to land and verify none were lost
	list := awaitEntries(ctx, config, client, prizeID, stats.EntriesAccepted)
	if err := verifyEntries(ctx, entries, list, stats); err != nil {
		return stats, fmt.Errorf("entry verification failed: %w", err)
	}

	// Step 5: Draw once the prize closes
	if config.Draw && stats.EntriesStored > 0 {
		if wait := time.Until(deadline) + drawGrace; wait > 0 {
			logger.Get().Info(ctx, "waiting for the prize to close", logger.Duration("wait", wait))
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := verifyDraw(ctx, client, prizeID, entries, stats); err != nil {
			return stats, fmt.Errorf("draw verification failed: %w", err)
		}
	}

	// Step 6: Save entries to file
	if config.OutputFile != "" {
		if err := saveEntriesToFile(ctx, config.OutputFile, entries); err != nil {
			logger.Get().Warn(ctx, "failed to save entries to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service health")
	if _, err := client.Get(ctx, "/healthz", nil); err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// createPrize adds a uniquely named prize and waits for it to appear in the
// admin list, returning its id.
func createPrize(ctx context.Context, config *Config, client *HTTPClient, deadline time.Time) (string, error) {
	name := fmt.Sprintf("%s %s", prizeNameLabel, uuid.NewString()[:8])
	logger.Get().Info(ctx, "creating prize", logger.String("name", name), logger.Any("deadline", deadline))

	// A pending edit would turn the submission into an update.
	if _, err := client.Do(ctx, http.MethodDelete, "/api/admin/prizes/edit", nil, nil); err != nil {
		return "", err
	}
	form := prizeForm{
		Name:        name,
		Description: "Generated by the entry load tool",
		Deadline:    deadline.Format(time.RFC3339Nano),
	}
	if _, err := client.Post(ctx, "/api/admin/prizes", form, nil); err != nil {
		return "", err
	}

	var id string
	err := waitFor(ctx, config.Settle, func(ctx context.Context) (bool, error) {
		var list prizeList
		if _, err := client.Get(ctx, "/api/admin/prizes", &list); err != nil {
			return false, err
		}
		for _, p := range list.Prizes {
			if p.Name == name {
				id = p.ID
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPrizeNotVisible, err)
	}
	logger.Get().Info(ctx, "prize created", logger.String("prizeID", id))
	return id, nil
}

// saveEntriesToFile writes the submitted entries as a JSON array.
func saveEntriesToFile(ctx context.Context, filename string, entries []Entry) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "entries saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final test statistics.
func displayFinalStats(stats *Stats) {
	var acceptRate, entriesPerSecond float64
	if stats.EntriesSubmitted > 0 {
		acceptRate = float64(stats.EntriesAccepted) / float64(stats.EntriesSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		entriesPerSecond = float64(stats.EntriesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.String("prizeID", stats.PrizeID),
		logger.Int("entriesGenerated", stats.EntriesGenerated),
		logger.Int("entriesSubmitted", stats.EntriesSubmitted),
		logger.Int("entriesAccepted", stats.EntriesAccepted),
		logger.Int("entriesRejected", stats.EntriesRejected),
		logger.Int("entriesFailed", stats.EntriesFailed),
		logger.Int("entriesStored", stats.EntriesStored),
		logger.Int("entriesMissing", stats.EntriesMissing),
		logger.String("winner", stats.Winner),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("entriesPerSecond", entriesPerSecond))
}
