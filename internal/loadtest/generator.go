package loadtest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/prizewheel/pkg/logger"
)

// generateEntries creates n entries with distinct names and handles.
func generateEntries(ctx context.Context, n int, stats *Stats) []Entry {
	logger.Get().Info(ctx, "generating entries with unique names", logger.Int("numEntries", n))

	entries := make([]Entry, n)
	for i := range entries {
		id := uuid.NewString()
		entries[i] = Entry{
			Name:    fmt.Sprintf("guest %d %s", i+1, id[:8]),
			Twitter: "lt_" + id[:12],
		}
	}
	stats.EntriesGenerated = n
	return entries
}

// submitEntries posts every entry to prizeID, at most config.Workers at a
// time. Rejections and failures are counted; only cancellation aborts.
func submitEntries(ctx context.Context, config *Config, client *HTTPClient, prizeID string, entries []Entry, stats *Stats) error {
	logger.Get().Info(ctx, "submitting entries",
		logger.Int("entries", len(entries)),
		logger.Int("workers", config.Workers))

	var accepted, rejected, failed int64
	path := "/api/prizes/" + url.PathEscape(prizeID) + "/entries"

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(config.Workers, 1))
	for i, e := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := client.Post(gctx, path, e, nil)
			var se *StatusError
			switch {
			case err == nil:
				atomic.AddInt64(&accepted, 1)
			case errors.As(err, &se) && se.Code == StatusConflict:
				atomic.AddInt64(&rejected, 1)
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				atomic.AddInt64(&failed, 1)
				if config.Verbose {
					logger.Get().Warn(gctx, "entry failed", logger.Int("index", i), logger.Error(err))
				}
			}
			return nil
		})
	}
	err := g.Wait()

	stats.EntriesAccepted = int(atomic.LoadInt64(&accepted))
	stats.EntriesRejected = int(atomic.LoadInt64(&rejected))
	stats.EntriesFailed = int(atomic.LoadInt64(&failed))
	stats.EntriesSubmitted = stats.EntriesAccepted + stats.EntriesRejected + stats.EntriesFailed

	logger.Get().Info(ctx, "entry submission completed",
		logger.Int("accepted", stats.EntriesAccepted),
		logger.Int("rejected", stats.EntriesRejected),
		logger.Int("failed", stats.EntriesFailed))
	return err
}
