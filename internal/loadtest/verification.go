package loadtest

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/okian/prizewheel/pkg/logger"
)

// Verification errors.
var (
	ErrLostEntries   = errors.New("accepted entries are missing from the prize")
	ErrExtraEntries  = errors.New("prize holds entries that were never submitted")
	ErrUnknownWinner = errors.New("winner is not one of the submitted entries")
	ErrRedraw        = errors.New("second draw was not rejected")
)

// awaitEntries polls the participant list until it holds as many entries as
// were accepted, or config.Settle passes.
func awaitEntries(ctx context.Context, config *Config, client *HTTPClient, prizeID string, want int) participantList {
	path := "/api/admin/prizes/" + url.PathEscape(prizeID) + "/participants"
	var list participantList
	err := waitFor(ctx, config.Settle, func(ctx context.Context) (bool, error) {
		var cur participantList
		if _, err := client.Get(ctx, path, &cur); err != nil {
			return false, err
		}
		list = cur
		return cur.Count >= want, nil
	})
	if err != nil {
		logger.Get().Warn(ctx, "entry count did not converge",
			logger.Int("want", want),
			logger.Int("have", list.Count),
			logger.Error(err))
	}
	return list
}

// verifyEntries checks that every accepted entry was stored exactly once and
// nothing else was.
func verifyEntries(ctx context.Context, entries []Entry, list participantList, stats *Stats) error {
	logger.Get().Info(ctx, "verifying stored entries", logger.Int("stored", list.Count))

	submitted := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		submitted[e.Name] = struct{}{}
	}

	seen := make(map[string]int, len(list.Entries))
	var extra int
	for _, p := range list.Entries {
		if _, ok := submitted[p.Name]; !ok {
			extra++
		}
		seen[p.Name]++
	}

	var dup int
	for name, n := range seen {
		if n > 1 {
			dup++
			logger.Get().Warn(ctx, "entry stored more than once", logger.String("name", name), logger.Int("count", n))
		}
	}

	stats.EntriesStored = list.Count
	stats.EntriesMissing = max(stats.EntriesAccepted-(len(seen)-extra), 0)

	switch {
	case stats.EntriesMissing > 0:
		return fmt.Errorf("%w: %d of %d", ErrLostEntries, stats.EntriesMissing, stats.EntriesAccepted)
	case extra > 0 || dup > 0:
		return fmt.Errorf("%w: %d unknown, %d duplicated", ErrExtraEntries, extra, dup)
	}
	logger.Get().Info(ctx, "all accepted entries are stored", logger.Int("count", list.Count))
	return nil
}

// verifyDraw draws prizeID and checks the winner came from entries and that
// a second draw is refused.
func verifyDraw(ctx context.Context, client *HTTPClient, prizeID string, entries []Entry, stats *Stats) error {
	path := "/api/admin/draws/" + url.PathEscape(prizeID)

	var result DrawResult
	if _, err := client.Post(ctx, path, nil, &result); err != nil {
		return fmt.Errorf("draw: %w", err)
	}

	found := false
	for _, e := range entries {
		if e.Name == result.Winner.Name {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownWinner, result.Winner.Name)
	}
	stats.Winner = result.Winner.Name
	logger.Get().Info(ctx, "winner drawn",
		logger.String("winner", result.Winner.Name),
		logger.String("message", result.Message))

	_, err := client.Post(ctx, path, nil, nil)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != StatusConflict {
		return fmt.Errorf("%w: %v", ErrRedraw, err)
	}
	return nil
}
