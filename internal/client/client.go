// Package client is the typed gateway to the document store. Every write
// reports a boolean outcome; failures are logged and surfaced as
// notifications instead of propagating.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/prizewheel/internal/adapters/store"
	"github.com/okian/prizewheel/internal/domain/model"
	"github.com/okian/prizewheel/internal/domain/notify"
	"github.com/okian/prizewheel/pkg/logger"
	"github.com/okian/prizewheel/pkg/metrics"
)

// Failure notifications.
const (
	MsgAddPrizeFailed    = "Failed to add prize"
	MsgUpdatePrizeFailed = "Failed to update prize"
	MsgDeletePrizeFailed = "Failed to delete prize"
	MsgAddEntryFailed    = "Failed to add entry"
	MsgSaveWinnerFailed  = "Failed to save winner"
	MsgAddLabelFailed    = "Failed to add label"
	MsgUpdateLabelFailed = "Failed to update label"
	MsgDeleteLabelFailed = "Failed to delete label"
)

// Client performs record-level writes against a Store.
type Client struct {
	store  store.Store
	notes  notify.Sink
	logger logger.Logger
	now    func() time.Time
}

// New returns a client writing to s and reporting failures to notes.
func New(s store.Store, notes notify.Sink, opts ...Option) *Client {
	c := &Client{store: s, notes: notes, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("client")
	}
	return c
}

// CreatePrize stores a new prize. Entries start empty, the winner unset, and
// a missing creation time is stamped with now.
func (c *Client) CreatePrize(ctx context.Context, p model.Prize) bool { //nolint:gocritic // hugeParam: records are values
	if p.CreatedAt.IsZero() {
		p.CreatedAt = c.now()
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	p.Entries = []model.Entry{}
	p.Winner = nil

	return c.do(ctx, "create", model.Prizes, MsgAddPrizeFailed, func() error {
		_, err := c.store.Create(ctx, string(model.Prizes), p.Fields())
		return err
	})
}

// UpdatePrize replaces the editable fields of prize id.
func (c *Client) UpdatePrize(ctx context.Context, id string, u model.PrizeUpdate) bool {
	return c.do(ctx, "update", model.Prizes, MsgUpdatePrizeFailed, func() error {
		return c.store.Update(ctx, string(model.Prizes), id, u.Fields())
	})
}

// DeletePrize removes prize id.
func (c *Client) DeletePrize(ctx context.Context, id string) bool {
	return c.do(ctx, "delete", model.Prizes, MsgDeletePrizeFailed, func() error {
		return c.store.Delete(ctx, string(model.Prizes), id)
	})
}

// AddEntry appends e to the entries of prize id with a union merge, so
// simultaneous submissions never overwrite each other. Submitting the same
// name and handle twice keeps one entry.
func (c *Client) AddEntry(ctx context.Context, prizeID string, e model.Entry) bool {
	return c.do(ctx, "add_entry", model.Prizes, MsgAddEntryFailed, func() error {
		if e.Name == "" {
			return fmt.Errorf("%w: entry name is empty", ErrInvalidInput)
		}
		return c.store.Update(ctx, string(model.Prizes), prizeID, map[string]any{
			"entries": store.ArrayUnion(e.Fields()),
		})
	})
}

// SetWinner records the winner of prize id. The write is refused when a
// winner is already stored, so a prize is decided at most once.
func (c *Client) SetWinner(ctx context.Context, prizeID string, winner model.Entry) bool {
	return c.do(ctx, "set_winner", model.Prizes, MsgSaveWinnerFailed, func() error {
		return c.store.Transform(ctx, string(model.Prizes), prizeID, func(cur map[string]any) (map[string]any, error) {
			if cur["winner"] != nil {
				return nil, ErrWinnerExists
			}
			return map[string]any{"winner": winner.Fields()}, nil
		})
	})
}

// CreateLabel stores a new label stamped with now.
func (c *Client) CreateLabel(ctx context.Context, text string) bool {
	l := model.Label{Text: text, CreatedAt: c.now()}
	return c.do(ctx, "create", model.Labels, MsgAddLabelFailed, func() error {
		_, err := c.store.Create(ctx, string(model.Labels), l.Fields())
		return err
	})
}

// UpdateLabel replaces the text of label id.
func (c *Client) UpdateLabel(ctx context.Context, id, text string) bool {
	return c.do(ctx, "update", model.Labels, MsgUpdateLabelFailed, func() error {
		return c.store.Update(ctx, string(model.Labels), id, map[string]any{"text": text})
	})
}

// DeleteLabel removes label id.
func (c *Client) DeleteLabel(ctx context.Context, id string) bool {
	return c.do(ctx, "delete", model.Labels, MsgDeleteLabelFailed, func() error {
		return c.store.Delete(ctx, string(model.Labels), id)
	})
}

func (c *Client) do(ctx context.Context, op string, collection model.Collection, failure string, fn func() error) bool {
	start := time.Now()
	err := fn()
	metrics.RecordStoreOperation(op, string(collection), err == nil, time.Since(start))
	if err == nil {
		return true
	}

	level := c.logger.Error
	if errors.Is(err, ErrWinnerExists) || errors.Is(err, ErrInvalidInput) {
		level = c.logger.Warn
	}
	level(ctx, "store write failed",
		logger.String("op", op),
		logger.String("collection", string(collection)),
		logger.Error(err),
	)
	if c.notes != nil {
		c.notes.Error(ctx, failure)
	}
	return false
}
