// Package admin is the admin console's controller: tab and editing state,
// form handling, and the view models the console renders.
package admin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/prizewheel/internal/cache"
	"github.com/okian/prizewheel/internal/domain/datefmt"
	"github.com/okian/prizewheel/internal/domain/model"
	"github.com/okian/prizewheel/internal/domain/notify"
	"github.com/okian/prizewheel/pkg/logger"
)

// Tab is a section of the console.
type Tab string

// Console tabs.
const (
	TabAdd    Tab = "add"
	TabList   Tab = "list"
	TabDraw   Tab = "draw"
	TabLabels Tab = "labels"
)

// DrawTab is a sub-section of the draw tab.
type DrawTab string

// Draw sub-tabs.
const (
	DrawReady   DrawTab = "ready"
	DrawHistory DrawTab = "history"
)

// Notifications raised by the console.
const (
	MsgPrizeAdded    = "Prize added"
	MsgPrizeUpdated  = "Prize updated"
	MsgPrizeDeleted  = "Prize deleted"
	MsgEditingPrize  = "Editing prize"
	MsgLabelAdded    = "Label added"
	MsgLabelUpdated  = "Label updated"
	MsgLabelDeleted  = "Label deleted"
	MsgEnterText     = "Please enter text"
	MsgEnterName     = "Please enter a prize name"
	MsgEnterDeadline = "Please enter a valid deadline"
)

const defaultPreviewLen = 50

// Writer is the subset of the store client the console writes through.
type Writer interface {
	CreatePrize(ctx context.Context, p model.Prize) bool
	UpdatePrize(ctx context.Context, id string, u model.PrizeUpdate) bool
	DeletePrize(ctx context.Context, id string) bool
	CreateLabel(ctx context.Context, text string) bool
	UpdateLabel(ctx context.Context, id, text string) bool
	DeleteLabel(ctx context.Context, id string) bool
}

// State is the console's transient UI state.
type State struct {
	Tab          Tab     `json:"tab"`
	DrawTab      DrawTab `json:"draw_tab"`
	EditingPrize string  `json:"editing_prize,omitempty"`
	EditingLabel string  `json:"editing_label,omitempty"`
}

// Controller owns the console state. It never changes records directly:
// writes go through the Writer and show up once the cache is refreshed.
type Controller struct {
	reader     cache.Reader
	writer     Writer
	notes      notify.Sink
	dates      *datefmt.Formatter
	previewLen int
	now        func() time.Time
	logger     logger.Logger

	mu    sync.Mutex
	state State
}

// New returns a controller on the add tab with nothing being edited.
func New(reader cache.Reader, writer Writer, notes notify.Sink, dates *datefmt.Formatter, opts ...Option) *Controller {
	c := &Controller{
		reader:     reader,
		writer:     writer,
		notes:      notes,
		dates:      dates,
		previewLen: defaultPreviewLen,
		now:        time.Now,
		state:      State{Tab: TabAdd, DrawTab: DrawReady},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("admin")
	}
	return c
}

// State returns the current UI state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetTab switches the visible tab.
func (c *Controller) SetTab(t Tab) error {
	switch t {
	case TabAdd, TabList, TabDraw, TabLabels:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTab, t)
	}
	c.mu.Lock()
	c.state.Tab = t
	c.mu.Unlock()
	return nil
}

// SetDrawTab switches between drawable prizes and draw history.
func (c *Controller) SetDrawTab(t DrawTab) error {
	switch t {
	case DrawReady, DrawHistory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTab, t)
	}
	c.mu.Lock()
	c.state.DrawTab = t
	c.mu.Unlock()
	return nil
}

func (c *Controller) success(ctx context.Context, msg string) {
	if c.notes != nil {
		c.notes.Success(ctx, msg)
	}
}

func (c *Controller) fail(ctx context.Context, msg string) {
	if c.notes != nil {
		c.notes.Error(ctx, msg)
	}
}
