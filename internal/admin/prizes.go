package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/okian/prizewheel/internal/domain/model"
	"github.com/okian/prizewheel/pkg/logger"
)

// PrizeForm is the add/edit prize form. Images is a comma-separated list of
// URLs; Deadline is a datetime-local value or an RFC 3339 timestamp.
type PrizeForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Images      string `json:"images"`
	Deadline    string `json:"deadline"`
}

// SplitImages turns a comma-separated URL list into trimmed, non-empty URLs.
func SplitImages(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if url := strings.TrimSpace(part); url != "" {
			out = append(out, url)
		}
	}
	return out
}

// Parse validates the form, reading zoneless deadlines in loc.
func (f PrizeForm) Parse(loc *time.Location) (model.PrizeUpdate, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return model.PrizeUpdate{}, ErrMissingName
	}
	deadline, err := model.ParseTimestamp(f.Deadline, loc)
	if err != nil {
		return model.PrizeUpdate{}, errors.Join(ErrInvalidDeadline, err)
	}
	return model.PrizeUpdate{
		Name:        name,
		Description: f.Description,
		Images:      SplitImages(f.Images),
		Deadline:    deadline,
	}, nil
}

// SubmitPrize saves the form: it updates the prize being edited, or adds a
// new prize with no entries and no winner.
func (c *Controller) SubmitPrize(ctx context.Context, form PrizeForm) bool {
	u, err := form.Parse(c.dates.Location())
	if err != nil {
		c.logger.Debug(ctx, "prize form rejected", logger.Error(err))
		if errors.Is(err, ErrMissingName) {
			c.fail(ctx, MsgEnterName)
		} else {
			c.fail(ctx, MsgEnterDeadline)
		}
		return false
	}

	editing := c.State().EditingPrize
	if editing != "" {
		if _, ok := c.reader.Prize(editing); !ok {
			c.CancelPrizeEdit()
			return false
		}
		if !c.writer.UpdatePrize(ctx, editing, u) {
			return false
		}
		c.success(ctx, MsgPrizeUpdated)
		c.CancelPrizeEdit()
		return true
	}

	p := model.Prize{
		Name:        u.Name,
		Description: u.Description,
		Images:      u.Images,
		Deadline:    u.Deadline,
		Entries:     []model.Entry{},
		CreatedAt:   c.now(),
	}
	if !c.writer.CreatePrize(ctx, p) {
		return false
	}
	c.success(ctx, MsgPrizeAdded)
	return true
}

// EditPrize loads prize id into the form and switches to the add tab.
func (c *Controller) EditPrize(ctx context.Context, id string) (PrizeForm, bool) {
	p, ok := c.reader.Prize(id)
	if !ok {
		return PrizeForm{}, false
	}

	c.mu.Lock()
	c.state.EditingPrize = id
	c.state.Tab = TabAdd
	c.mu.Unlock()

	c.success(ctx, MsgEditingPrize)
	return PrizeForm{
		Name:        p.Name,
		Description: p.Description,
		Images:      strings.Join(p.Images, ", "),
		Deadline:    c.dates.InputValue(p.Deadline),
	}, true
}

// CancelPrizeEdit leaves editing mode.
func (c *Controller) CancelPrizeEdit() {
	c.mu.Lock()
	c.state.EditingPrize = ""
	c.mu.Unlock()
}

// DeletePrize removes prize id.
func (c *Controller) DeletePrize(ctx context.Context, id string) bool {
	if _, ok := c.reader.Prize(id); !ok {
		return false
	}
	if !c.writer.DeletePrize(ctx, id) {
		return false
	}
	c.mu.Lock()
	if c.state.EditingPrize == id {
		c.state.EditingPrize = ""
	}
	c.mu.Unlock()
	c.success(ctx, MsgPrizeDeleted)
	return true
}
