package admin

import (
	"context"
	"strings"
)

// SubmitLabel saves text as the label being edited, or as a new label.
func (c *Controller) SubmitLabel(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		c.fail(ctx, MsgEnterText)
		return false
	}

	if editing := c.State().EditingLabel; editing != "" {
		if !c.writer.UpdateLabel(ctx, editing, text) {
			return false
		}
		c.success(ctx, MsgLabelUpdated)
		c.CancelLabelEdit()
		return true
	}

	if !c.writer.CreateLabel(ctx, text) {
		return false
	}
	c.success(ctx, MsgLabelAdded)
	return true
}

// EditLabel puts label id into editing mode and returns its text.
func (c *Controller) EditLabel(id string) (string, bool) {
	l, ok := c.reader.Label(id)
	if !ok {
		return "", false
	}
	c.mu.Lock()
	c.state.EditingLabel = id
	c.mu.Unlock()
	return l.Text, true
}

// CancelLabelEdit leaves label editing mode.
func (c *Controller) CancelLabelEdit() {
	c.mu.Lock()
	c.state.EditingLabel = ""
	c.mu.Unlock()
}

// DeleteLabel removes label id.
func (c *Controller) DeleteLabel(ctx context.Context, id string) bool {
	if !c.writer.DeleteLabel(ctx, id) {
		return false
	}
	c.mu.Lock()
	if c.state.EditingLabel == id {
		c.state.EditingLabel = ""
	}
	c.mu.Unlock()
	c.success(ctx, MsgLabelDeleted)
	return true
}
