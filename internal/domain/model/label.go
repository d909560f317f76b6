package model

import "time"

// Label is a standalone promotional announcement.
type Label struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Fields returns the persisted shape of the label, without its ID.
func (l *Label) Fields() map[string]any {
	return map[string]any{
		"text":      l.Text,
		"createdAt": FormatTimestamp(l.CreatedAt),
	}
}
