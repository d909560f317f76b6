// Package model contains the giveaway records shared by every layer.
package model

import (
	"slices"
	"time"
)

// Collection names a document collection in the store.
type Collection string

// Collections persisted by the service.
const (
	Prizes Collection = "prizes"
	Labels Collection = "labels"
)

// OrderKey is the field both collections are ordered by.
const OrderKey = "createdAt"

// Entry is one participant's submission to a prize.
type Entry struct {
	Name    string `json:"name"`
	Twitter string `json:"twitter"`
}

// Fields returns the persisted shape of the entry.
func (e Entry) Fields() map[string]any {
	return map[string]any{
		"name":    e.Name,
		"twitter": e.Twitter,
	}
}

// Prize is a giveaway item with a deadline and at most one winner.
type Prize struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	Deadline    time.Time `json:"deadline"`
	Entries     []Entry   `json:"entries"`
	Winner      *Entry    `json:"winner"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasWinner reports whether a winner was committed.
func (p *Prize) HasWinner() bool {
	return p.Winner != nil
}

// CoverImage returns the first image URL or "".
func (p *Prize) CoverImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Clone returns a deep copy.
func (p Prize) Clone() Prize {
	p.Images = slices.Clone(p.Images)
	p.Entries = slices.Clone(p.Entries)
	if p.Winner != nil {
		w := *p.Winner
		p.Winner = &w
	}
	return p
}

// Fields returns the full persisted shape of the prize, without its ID.
func (p *Prize) Fields() map[string]any {
	entries := make([]any, len(p.Entries))
	for i, e := range p.Entries {
		entries[i] = e.Fields()
	}
	var winner any
	if p.Winner != nil {
		winner = p.Winner.Fields()
	}
	return map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"images":      stringsToAny(p.Images),
		"deadline":    FormatTimestamp(p.Deadline),
		"entries":     entries,
		"winner":      winner,
		"createdAt":   FormatTimestamp(p.CreatedAt),
	}
}

// PrizeUpdate carries the admin-editable fields of a prize. Entries and
// winner are never part of an edit.
type PrizeUpdate struct {
	Name        string
	Description string
	Images      []string
	Deadline    time.Time
}

// Fields returns the partial update document.
func (u PrizeUpdate) Fields() map[string]any {
	return map[string]any{
		"name":        u.Name,
		"description": u.Description,
		"images":      stringsToAny(u.Images),
		"deadline":    FormatTimestamp(u.Deadline),
	}
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
