package admin

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/okian/prizewheel/internal/domain/draw"
	"github.com/okian/prizewheel/internal/domain/model"
)

// Status texts shown in the prize list.
const (
	StatusTextOpen    = "Open"
	StatusTextExpired = "Expired (awaiting draw)"
	StatusTextDecided = "Winner drawn"
	noDescriptionText = "No description"
	previewEllipsis   = "..."
)

// PrizeRow is one line of the admin prize list.
type PrizeRow struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Preview          string      `json:"preview"`
	CoverImage       string      `json:"cover_image,omitempty"`
	Status           draw.Status `json:"status"`
	StatusText       string      `json:"status_text"`
	EntryCount       int         `json:"entry_count"`
	Deadline         string      `json:"deadline"`
	DeadlineRelative string      `json:"deadline_relative"`
	Editing          bool        `json:"editing"`
}

// LabelRow is one line of the admin label list.
type LabelRow struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Editing bool   `json:"editing"`
}

// DrawCard is one prize on the draw board.
type DrawCard struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	CoverImage   string       `json:"cover_image,omitempty"`
	EntryCount   int          `json:"entry_count"`
	Winner       *model.Entry `json:"winner,omitempty"`
	WinnerHandle string       `json:"winner_handle,omitempty"`
}

// DrawBoard is the draw tab: prizes waiting for a draw and decided ones.
type DrawBoard struct {
	Tab     DrawTab    `json:"tab"`
	Ready   []DrawCard `json:"ready"`
	History []DrawCard `json:"history"`
}

// Participant is one numbered entry.
type Participant struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Handle string `json:"handle"`
}

// ParticipantList is the participants dialog for one prize.
type ParticipantList struct {
	PrizeID   string        `json:"prize_id"`
	PrizeName string        `json:"prize_name"`
	Count     int           `json:"count"`
	Entries   []Participant `json:"entries"`
}

// StatusText returns the list label for s.
func StatusText(s draw.Status) string {
	switch s {
	case draw.Decided:
		return StatusTextDecided
	case draw.Ready:
		return StatusTextExpired
	default:
		return StatusTextOpen
	}
}

// Preview truncates description to n characters followed by "...".
func Preview(description string, n int) string {
	if description == "" {
		return noDescriptionText
	}
	runes := []rune(description)
	if len(runes) <= n {
		return description
	}
	return string(runes[:n]) + previewEllipsis
}

// Handle renders a twitter handle as "@name".
func Handle(twitter string) string {
	return "@" + twitter
}

// PrizeRows builds the prize list at now, newest prize first.
func (c *Controller) PrizeRows(now time.Time) []PrizeRow {
	editing := c.State().EditingPrize
	prizes := c.reader.Prizes()
	rows := make([]PrizeRow, 0, len(prizes))
	for i := range prizes {
		p := &prizes[i]
		status := draw.Classify(p, now)
		rows = append(rows, PrizeRow{
			ID:               p.ID,
			Name:             p.Name,
			Preview:          Preview(p.Description, c.previewLen),
			CoverImage:       p.CoverImage(),
			Status:           status,
			StatusText:       StatusText(status),
			EntryCount:       len(p.Entries),
			Deadline:         c.dates.Format(p.Deadline),
			DeadlineRelative: humanize.RelTime(p.Deadline, now, "ago", "from now"),
			Editing:          p.ID == editing,
		})
	}
	return rows
}

// LabelRows builds the label list, newest first.
func (c *Controller) LabelRows() []LabelRow {
	editing := c.State().EditingLabel
	labels := c.reader.Labels()
	rows := make([]LabelRow, 0, len(labels))
	for _, l := range labels {
		rows = append(rows, LabelRow{ID: l.ID, Text: l.Text, Editing: l.ID == editing})
	}
	return rows
}

// DrawBoard builds the draw tab at now.
func (c *Controller) DrawBoard(now time.Time) DrawBoard {
	groups := draw.Partition(c.reader.Prizes(), now)
	board := DrawBoard{
		Tab:     c.State().DrawTab,
		Ready:   make([]DrawCard, 0, len(groups.Ready)),
		History: make([]DrawCard, 0, len(groups.Decided)),
	}
	for i := range groups.Ready {
		board.Ready = append(board.Ready, card(&groups.Ready[i]))
	}
	for i := range groups.Decided {
		board.History = append(board.History, card(&groups.Decided[i]))
	}
	return board
}

// Participants lists the entries of prize id, numbered from 1.
func (c *Controller) Participants(id string) (ParticipantList, bool) {
	p, ok := c.reader.Prize(id)
	if !ok {
		return ParticipantList{}, false
	}
	list := ParticipantList{
		PrizeID:   p.ID,
		PrizeName: p.Name,
		Count:     len(p.Entries),
		Entries:   make([]Participant, 0, len(p.Entries)),
	}
	for i, e := range p.Entries {
		list.Entries = append(list.Entries, Participant{Number: i + 1, Name: e.Name, Handle: Handle(e.Twitter)})
	}
	return list, true
}

func card(p *model.Prize) DrawCard {
	dc := DrawCard{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CoverImage:  p.CoverImage(),
		EntryCount:  len(p.Entries),
		Winner:      p.Winner,
	}
	if p.Winner != nil {
		dc.WinnerHandle = Handle(p.Winner.Twitter)
	}
	return dc
}
