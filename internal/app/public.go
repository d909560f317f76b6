package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/prizewheel/internal/admin"
	"github.com/okian/prizewheel/internal/domain/draw"
	"github.com/okian/prizewheel/internal/domain/gallery"
	"github.com/okian/prizewheel/internal/domain/model"
	"github.com/okian/prizewheel/internal/domain/notify"
)

// PrizeCard is a prize as the public page shows it.
type PrizeCard struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Images       []string     `json:"images"`
	ImageIndex   int          `json:"image_index"`
	Image        string       `json:"image,omitempty"`
	Deadline     time.Time    `json:"deadline"`
	DeadlineText string       `json:"deadline_text"`
	Status       draw.Status  `json:"status"`
	EntryCount   int          `json:"entry_count"`
	Winner       *model.Entry `json:"winner,omitempty"`
}

// Prizes lists every prize, newest first.
func (s *Service) Prizes() []PrizeCard {
	now := s.now()
	prizes := s.cache.Prizes()
	cards := make([]PrizeCard, 0, len(prizes))
	for i := range prizes {
		cards = append(cards, s.card(&prizes[i], now))
	}
	return cards
}

// Prize returns prize id.
func (s *Service) Prize(id string) (PrizeCard, error) {
	p, ok := s.cache.Prize(id)
	if !ok {
		return PrizeCard{}, fmt.Errorf("%s: %w", id, ErrPrizeNotFound)
	}
	return s.card(&p, s.now()), nil
}

// AddEntry enters e into prize id. Only open prizes take entries, and a
// leading "@" on the handle is dropped.
func (s *Service) AddEntry(ctx context.Context, id string, e model.Entry) error {
	e.Name = strings.TrimSpace(e.Name)
	e.Twitter = strings.TrimPrefix(strings.TrimSpace(e.Twitter), "@")
	if e.Name == "" {
		return ErrInvalidEntry
	}

	p, ok := s.cache.Prize(id)
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrPrizeNotFound)
	}
	if draw.Classify(&p, s.now()) != draw.Open {
		return fmt.Errorf("%s: %w", id, ErrEntriesClosed)
	}
	if !s.client.AddEntry(ctx, id, e) {
		return fmt.Errorf("add entry to %s: %w", id, ErrStoreFailed)
	}
	return nil
}

// StepImage moves the gallery of prize id by dir, wrapping around.
func (s *Service) StepImage(id string, dir int) (PrizeCard, error) {
	p, ok := s.cache.Prize(id)
	if !ok {
		return PrizeCard{}, fmt.Errorf("%s: %w", id, ErrPrizeNotFound)
	}
	s.gallery.Step(id, len(p.Images), dir)
	return s.card(&p, s.now()), nil
}

// SelectImage shows image idx of prize id.
func (s *Service) SelectImage(id string, idx int) (PrizeCard, error) {
	p, ok := s.cache.Prize(id)
	if !ok {
		return PrizeCard{}, fmt.Errorf("%s: %w", id, ErrPrizeNotFound)
	}
	if _, err := s.gallery.Select(id, len(p.Images), idx); err != nil {
		return PrizeCard{}, err
	}
	return s.card(&p, s.now()), nil
}

// OpenViewer shows the current image of prize id full size.
func (s *Service) OpenViewer(id string) (gallery.ViewerState, error) {
	card, err := s.Prize(id)
	if err != nil {
		return gallery.ViewerState{}, err
	}
	if err := s.viewer.Open(card.Image); err != nil {
		return gallery.ViewerState{}, fmt.Errorf("%s: %w", id, err)
	}
	return s.viewer.State(), nil
}

// CloseViewer hides the full-size image.
func (s *Service) CloseViewer() gallery.ViewerState {
	s.viewer.Close()
	return s.viewer.State()
}

// Viewer returns what the full-size viewer shows.
func (s *Service) Viewer() gallery.ViewerState {
	return s.viewer.State()
}

// Labels lists the promotional labels, newest first.
func (s *Service) Labels() []admin.LabelRow {
	return s.console.LabelRows()
}

// Notifications returns the notifications still on display.
func (s *Service) Notifications() []notify.Notification {
	return s.notes.Active(s.now())
}

// Draw picks and saves a winner for prize id. The draw runs to completion
// even if ctx is canceled once it started.
func (s *Service) Draw(ctx context.Context, id string) (draw.Result, error) {
	return s.engine.Draw(context.WithoutCancel(ctx), id)
}

func (s *Service) card(p *model.Prize, now time.Time) PrizeCard {
	idx := s.gallery.Current(p.ID, len(p.Images))
	c := PrizeCard{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Images:       p.Images,
		ImageIndex:   idx,
		Deadline:     p.Deadline,
		DeadlineText: s.dates.Format(p.Deadline),
		Status:       draw.Classify(p, now),
		EntryCount:   len(p.Entries),
		Winner:       p.Winner,
	}
	if idx < len(p.Images) {
		c.Image = p.Images[idx]
	}
	return c
}
