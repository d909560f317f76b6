// Package gallery tracks which image of each prize is on display and the
// full-size image viewer.
package gallery

import (
	"fmt"
	"sync"
)

// Gallery keeps a display cursor per prize. Cursors start at 0.
type Gallery struct {
	mu      sync.Mutex
	cursors map[string]int
}

// New returns a gallery with every cursor at 0.
func New() *Gallery {
	return &Gallery{cursors: make(map[string]int)}
}

// Step moves the cursor of prize id by dir over n images, wrapping at both
// ends. With one image or none it does nothing and reports false.
func (g *Gallery) Step(id string, n, dir int) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cur := g.currentLocked(id, n)
	if n <= 1 {
		return cur, false
	}
	next := ((cur+dir)%n + n) % n
	g.cursors[id] = next
	return next, true
}

// Select puts the cursor of prize id on idx.
func (g *Gallery) Select(id string, n, idx int) (int, error) {
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, idx, n)
	}
	g.mu.Lock()
	g.cursors[id] = idx
	g.mu.Unlock()
	return idx, nil
}

// Current returns the cursor of prize id for a list of n images. A cursor
// left past the end by a shorter image list reads as 0.
func (g *Gallery) Current(id string, n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentLocked(id, n)
}

// Forget drops the cursor of a deleted prize.
func (g *Gallery) Forget(id string) {
	g.mu.Lock()
	delete(g.cursors, id)
	g.mu.Unlock()
}

// Retain drops the cursors of every prize not in live.
func (g *Gallery) Retain(live map[string]struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id := range g.cursors {
		if _, ok := live[id]; !ok {
			delete(g.cursors, id)
		}
	}
}

func (g *Gallery) currentLocked(id string, n int) int {
	cur := g.cursors[id]
	if cur >= n {
		return 0
	}
	return cur
}

// ViewerState is what the full-size viewer shows.
type ViewerState struct {
	Open     bool   `json:"open"`
	ImageURL string `json:"image_url,omitempty"`
}

// Viewer is the full-size image overlay.
type Viewer struct {
	mu    sync.Mutex
	state ViewerState
}

// Open shows url full size.
func (v *Viewer) Open(url string) error {
	if url == "" {
		return ErrNoImage
	}
	v.mu.Lock()
	v.state = ViewerState{Open: true, ImageURL: url}
	v.mu.Unlock()
	return nil
}

// Close hides the viewer.
func (v *Viewer) Close() {
	v.mu.Lock()
	v.state = ViewerState{}
	v.mu.Unlock()
}

// State returns what the viewer currently shows.
func (v *Viewer) State() ViewerState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}
