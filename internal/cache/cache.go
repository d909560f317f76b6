// Package cache holds the latest snapshot of every collection. The snapshot
// worker is its only writer; readers get copies.
package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/prizewheel/internal/domain/model"
)

// Change describes one wholesale replacement of a collection.
type Change struct {
	Collection model.Collection `json:"collection"`
	Version    uint64           `json:"version"`
}

// Listener receives changes after they are visible to readers.
type Listener func(Change)

// Reader is the read-only view handed to consumers.
type Reader interface {
	Prizes() []model.Prize
	Prize(id string) (model.Prize, bool)
	Labels() []model.Label
	Label(id string) (model.Label, bool)
	Version(c model.Collection) uint64
	Subscribe(fn Listener) (dispose func())
}

// Cache implements Reader and the worker's Applier.
type Cache struct {
	mu       sync.RWMutex
	prizes   []model.Prize
	labels   []model.Label
	versions map[model.Collection]uint64

	lmu       sync.Mutex
	listeners map[uint64]Listener
	nextID    uint64
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		versions:  make(map[model.Collection]uint64),
		listeners: make(map[uint64]Listener),
	}
}

// ReplacePrizes installs prizes as the full prize list, newest first.
func (c *Cache) ReplacePrizes(prizes []model.Prize) {
	list := make([]model.Prize, len(prizes))
	for i := range prizes {
		list[i] = prizes[i].Clone()
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	c.mu.Lock()
	c.prizes = list
	c.versions[model.Prizes]++
	v := c.versions[model.Prizes]
	c.mu.Unlock()

	c.publish(Change{Collection: model.Prizes, Version: v})
}

// ReplaceLabels installs labels as the full label list, newest first.
func (c *Cache) ReplaceLabels(labels []model.Label) {
	list := make([]model.Label, len(labels))
	copy(list, labels)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	c.mu.Lock()
	c.labels = list
	c.versions[model.Labels]++
	v := c.versions[model.Labels]
	c.mu.Unlock()

	c.publish(Change{Collection: model.Labels, Version: v})
}

// Apply installs a decoded snapshot.
func (c *Cache) Apply(_ context.Context, s model.Snapshot) error { //nolint:gocritic // hugeParam: matches the worker contract
	switch s.Collection {
	case model.Prizes:
		c.ReplacePrizes(s.Prizes)
	case model.Labels:
		c.ReplaceLabels(s.Labels)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCollection, s.Collection)
	}
	return nil
}

// Prizes returns a copy of the prize list, newest first.
func (c *Cache) Prizes() []model.Prize {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Prize, len(c.prizes))
	for i := range c.prizes {
		out[i] = c.prizes[i].Clone()
	}
	return out
}

// Prize returns a copy of the prize with id.
func (c *Cache) Prize(id string) (model.Prize, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.prizes {
		if c.prizes[i].ID == id {
			return c.prizes[i].Clone(), true
		}
	}
	return model.Prize{}, false
}

// Labels returns a copy of the label list, newest first.
func (c *Cache) Labels() []model.Label {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Label, len(c.labels))
	copy(out, c.labels)
	return out
}

// Label returns the label with id.
func (c *Cache) Label(id string) (model.Label, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, l := range c.labels {
		if l.ID == id {
			return l, true
		}
	}
	return model.Label{}, false
}

// Version returns how many times collection was replaced.
func (c *Cache) Version(collection model.Collection) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.versions[collection]
}

// Subscribe registers fn for every later change. Calling dispose more than
// once is harmless.
func (c *Cache) Subscribe(fn Listener) (dispose func()) {
	c.lmu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners[id] = fn
	c.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.lmu.Lock()
			delete(c.listeners, id)
			c.lmu.Unlock()
		})
	}
}

func (c *Cache) publish(ch Change) {
	c.lmu.Lock()
	fns := make([]Listener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.lmu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}

var _ Reader = (*Cache)(nil)
