package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store. Every change pushes a fresh snapshot to the
// subscribers of the changed collection.
type Memory struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]any
	hub         *Hub
	closed      bool
	now         func() time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithClock overrides the clock used to stamp snapshots.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory returns an empty in-process store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		collections: make(map[string]map[string]map[string]any),
		hub:         NewHub(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create implements Store.
func (m *Memory) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	norm, err := NormalizeFields(fields)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}

	doc := make(map[string]any, len(norm))
	if err := MergeFields(doc, norm); err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.collection(collection)[id] = doc
	m.publishLocked(collection)
	return id, nil
}

// Update implements Store.
func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return m.Transform(ctx, collection, id, func(map[string]any) (map[string]any, error) {
		return fields, nil
	})
}

// Transform implements Store. fn runs under the store lock.
func (m *Memory) Transform(ctx context.Context, collection, id string, fn TransformFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	doc, ok := m.collection(collection)[id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	fields, err := fn(CloneData(doc))
	if err != nil {
		return err
	}
	norm, err := NormalizeFields(fields)
	if err != nil {
		return err
	}

	next := CloneData(doc)
	if err := MergeFields(next, norm); err != nil {
		return err
	}
	m.collection(collection)[id] = next
	m.publishLocked(collection)
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	docs := m.collection(collection)
	if _, ok := docs[id]; !ok {
		return nil
	}
	delete(docs, id)
	m.publishLocked(collection)
	return nil
}

// Subscribe implements Store.
func (m *Memory) Subscribe(ctx context.Context, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) (Subscription, error) {
	if onSnapshot == nil {
		return nil, fmt.Errorf("subscribe %s: nil snapshot callback", q.Collection)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.hub.Add(ctx, q, m.snapshotLocked(q), onSnapshot, onError)
}

// Close implements Store.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.hub.Close()
	return nil
}

func (m *Memory) collection(name string) map[string]map[string]any {
	docs, ok := m.collections[name]
	if !ok {
		docs = make(map[string]map[string]any)
		m.collections[name] = docs
	}
	return docs
}

func (m *Memory) snapshotLocked(q Query) Snapshot {
	src := m.collection(q.Collection)
	docs := make([]Document, 0, len(src))
	for id, data := range src {
		docs = append(docs, Document{ID: id, Data: CloneData(data)})
	}
	SortDocuments(docs, q)
	return Snapshot{Collection: q.Collection, Docs: docs, ReadAt: m.now()}
}

func (m *Memory) publishLocked(collection string) {
	m.hub.Publish(collection, func(q Query) (Snapshot, error) {
		return m.snapshotLocked(q), nil
	})
}

var _ Store = (*Memory)(nil)
