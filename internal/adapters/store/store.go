// Package store defines the document store contract and its in-process
// implementation. Other backends live in sub-packages.
package store

import (
	"context"
	"time"
)

// Document is one record in a collection.
type Document struct {
	ID   string
	Data map[string]any
}

// Snapshot is a complete, ordered copy of a collection at a point in time.
type Snapshot struct {
	Collection string
	Docs       []Document
	ReadAt     time.Time
}

// Query selects a collection and its delivery order.
type Query struct {
	Collection string
	OrderBy    string
	Descending bool
}

// SnapshotFunc receives every snapshot of a subscription, one at a time.
type SnapshotFunc func(Snapshot)

// ErrorFunc receives the error that ended a subscription.
type ErrorFunc func(error)

// TransformFunc inspects the current fields of a document and returns the
// fields to write. Returning an error aborts the write.
type TransformFunc func(current map[string]any) (map[string]any, error)

// Subscription is a live query. Cancel is idempotent; Done is closed once
// no further callbacks will run.
type Subscription interface {
	Cancel()
	Done() <-chan struct{}
}

// Store is a document database with real-time subscriptions.
type Store interface {
	// Create adds a document with a store-assigned ID.
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)

	// Update merges fields into an existing document. Values built with
	// ArrayUnion are merged into the existing array instead of replacing it.
	// Returns ErrNotFound for unknown documents.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Transform runs fn against the current document and applies its result
	// atomically with respect to other writers of that document.
	Transform(ctx context.Context, collection, id string, fn TransformFunc) error

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// Subscribe delivers a full snapshot now and after every change until ctx
	// is canceled, Cancel is called, or the subscription fails. A failure is
	// reported once through onError and ends the subscription.
	Subscribe(ctx context.Context, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) (Subscription, error)

	// Close releases the backend and ends every subscription.
	Close() error
}

// Union is the field value produced by ArrayUnion.
type Union struct {
	Elems []any
}

// ArrayUnion returns a value that, given to Update or returned from a
// TransformFunc, adds elems to an array field. Elements already present
// (by value) are not added twice, and concurrent unions never overwrite
// each other.
func ArrayUnion(elems ...any) Union {
	return Union{Elems: elems}
}
