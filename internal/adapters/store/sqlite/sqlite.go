// Package sqlite is a durable single-node document store on SQLite. Each
// document is a JSON object in one table; subscriptions are served in
// process after every committed write.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/prizewheel/internal/adapters/store"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL,
	PRIMARY KEY (collection, id)
)`

// Store implements store.Store on a SQLite database file.
type Store struct {
	db  *sql.DB
	hub *store.Hub
	now func() time.Time

	// mu serializes writers; SQLite allows a single writer anyway and the
	// lock keeps read-modify-write cycles from retrying on SQLITE_BUSY.
	mu     sync.Mutex
	closed bool
}

// Open opens (creating when needed) the database at path. ":memory:" gives
// a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A second connection to ":memory:" would see a different database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, hub: store.NewHub(), now: time.Now}, nil
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	norm, err := store.NormalizeFields(fields)
	if err != nil {
		return "", err
	}
	doc := make(map[string]any, len(norm))
	if err := store.MergeFields(doc, norm); err != nil {
		return "", err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	id := uuid.NewString()
	err = s.write(ctx, collection, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)`,
			collection, id, string(raw))
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create %s: %w", collection, err)
	}
	return id, nil
}

// Update implements store.Store.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.Transform(ctx, collection, id, func(map[string]any) (map[string]any, error) {
		return fields, nil
	})
}

// Transform implements store.Store. fn runs inside the write transaction.
func (s *Store) Transform(ctx context.Context, collection, id string, fn store.TransformFunc) error {
	return s.write(ctx, collection, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx,
			`SELECT data FROM documents WHERE collection = ? AND id = ?`,
			collection, id).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("read %s/%s: %w", collection, id, err)
		}

		doc := map[string]any{}
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		fields, err := fn(store.CloneData(doc))
		if err != nil {
			return err
		}
		norm, err := store.NormalizeFields(fields)
		if err != nil {
			return err
		}
		if err := store.MergeFields(doc, norm); err != nil {
			return err
		}

		out, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", collection, id, err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE documents SET data = ? WHERE collection = ? AND id = ?`,
			string(out), collection, id)
		return err
	})
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.write(ctx, collection, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
		return err
	})
}

// Subscribe implements store.Store.
func (s *Store) Subscribe(ctx context.Context, q store.Query, onSnapshot store.SnapshotFunc, onError store.ErrorFunc) (store.Subscription, error) {
	if onSnapshot == nil {
		return nil, fmt.Errorf("subscribe %s: nil snapshot callback", q.Collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	initial, err := s.load(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.hub.Add(ctx, q, initial, onSnapshot, onError)
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.hub.Close()
	return s.db.Close()
}

// write runs fn in a transaction and, once committed, refreshes the
// subscribers of collection.
func (s *Store) write(ctx context.Context, collection string, fn func(*sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.hub.Publish(collection, func(q store.Query) (store.Snapshot, error) {
		return s.load(context.Background(), q)
	})
	return nil
}

func (s *Store) load(ctx context.Context, q store.Query) (store.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = ?`, q.Collection)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("query %s: %w", q.Collection, err)
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return store.Snapshot{}, fmt.Errorf("scan %s: %w", q.Collection, err)
		}
		data := map[string]any{}
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return store.Snapshot{}, fmt.Errorf("decode %s/%s: %w", q.Collection, id, err)
		}
		docs = append(docs, store.Document{ID: id, Data: data})
	}
	if err := rows.Err(); err != nil {
		return store.Snapshot{}, fmt.Errorf("iterate %s: %w", q.Collection, err)
	}

	store.SortDocuments(docs, q)
	return store.Snapshot{Collection: q.Collection, Docs: docs, ReadAt: s.now()}, nil
}

var _ store.Store = (*Store)(nil)
