// Package firestore backs store.Store with Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/okian/prizewheel/internal/adapters/store"
)

// Config selects the Firebase project and credentials. With no credentials
// file the application default credentials are used.
type Config struct {
	ProjectID       string
	CredentialsFile string
}

// Store implements store.Store on a Firestore client.
type Store struct {
	client *firestore.Client

	mu     sync.Mutex
	subs   map[*subscription]struct{}
	closed bool
}

// Open initializes a Firebase app and its Firestore client.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect firestore: %w", err)
	}
	return New(client), nil
}

// New wraps an existing client. The store owns it from then on.
func New(client *firestore.Client) *Store {
	return &Store{client: client, subs: make(map[*subscription]struct{})}
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if s.isClosed() {
		return "", store.ErrClosed
	}
	data := make(map[string]any, len(fields))
	for k, v := range fields {
		data[k] = toValue(v)
	}
	ref, _, err := s.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", collection, mapError(err))
	}
	return ref.ID, nil
}

// Update implements store.Store. Union values become server-side
// arrayUnion transforms, so concurrent entries never overwrite each other.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if s.isClosed() {
		return store.ErrClosed
	}
	if len(fields) == 0 {
		return nil
	}
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, toUpdates(fields))
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, mapError(err))
	}
	return nil
}

// Transform implements store.Store with a Firestore transaction; fn may run
// more than once when the transaction retries.
func (s *Store) Transform(ctx context.Context, collection, id string, fn store.TransformFunc) error {
	if s.isClosed() {
		return store.ErrClosed
	}
	ref := s.client.Collection(collection).Doc(id)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		current, err := normalizeData(snap.Data())
		if err != nil {
			return err
		}
		fields, err := fn(current)
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		return tx.Update(ref, toUpdates(fields))
	})
	if err != nil {
		return fmt.Errorf("transform %s/%s: %w", collection, id, mapError(err))
	}
	return nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if s.isClosed() {
		return store.ErrClosed
	}
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, mapError(err))
	}
	return nil
}

// Subscribe implements store.Store using a real-time query listener.
func (s *Store) Subscribe(ctx context.Context, q store.Query, onSnapshot store.SnapshotFunc, onError store.ErrorFunc) (store.Subscription, error) {
	if onSnapshot == nil {
		return nil, fmt.Errorf("subscribe %s: nil snapshot callback", q.Collection)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, store.ErrClosed
	}
	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	query := s.client.Collection(q.Collection).Query
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Descending {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}

	go func() {
		defer close(sub.done)
		defer s.forget(sub)

		it := query.Snapshots(subCtx)
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err == nil {
				var snap store.Snapshot
				snap, err = toSnapshot(q.Collection, qs)
				if err == nil {
					onSnapshot(snap)
					continue
				}
			}
			if subCtx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
				return
			}
			if onError != nil {
				onError(fmt.Errorf("listen %s: %w", q.Collection, mapError(err)))
			}
			return
		}
	}()
	return sub, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	subs := make([]*subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
		<-sub.Done()
	}
	return s.client.Close()
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Store) forget(sub *subscription) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *subscription) Cancel()               { s.cancel() }
func (s *subscription) Done() <-chan struct{} { return s.done }

func toSnapshot(collection string, qs *firestore.QuerySnapshot) (store.Snapshot, error) {
	refs, err := qs.Documents.GetAll()
	if err != nil {
		return store.Snapshot{}, err
	}
	docs := make([]store.Document, 0, len(refs))
	for _, d := range refs {
		data, err := normalizeData(d.Data())
		if err != nil {
			return store.Snapshot{}, fmt.Errorf("document %s: %w", d.Ref.ID, err)
		}
		docs = append(docs, store.Document{ID: d.Ref.ID, Data: data})
	}
	return store.Snapshot{Collection: collection, Docs: docs, ReadAt: qs.ReadTime}, nil
}

// normalizeData maps Firestore values (time.Time, int64, nested maps) onto
// the JSON data model shared by every backend.
func normalizeData(data map[string]any) (map[string]any, error) {
	n, err := store.Normalize(data)
	if err != nil {
		return nil, err
	}
	out, _ := n.(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func toUpdates(fields map[string]any) []firestore.Update {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: toValue(v)})
	}
	return updates
}

func toValue(v any) any {
	if u, ok := v.(store.Union); ok {
		return firestore.ArrayUnion(u.Elems...)
	}
	return v
}

func mapError(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	case codes.FailedPrecondition, codes.Aborted:
		return fmt.Errorf("%w: %v", store.ErrPrecondition, err)
	default:
		return err
	}
}

var _ store.Store = (*Store)(nil)
