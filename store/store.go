// Package store implements the remote document store the sync engine talks to:
// point reads and writes, ordered collection queries and live subscriptions
// that deliver an initial snapshot followed by incremental changes.
package store

import (
	"chatit/contract"
	"chatit/domain"
	"chatit/errors"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Ensure *DocumentStore implements the contract.IStore interface at compile time.
var _ contract.IStore = (*DocumentStore)(nil)

// backend is the raw persistence used by DocumentStore.
// Values handed to put are already normalized.
type backend interface {
	get(path string) (map[string]any, bool, error)
	put(path string, fields map[string]any) error
	remove(path string) error
	scan(collection string) ([]domain.Document, error)
}

// DocumentStore serializes writes so that every commit is published to live
// subscriptions in commit order, and a new subscription sees its initial
// snapshot strictly before any change committed after it.
// No multi-document transaction is offered: Update merges fields of one document.
type DocumentStore struct {
	log     *slog.Logger
	backend backend
	writeMu sync.Mutex
	feed    *feed
}

func newDocumentStore(log *slog.Logger, b backend) *DocumentStore {
	return &DocumentStore{log: log, backend: b, feed: newFeed(log)}
}

func (s *DocumentStore) Get(ctx context.Context, path string) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}
	_, id, ok := domain.SplitPath(path)
	if !ok {
		return domain.Document{}, fmt.Errorf("%w: %q", errors.ErrInvalidPath, path)
	}
	fields, found, err := s.backend.get(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	if !found {
		return domain.Document{}, fmt.Errorf("%w: %s", errors.ErrNotFound, path)
	}
	return domain.Document{Path: path, ID: id, Fields: fields}, nil
}

// Set replaces the whole document, creating it when absent.
func (s *DocumentStore) Set(ctx context.Context, path string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, id, ok := domain.SplitPath(path)
	if !ok {
		return fmt.Errorf("%w: %q", errors.ErrInvalidPath, path)
	}
	normalized, err := normalize(fields)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, existed, err := s.backend.get(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err = s.backend.put(path, normalized); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	kind := domain.ChangeAdded
	if existed {
		kind = domain.ChangeModified
	}
	s.feed.publish(domain.Change{Kind: kind, Doc: domain.Document{Path: path, ID: id, Fields: normalized}})
	return nil
}

// Add creates a document with a generated, time sortable id.
func (s *DocumentStore) Add(ctx context.Context, collection string, fields map[string]any) (domain.Document, error) {
	id := ulid.Make().String()
	path := collection + "/" + id
	if err := s.Set(ctx, path, fields); err != nil {
		return domain.Document{}, err
	}
	return s.Get(ctx, path)
}

// Update merges top level fields into an existing document.
func (s *DocumentStore) Update(ctx context.Context, path string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, id, ok := domain.SplitPath(path)
	if !ok {
		return fmt.Errorf("%w: %q", errors.ErrInvalidPath, path)
	}
	patch, err := normalize(fields)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	current, found, err := s.backend.get(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if !found {
		return fmt.Errorf("%w: %s", errors.ErrNotFound, path)
	}
	maps.Copy(current, patch)
	if err = s.backend.put(path, current); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	s.feed.publish(domain.Change{Kind: domain.ChangeModified, Doc: domain.Document{Path: path, ID: id, Fields: current}})
	return nil
}

// Delete removes a document. Deleting an absent document is not an error.
func (s *DocumentStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, id, ok := domain.SplitPath(path)
	if !ok {
		return fmt.Errorf("%w: %q", errors.ErrInvalidPath, path)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	old, found, err := s.backend.get(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if !found {
		return nil
	}
	if err = s.backend.remove(path); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	s.feed.publish(domain.Change{Kind: domain.ChangeRemoved, Doc: domain.Document{Path: path, ID: id, Fields: old}})
	return nil
}

func (s *DocumentStore) Query(ctx context.Context, query domain.Query) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query, err := prepare(query)
	if err != nil {
		return nil, err
	}
	return s.query(query)
}

func (s *DocumentStore) query(query domain.Query) ([]domain.Document, error) {
	docs, err := s.backend.scan(query.Collection)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", query.Collection, err)
	}
	return apply(query, docs), nil
}

// Listen attaches a live query. The returned handle must be removed by the caller.
func (s *DocumentStore) Listen(ctx context.Context, query domain.Query, listener contract.Listener) (contract.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query, err := prepare(query)
	if err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	docs, err := s.query(query)
	if err != nil {
		return nil, err
	}
	initial := domain.Snapshot{Changes: make([]domain.Change, 0, len(docs))}
	for _, doc := range docs {
		initial.Changes = append(initial.Changes, domain.Change{Kind: domain.ChangeAdded, Doc: doc})
	}
	sub := s.feed.subscribe(query, listener, initial)
	s.log.Debug("Live query attached", "collection", query.Collection, "documents", len(docs))
	return sub, nil
}

// ActiveSubscriptions reports how many live queries are still attached.
func (s *DocumentStore) ActiveSubscriptions() int {
	return s.feed.size()
}

// Close detaches every live query. The underlying database is owned by the caller.
func (s *DocumentStore) Close() error {
	s.feed.closeAll()
	return nil
}
