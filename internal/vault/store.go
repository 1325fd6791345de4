package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/lextrack/lextrack/internal/kv"
)

// Store gives each user an isolated view over the shared flat collections.
// Saves are last-writer-wins at the granularity of one user's full record
// set; a per-collection mutex serializes the read-merge-write within this
// process.
type Store struct {
	kv    kv.Store
	locks map[string]*sync.Mutex
}

func New(store kv.Store) *Store {
	return &Store{
		kv: store,
		locks: map[string]*sync.Mutex{
			CollectionCases:         {},
			CollectionChats:         {},
			CollectionNotifications: {},
		},
	}
}

// readAll decodes the full collection. A missing key is an empty collection;
// so is a corrupt blob, which is logged and discarded rather than surfaced
// as a request error.
func readAll[T any](ctx context.Context, s *Store, collection string) ([]T, error) {
	raw, err := s.kv.Get(ctx, collection)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read collection %s: %w", collection, err)
	}
	var all []T
	if err := json.Unmarshal([]byte(raw), &all); err != nil {
		zap.S().Warnw("corrupt collection blob, treating as empty",
			"collection", collection, "error", err)
		return nil, nil
	}
	return all, nil
}

func loadForUser[T any](ctx context.Context, s *Store, collection, userID string, ownerOf func(T) string) ([]T, error) {
	all, err := readAll[T](ctx, s, collection)
	if err != nil {
		return nil, err
	}
	var mine []T
	for _, rec := range all {
		if ownerOf(rec) == userID {
			mine = append(mine, rec)
		}
	}
	return mine, nil
}

func saveForUser[T any](ctx context.Context, s *Store, collection, userID string, records []T, ownerOf func(T) string, stamp func(*T)) error {
	mu := s.locks[collection]
	mu.Lock()
	defer mu.Unlock()

	all, err := readAll[T](ctx, s, collection)
	if err != nil {
		return err
	}
	merged := make([]T, 0, len(all)+len(records))
	for _, rec := range all {
		if ownerOf(rec) != userID {
			merged = append(merged, rec)
		}
	}
	for _, rec := range records {
		stamp(&rec)
		merged = append(merged, rec)
	}
	b, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", collection, err)
	}
	if err := s.kv.Set(ctx, collection, string(b)); err != nil {
		return fmt.Errorf("write collection %s: %w", collection, err)
	}
	return nil
}

func (s *Store) LoadCases(ctx context.Context, userID string) ([]Case, error) {
	return loadForUser(ctx, s, CollectionCases, userID, func(c Case) string { return c.UserID })
}

func (s *Store) SaveCases(ctx context.Context, userID string, cases []Case) error {
	return saveForUser(ctx, s, CollectionCases, userID, cases,
		func(c Case) string { return c.UserID },
		func(c *Case) { c.UserID = userID })
}

func (s *Store) LoadChats(ctx context.Context, userID string) ([]ChatSession, error) {
	return loadForUser(ctx, s, CollectionChats, userID, func(c ChatSession) string { return c.UserID })
}

func (s *Store) SaveChats(ctx context.Context, userID string, chats []ChatSession) error {
	return saveForUser(ctx, s, CollectionChats, userID, chats,
		func(c ChatSession) string { return c.UserID },
		func(c *ChatSession) { c.UserID = userID })
}

func (s *Store) LoadNotifications(ctx context.Context, userID string) ([]Notification, error) {
	return loadForUser(ctx, s, CollectionNotifications, userID, func(n Notification) string { return n.UserID })
}

func (s *Store) SaveNotifications(ctx context.Context, userID string, notifs []Notification) error {
	return saveForUser(ctx, s, CollectionNotifications, userID, notifs,
		func(n Notification) string { return n.UserID },
		func(n *Notification) { n.UserID = userID })
}

// PurgeAll drops every record of every user in all three collections.
func (s *Store) PurgeAll(ctx context.Context) error {
	return s.kv.Delete(ctx, CollectionCases, CollectionChats, CollectionNotifications)
}
