package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"nickel/internal/items"
)

// Store keeps items in process memory. It is the default backend and the
// one used by tests.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]items.Item
}

func New() *Store {
	return &Store{items: make(map[int64]items.Item)}
}

// NewWithItems seeds the store, as the preview data of a UI would.
func NewWithItems(timestamps ...time.Time) *Store {
	s := New()
	for _, ts := range timestamps {
		_, _ = s.Create(context.Background(), ts)
	}
	return s
}

// Create stores a new item and returns it with a synthetic id.
func (s *Store) Create(_ context.Context, ts time.Time) (items.Item, error) {
	if ts.IsZero() {
		return items.Item{}, fmt.Errorf("create item: zero timestamp")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	it := items.Item{ID: s.nextID, Timestamp: ts}
	s.items[it.ID] = it
	return it, nil
}

// Delete removes all ids or none of them.
func (s *Store) Delete(_ context.Context, ids ...int64) error {
	ids = items.UniqueIDs(ids)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.items[id]; !ok {
			return fmt.Errorf("delete item %d: %w", id, items.ErrNotFound)
		}
	}
	for _, id := range ids {
		delete(s.items, id)
	}
	return nil
}

// List returns items by ascending timestamp, ties broken by id.
func (s *Store) List(_ context.Context) ([]items.Item, error) {
	s.mu.Lock()
	out := make([]items.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}
