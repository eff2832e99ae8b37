package items_test

import (
	"context"
	"testing"
	"time"

	"nickel/internal/items"
	"nickel/internal/items/memory"
)

type countingStore struct {
	items.Store
	lists int
}

func (c *countingStore) List(ctx context.Context) ([]items.Item, error) {
	c.lists++
	return c.Store.List(ctx)
}

func TestCachedStoreInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{Store: memory.New()}
	s := items.NewCachedStore(backend, time.Hour, nil, nil)

	it, _ := s.Create(ctx, time.Now())
	for i := 0; i < 3; i++ {
		got, err := s.List(ctx)
		if err != nil || len(got) != 1 {
			t.Fatalf("list: %v %v", got, err)
		}
	}
	if backend.lists != 1 {
		t.Fatalf("expected a single backend list, got %d", backend.lists)
	}

	if _, err := s.Create(ctx, time.Now()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got, _ := s.List(ctx); len(got) != 2 {
		t.Fatalf("stale list after create: %v", got)
	}
	if err := s.Delete(ctx, it.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := s.List(ctx); len(got) != 1 {
		t.Fatalf("stale list after delete: %v", got)
	}
	if backend.lists != 3 {
		t.Fatalf("expected 3 backend lists, got %d", backend.lists)
	}
}

func TestCachedStoreDisabled(t *testing.T) {
	backend := memory.New()
	if s := items.NewCachedStore(backend, 0, nil, nil); s != items.Store(backend) {
		t.Fatalf("zero ttl should return the backend itself")
	}
}

func TestUniqueIDs(t *testing.T) {
	got := items.UniqueIDs([]int64{3, 1, 3, 2, 1})
	want := []int64{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("UniqueIDs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("UniqueIDs = %v, want %v", got, want)
		}
	}
	if got := items.UniqueIDs(nil); len(got) != 0 {
		t.Fatalf("UniqueIDs(nil) = %v", got)
	}
}
