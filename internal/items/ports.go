// Package items defines the generic timestamped item store that runs
// alongside the budget. The budget screen never reads or writes it.
package items

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when deleting or reading an unknown item.
var ErrNotFound = errors.New("item not found")

// Item is a record that only carries the moment it was created.
type Item struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// Ports for item storage adapters.
type (
	Writer interface {
		// Create stores a new item stamped with ts and returns it with its id.
		Create(ctx context.Context, ts time.Time) (Item, error)
		// Delete removes the items with the given ids. Unknown ids fail with
		// ErrNotFound and nothing is deleted. Repeated ids count once.
		Delete(ctx context.Context, ids ...int64) error
	}

	Lister interface {
		// List returns all items ordered by ascending timestamp.
		List(ctx context.Context) ([]Item, error)
	}

	Store interface {
		Writer
		Lister
	}
)

// UniqueIDs drops repeated ids, keeping the first occurrence of each.
func UniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
