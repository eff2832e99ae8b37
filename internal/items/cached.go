package items

import (
	"context"
	"log/slog"
	"time"

	"nickel/internal/cache"
)

const listKey = "items:all"

// CachedStore serves List from a TTL cache and invalidates it on writes.
type CachedStore struct {
	next   Store
	cache  *cache.LRUCache[[]Item]
	logger *slog.Logger
}

// NewCachedStore wraps next. A ttl of zero or less disables caching and
// returns next unchanged.
func NewCachedStore(next Store, ttl time.Duration, manager *cache.Manager, logger *slog.Logger) Store {
	if ttl <= 0 {
		return next
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := cache.NewLRUCache[[]Item](1, ttl)
	if manager != nil {
		manager.Register(c)
	}
	return &CachedStore{next: next, cache: c, logger: logger.With("component", "cache")}
}

func (s *CachedStore) Create(ctx context.Context, ts time.Time) (Item, error) {
	it, err := s.next.Create(ctx, ts)
	if err == nil {
		s.cache.Delete(listKey)
	}
	return it, err
}

func (s *CachedStore) Delete(ctx context.Context, ids ...int64) error {
	// a failed delete may still have touched the backend
	defer s.cache.Delete(listKey)
	return s.next.Delete(ctx, ids...)
}

func (s *CachedStore) List(ctx context.Context) ([]Item, error) {
	if cached, ok := s.cache.Get(listKey); ok {
		return append([]Item(nil), cached...), nil
	}
	list, err := s.next.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(listKey, append([]Item(nil), list...))
	s.logger.Debug("Item list cached", "count", len(list))
	return list, nil
}
