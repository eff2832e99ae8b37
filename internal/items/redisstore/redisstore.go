// Package redisstore keeps items in a Redis hash so that several nickel
// processes can share them.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"nickel/internal/items"
)

const maxTxRetries = 5

// Store maps item ids to RFC 3339 timestamps in <prefix>:items and draws
// ids from <prefix>:items:seq.
type Store struct {
	client redis.UniversalClient
	key    string
	seqKey string
}

// Open connects to url (redis://[:password@]host:port/db) and pings it.
func Open(ctx context.Context, url, prefix string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	s := New(redis.NewClient(opts), prefix)
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return s, nil
}

// New wraps an existing client. Keys are namespaced with prefix.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "nickel"
	}
	return &Store{
		client: client,
		key:    prefix + ":items",
		seqKey: prefix + ":items:seq",
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Create(ctx context.Context, ts time.Time) (items.Item, error) {
	if ts.IsZero() {
		return items.Item{}, fmt.Errorf("create item: zero timestamp")
	}
	id, err := s.client.Incr(ctx, s.seqKey).Result()
	if err != nil {
		return items.Item{}, fmt.Errorf("allocate item id: %w", err)
	}
	ts = ts.UTC()
	if err := s.client.HSet(ctx, s.key, strconv.FormatInt(id, 10), ts.Format(time.RFC3339Nano)).Err(); err != nil {
		return items.Item{}, fmt.Errorf("create item: %w", err)
	}
	return items.Item{ID: id, Timestamp: ts}, nil
}

// Delete removes all ids or none of them. The check and the delete run
// under WATCH and are retried when another client changes the hash.
func (s *Store) Delete(ctx context.Context, ids ...int64) error {
	ids = items.UniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = strconv.FormatInt(id, 10)
	}

	txf := func(tx *redis.Tx) error {
		vals, err := tx.HMGet(ctx, s.key, fields...).Result()
		if err != nil {
			return err
		}
		if i := firstMissing(vals); i >= 0 {
			return fmt.Errorf("delete item %d: %w", ids[i], items.ErrNotFound)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HDel(ctx, s.key, fields...)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("delete items: %w", redis.TxFailedErr)
}

// List returns items by ascending timestamp, ties broken by id.
func (s *Store) List(ctx context.Context) ([]items.Item, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return decode(raw)
}

func decode(raw map[string]string) ([]items.Item, error) {
	out := make([]items.Item, 0, len(raw))
	for field, value := range raw {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode item id %q: %w", field, err)
		}
		ts, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return nil, fmt.Errorf("decode item %d timestamp: %w", id, err)
		}
		out = append(out, items.Item{ID: id, Timestamp: ts})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// firstMissing returns the index of the first nil HMGET value, or -1.
func firstMissing(vals []interface{}) int {
	for i, v := range vals {
		if v == nil {
			return i
		}
	}
	return -1
}
