package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"nickel/internal/items"

	_ "modernc.org/sqlite"
)

// ItemRepository stores items in SQLite.
type ItemRepository struct {
	db      *sql.DB
	queries *Queries
}

// NewItemRepository opens (creating if needed) the database at dbPath and
// migrates it to the latest schema.
func NewItemRepository(dbPath string) (*ItemRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer at a time keeps SQLite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &ItemRepository{db: db, queries: New(db)}, nil
}

func (r *ItemRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *ItemRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create implements items.Writer.
func (r *ItemRepository) Create(ctx context.Context, ts time.Time) (items.Item, error) {
	if ts.IsZero() {
		return items.Item{}, fmt.Errorf("create item: zero timestamp")
	}
	row, err := r.queries.CreateItem(ctx, ts)
	if err != nil {
		return items.Item{}, fmt.Errorf("create item: %w", err)
	}
	it, err := row.toItem()
	if err != nil {
		return items.Item{}, err
	}

	slog.DebugContext(ctx, "Item saved to SQLite", "id", it.ID, "timestamp", it.Timestamp)
	return it, nil
}

// List implements items.Lister.
func (r *ItemRepository) List(ctx context.Context) ([]items.Item, error) {
	rows, err := r.queries.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	out := make([]items.Item, 0, len(rows))
	for _, row := range rows {
		it, err := row.toItem()
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

// Delete implements items.Writer. All ids are removed in one transaction;
// if any id is unknown the transaction is rolled back.
func (r *ItemRepository) Delete(ctx context.Context, ids ...int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for _, id := range items.UniqueIDs(ids) {
		n, err := q.DeleteItem(ctx, id)
		if err != nil {
			return fmt.Errorf("delete item %d: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("delete item %d: %w", id, items.ErrNotFound)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// Count returns the number of stored items.
func (r *ItemRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

func (i itemRow) toItem() (items.Item, error) {
	ts, err := time.Parse(timestampLayout, i.Timestamp)
	if err != nil {
		return items.Item{}, fmt.Errorf("parse timestamp of item %d: %w", i.ID, err)
	}
	return items.Item{ID: i.ID, Timestamp: ts}, nil
}
