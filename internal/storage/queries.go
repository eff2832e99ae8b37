package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the SQL used by ItemRepository.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Timestamps are stored as RFC 3339 text with nanoseconds in UTC so that
// lexical order matches chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

type itemRow struct {
	ID        int64
	Timestamp string
}

const createItem = `INSERT INTO items (timestamp) VALUES (?) RETURNING id, timestamp`

func (q *Queries) CreateItem(ctx context.Context, ts time.Time) (itemRow, error) {
	row := q.db.QueryRowContext(ctx, createItem, ts.UTC().Format(timestampLayout))
	var i itemRow
	err := row.Scan(&i.ID, &i.Timestamp)
	return i, err
}

const listItems = `SELECT id, timestamp FROM items ORDER BY timestamp ASC, id ASC`

func (q *Queries) ListItems(ctx context.Context) ([]itemRow, error) {
	rows, err := q.db.QueryContext(ctx, listItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []itemRow
	for rows.Next() {
		var i itemRow
		if err := rows.Scan(&i.ID, &i.Timestamp); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteItem = `DELETE FROM items WHERE id = ?`

func (q *Queries) DeleteItem(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteItem, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countItems = `SELECT COUNT(*) FROM items`

func (q *Queries) CountItems(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countItems).Scan(&n)
	return n, err
}
