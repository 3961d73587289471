package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS submitted_orders (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp  DATETIME NOT NULL,
	order_id   INTEGER NOT NULL,
	client_id  INTEGER NOT NULL,
	perm_id    INTEGER NOT NULL,
	con_id     INTEGER NOT NULL,
	symbol     TEXT NOT NULL,
	action     TEXT NOT NULL,
	size       TEXT NOT NULL,
	order_type TEXT NOT NULL,
	lmt_price  TEXT
);
`

type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

var _ Ledger = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("ledger: sqlite path is required")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) Append(ctx context.Context, r Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO submitted_orders
		(timestamp, order_id, client_id, perm_id, con_id, symbol, action, size, order_type, lmt_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Timestamp.UTC(), r.OrderID, r.ClientID, r.PermID, r.InstrumentID,
		r.Symbol, r.Action, r.Size, r.OrderType, nullDecimal(r.LimitPrice),
	)
	if err != nil {
		return fmt.Errorf("ledger: append: %w", err)
	}
	return nil
}

func (j *SQLite) ReadAll(ctx context.Context) ([]Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx, `
		SELECT timestamp, order_id, client_id, perm_id, con_id, symbol, action, size, order_type, lmt_price
		FROM submitted_orders
		ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("ledger: read: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var (
			rec Record
			ts  time.Time
			lmt decimal.NullDecimal
		)
		if err := rows.Scan(
			&ts,
			&rec.OrderID,
			&rec.ClientID,
			&rec.PermID,
			&rec.InstrumentID,
			&rec.Symbol,
			&rec.Action,
			&rec.Size,
			&rec.OrderType,
			&lmt,
		); err != nil {
			return nil, err
		}
		rec.Timestamp = ts.UTC()
		if lmt.Valid {
			rec.LimitPrice = &lmt.Decimal
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
