package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS submitted_orders (
	seq        BIGSERIAL PRIMARY KEY,
	timestamp  TIMESTAMPTZ NOT NULL,
	order_id   BIGINT NOT NULL,
	client_id  BIGINT NOT NULL,
	perm_id    BIGINT NOT NULL,
	con_id     BIGINT NOT NULL,
	symbol     TEXT NOT NULL,
	action     TEXT NOT NULL,
	size       NUMERIC NOT NULL,
	order_type TEXT NOT NULL,
	lmt_price  NUMERIC
)`

type Postgres struct {
	mu   sync.Mutex
	pool *pgxpool.Pool
}

var _ Ledger = (*Postgres)(nil)

// NewPostgres connects to dsn and creates the table when missing.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("ledger: postgres dsn is required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ledger: create pgx pool: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ledger: create schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Append(ctx context.Context, r Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lmt *string
	if r.LimitPrice != nil {
		s := r.LimitPrice.String()
		lmt = &s
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO submitted_orders
(timestamp, order_id, client_id, perm_id, con_id, symbol, action, size, order_type, lmt_price)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8::numeric,$9,$10::numeric)
`, r.Timestamp.UTC(), r.OrderID, r.ClientID, r.PermID, r.InstrumentID,
		r.Symbol, r.Action, r.Size.String(), r.OrderType, lmt)
	if err != nil {
		return fmt.Errorf("ledger: append: %w", err)
	}
	return nil
}

func (p *Postgres) ReadAll(ctx context.Context) ([]Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rows, err := p.pool.Query(ctx, `
SELECT timestamp, order_id, client_id, perm_id, con_id, symbol, action, size::text, order_type, lmt_price::text
FROM submitted_orders
ORDER BY seq ASC
`)
	if err != nil {
		return nil, fmt.Errorf("ledger: read: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var (
			rec  Record
			ts   time.Time
			size string
			lmt  *string
		)
		if err := rows.Scan(&ts, &rec.OrderID, &rec.ClientID, &rec.PermID, &rec.InstrumentID,
			&rec.Symbol, &rec.Action, &size, &rec.OrderType, &lmt); err != nil {
			return nil, err
		}
		rec.Timestamp = ts.UTC()
		if rec.Size, err = decimal.NewFromString(size); err != nil {
			return nil, fmt.Errorf("ledger: size %q: %w", size, err)
		}
		if lmt != nil {
			d, err := decimal.NewFromString(*lmt)
			if err != nil {
				return nil, fmt.Errorf("ledger: lmt_price %q: %w", *lmt, err)
			}
			rec.LimitPrice = &d
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
