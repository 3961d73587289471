// Package ledger keeps the append-only record of submitted orders.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrBadHeader   = errors.New("ledger: unexpected header")
	ErrUnknownType = errors.New("ledger: unknown backend type")
)

// Header is the column layout of the persisted ledger, in file order.
var Header = []string{
	"timestamp",
	"order_id",
	"client_id",
	"perm_id",
	"con_id",
	"symbol",
	"action",
	"size",
	"order_type",
	"lmt_price",
}

// Record is one submitted order. Records are written once and never changed.
type Record struct {
	Timestamp    time.Time        `json:"timestamp"`
	OrderID      int64            `json:"order_id"`
	ClientID     int64            `json:"client_id"`
	PermID       int64            `json:"perm_id"`
	InstrumentID int64            `json:"con_id"`
	Symbol       string           `json:"symbol"`
	Action       string           `json:"action"`
	Size         decimal.Decimal  `json:"size"`
	OrderType    string           `json:"order_type"`
	LimitPrice   *decimal.Decimal `json:"lmt_price"`
}

// Ledger appends records and reads them back in write order.
type Ledger interface {
	Append(ctx context.Context, r Record) error
	ReadAll(ctx context.Context) ([]Record, error)
	Close() error
}

// Config selects and locates a backend.
type Config struct {
	Type string `yaml:"type" json:"type"` // csv, sqlite or postgres
	Path string `yaml:"path" json:"path"`
	DSN  string `yaml:"dsn" json:"dsn"`
}

// Open returns the backend named by cfg.Type.
func Open(ctx context.Context, cfg Config) (Ledger, error) {
	switch strings.ToLower(cfg.Type) {
	case "csv", "":
		return NewCSV(cfg.Path)
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DSN)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, cfg.Type)
}

// row renders r as strings in Header order. A missing limit price is empty.
func (r Record) row() []string {
	lmt := ""
	if r.LimitPrice != nil {
		lmt = r.LimitPrice.String()
	}
	return []string{
		r.Timestamp.UTC().Format(time.RFC3339Nano),
		fmt.Sprint(r.OrderID),
		fmt.Sprint(r.ClientID),
		fmt.Sprint(r.PermID),
		fmt.Sprint(r.InstrumentID),
		r.Symbol,
		r.Action,
		r.Size.String(),
		r.OrderType,
		lmt,
	}
}
