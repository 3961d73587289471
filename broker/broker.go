package broker

import (
	"context"
	"time"

	"github.com/rustyeddy/fxdesk/market"
)

// Gateway is the brokerage connectivity the desk depends on. Every call
// blocks until the broker answers or ctx is done.
type Gateway interface {
	ResolveContract(ctx context.Context, c market.Contract) (market.Contract, error)
	HistoricalBars(ctx context.Context, c market.Contract, req HistoricalRequest) ([]market.Bar, error)
	RefreshContractDetails(ctx context.Context, c *market.Contract) error
	PlaceOrder(ctx context.Context, c market.Contract, o market.Order) (OrderIDs, error)
	CurrentTime(ctx context.Context) (time.Time, error)
}

// HistoricalRequest carries the query parameters in broker wire form.
type HistoricalRequest struct {
	EndDateTime string // "" means now
	Duration    string // e.g. "20 D"
	BarSize     string // e.g. "1 day"
	WhatToShow  string // e.g. "MIDPOINT"
	UseRTH      bool
}

// OrderIDs are the broker-assigned identifiers of a placed order.
type OrderIDs struct {
	OrderID  int64 `json:"order_id"`
	ClientID int64 `json:"client_id"`
	PermID   int64 `json:"perm_id"`
}

// ResolutionError is returned by ResolveContract when the broker does not
// know the instrument. Msg is the broker's text, unmodified.
type ResolutionError struct {
	Msg string
}

func (e *ResolutionError) Error() string {
	return e.Msg
}
