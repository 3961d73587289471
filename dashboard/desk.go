// Package dashboard drives the two operator actions of the FX desk: a
// historical market data query and an order submission that is recorded in
// the ledger.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/fxdesk/broker"
	"github.com/rustyeddy/fxdesk/ledger"
	"github.com/rustyeddy/fxdesk/market"
)

// ErrActionInFlight is returned when an action is triggered while the
// previous trigger of the same action has not finished.
var ErrActionInFlight = errors.New("action already in flight")

// Config wires a Desk to its collaborators.
type Config struct {
	Gateway broker.Gateway
	Ledger  ledger.Ledger
	Logger  *zap.Logger

	// Defaults for contracts built from a currency pair.
	SecType  string
	Exchange string
	// Zone is the literal appended to composed end timestamps.
	Zone string
}

// Desk owns the in-flight state of each action and the ledger table shown
// to the operator.
type Desk struct {
	gw       broker.Gateway
	ledger   ledger.Ledger
	log      *zap.Logger
	secType  string
	exchange string
	zone     string
	now      func() time.Time

	queryBusy atomic.Bool
	tradeBusy atomic.Bool

	mu    sync.RWMutex
	table []ledger.Record
}

// New builds a Desk and seeds its table from the ledger.
func New(ctx context.Context, cfg Config) (*Desk, error) {
	if cfg.Gateway == nil {
		return nil, errors.New("dashboard: gateway is required")
	}
	if cfg.Ledger == nil {
		return nil, errors.New("dashboard: ledger is required")
	}
	d := &Desk{
		gw:       cfg.Gateway,
		ledger:   cfg.Ledger,
		log:      cfg.Logger,
		secType:  cfg.SecType,
		exchange: cfg.Exchange,
		zone:     cfg.Zone,
		now:      time.Now,
	}
	if d.log == nil {
		d.log = zap.NewNop()
	}
	if d.secType == "" {
		d.secType = "CASH"
	}
	if d.exchange == "" {
		d.exchange = "IDEALPRO"
	}
	if d.zone == "" {
		d.zone = DefaultZone
	}

	rows, err := d.ledger.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: seed table: %w", err)
	}
	d.table = rows
	d.log.Info("desk ready", zap.Int("ledger_rows", len(rows)))
	return d, nil
}

// Table returns a copy of the ledger table as last read.
func (d *Desk) Table() []ledger.Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.table)
}

func (d *Desk) setTable(rows []ledger.Record) {
	d.mu.Lock()
	d.table = rows
	d.mu.Unlock()
}

// acquire marks an action busy. The returned func releases it.
func acquire(flag *atomic.Bool) (func(), error) {
	if !flag.CompareAndSwap(false, true) {
		return nil, ErrActionInFlight
	}
	return func() { flag.Store(false) }, nil
}

// Options are the fixed choices offered by the query and trade forms.
type Options struct {
	BarSizes      []string `json:"bar_sizes"`
	WhatToShow    []string `json:"what_to_show"`
	DurationUnits []string `json:"duration_units"`
	Actions       []string `json:"actions"`
	OrderTypes    []string `json:"order_types"`
}

func FormOptions() Options {
	return Options{
		BarSizes:      slices.Clone(broker.BarSizes),
		WhatToShow:    slices.Clone(broker.WhatToShow),
		DurationUnits: slices.Clone(broker.DurationUnits),
		Actions:       []string{string(market.Buy), string(market.Sell)},
		OrderTypes:    []string{string(market.MarketOrder), string(market.LimitOrder)},
	}
}
