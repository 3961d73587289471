// Package sim is an in-process broker gateway for development and tests.
// It knows the instruments in market.Instruments, generates reproducible
// random-walk bars and hands out sequential order identifiers.
package sim

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/fxdesk/broker"
	"github.com/rustyeddy/fxdesk/market"
)

// NoDefinition is the message returned for instruments the gateway cannot
// resolve.
const NoDefinition = "No security definition has been found for the request"

// MaxBars caps the number of bars a single query may produce.
const MaxBars = 5000

type Config struct {
	ClientID int64
	Seed     int64
	Clock    func() time.Time
	Zones    map[string]*time.Location

	// Denied maps BASE.QUOTE to a resolution error message, used to
	// simulate missing market data permissions.
	Denied map[string]string
}

type instrument struct {
	id   int64
	meta market.InstrumentMeta
	ref  float64
}

// PlacedOrder is an order the gateway accepted.
type PlacedOrder struct {
	IDs      broker.OrderIDs
	Contract market.Contract
	Order    market.Order
	Time     time.Time
}

type Gateway struct {
	mu          sync.Mutex
	cfg         Config
	instruments map[string]instrument
	nextOrderID int64
	orders      []PlacedOrder
}

var _ broker.Gateway = (*Gateway)(nil)

// reference mids the random walk starts from
var refPrices = map[string]float64{
	"EUR.USD": 1.0850,
	"GBP.USD": 1.2650,
	"AUD.USD": 0.6600,
	"NZD.USD": 0.6100,
	"USD.CAD": 1.3550,
	"USD.CHF": 0.8800,
	"USD.JPY": 148.50,
	"EUR.GBP": 0.8580,
	"EUR.JPY": 161.10,
	"AUD.CAD": 0.8950,
	"AUD.JPY": 98.00,
	"GBP.JPY": 187.80,
}

func New(cfg Config) *Gateway {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Zones == nil {
		cfg.Zones = broker.DefaultZones
	}
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}

	names := make([]string, 0, len(market.Instruments))
	for name := range market.Instruments {
		names = append(names, name)
	}
	sort.Strings(names)

	g := &Gateway{
		cfg:         cfg,
		instruments: make(map[string]instrument, len(names)),
		nextOrderID: 1,
	}
	for i, name := range names {
		ref, ok := refPrices[name]
		if !ok {
			ref = 1.0
		}
		g.instruments[name] = instrument{
			id:   int64(1001 + i),
			meta: market.Instruments[name],
			ref:  ref,
		}
	}
	return g
}

func (g *Gateway) lookup(c market.Contract) (instrument, error) {
	if msg, ok := g.cfg.Denied[c.Pair()]; ok {
		return instrument{}, &broker.ResolutionError{Msg: msg}
	}
	if !strings.EqualFold(c.SecType, "CASH") {
		return instrument{}, &broker.ResolutionError{Msg: NoDefinition}
	}
	in, ok := g.instruments[c.Pair()]
	if !ok {
		return instrument{}, &broker.ResolutionError{Msg: NoDefinition}
	}
	return in, nil
}

func (g *Gateway) ResolveContract(ctx context.Context, c market.Contract) (market.Contract, error) {
	if err := ctx.Err(); err != nil {
		return market.Contract{}, err
	}
	in, err := g.lookup(c)
	if err != nil {
		return market.Contract{}, err
	}
	c.InstrumentID = in.id
	return c, nil
}

func (g *Gateway) RefreshContractDetails(ctx context.Context, c *market.Contract) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := g.lookup(*c)
	if err != nil {
		return err
	}
	c.InstrumentID = in.id
	return nil
}

// HistoricalBars walks a seeded random path over the requested window.
// The same contract and window always produce the same bars.
func (g *Gateway) HistoricalBars(ctx context.Context, c market.Contract, req broker.HistoricalRequest) ([]market.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in, err := g.lookup(c)
	if err != nil {
		return nil, err
	}

	var offset float64
	pip := math.Pow10(in.meta.PipLocation)
	switch strings.ToUpper(req.WhatToShow) {
	case "MIDPOINT", "BID_ASK":
	case "BID":
		offset = -0.8 * pip
	case "ASK":
		offset = 0.8 * pip
	default:
		return nil, fmt.Errorf("sim: %s data is not available for %s", req.WhatToShow, c.SecType)
	}

	end, err := broker.ParseEndDateTime(req.EndDateTime, g.cfg.Clock(), g.cfg.Zones)
	if err != nil {
		return nil, err
	}
	span, err := broker.ParseDuration(req.Duration)
	if err != nil {
		return nil, err
	}
	size, err := broker.ParseBarSize(req.BarSize)
	if err != nil {
		return nil, err
	}

	start := span.Before(end).Truncate(size)
	n := int(end.Sub(start) / size)
	if n < 0 || n > MaxBars {
		return nil, fmt.Errorf("sim: %d bars requested, limit is %d", n, MaxBars)
	}

	h := fnv.New64a()
	h.Write([]byte(c.Pair()))
	rng := rand.New(rand.NewSource(g.cfg.Seed ^ int64(h.Sum64()) ^ start.Unix()))

	sigma := 10 * pip * math.Sqrt(size.Minutes())
	scale := math.Pow10(in.meta.DisplayPrecision)
	round := func(x float64) float64 {
		return math.Round(x*scale) / scale
	}

	bars := make([]market.Bar, 0, n)
	last := in.ref
	for i := 0; i < n; i++ {
		open := last
		closeP := open + rng.NormFloat64()*sigma
		high := math.Max(open, closeP) + math.Abs(rng.NormFloat64())*sigma/2
		low := math.Min(open, closeP) - math.Abs(rng.NormFloat64())*sigma/2
		bars = append(bars, market.Bar{
			Time:   start.Add(time.Duration(i) * size).UTC(),
			Open:   round(open + offset),
			High:   round(high + offset),
			Low:    round(low + offset),
			Close:  round(closeP + offset),
			Volume: float64(rng.Intn(1000)),
		})
		last = closeP
	}
	return bars, nil
}

func (g *Gateway) PlaceOrder(ctx context.Context, c market.Contract, o market.Order) (broker.OrderIDs, error) {
	if err := ctx.Err(); err != nil {
		return broker.OrderIDs{}, err
	}
	if o.Type == market.LimitOrder && o.LimitPrice == nil {
		return broker.OrderIDs{}, market.ErrLimitPriceRequired
	}
	in, err := g.lookup(c)
	if err != nil {
		return broker.OrderIDs{}, err
	}
	c.InstrumentID = in.id

	g.mu.Lock()
	defer g.mu.Unlock()

	ids := broker.OrderIDs{
		OrderID:  g.nextOrderID,
		ClientID: g.cfg.ClientID,
		PermID:   g.cfg.Seed*1_000_000 + g.nextOrderID,
	}
	g.nextOrderID++
	g.orders = append(g.orders, PlacedOrder{
		IDs:      ids,
		Contract: c,
		Order:    o,
		Time:     g.cfg.Clock(),
	})
	return ids, nil
}

func (g *Gateway) CurrentTime(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	return g.cfg.Clock(), nil
}

// Orders returns a copy of every order placed so far.
func (g *Gateway) Orders() []PlacedOrder {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]PlacedOrder, len(g.orders))
	copy(out, g.orders)
	return out
}
