package oanda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/fxdesk/broker"
	"github.com/rustyeddy/fxdesk/market"
)

var _ broker.Gateway = (*Client)(nil)

// InstrumentName converts a contract to OANDA's BASE_QUOTE form.
func InstrumentName(c market.Contract) string {
	return strings.ToUpper(c.Symbol) + "_" + strings.ToUpper(c.Currency)
}

func (c *Client) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *Client) zoneMap() map[string]*time.Location {
	if c.zones != nil {
		return c.zones
	}
	return broker.DefaultZones
}

type accountInstrument struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	DisplayName      string `json:"displayName"`
	DisplayPrecision int    `json:"displayPrecision"`
}

type instrumentsResponse struct {
	Instruments []accountInstrument `json:"instruments"`
}

// instrument looks the contract up in the account's tradeable instruments.
// Any failure the broker reports comes back as a ResolutionError.
func (c *Client) instrument(ctx context.Context, con market.Contract) (accountInstrument, error) {
	name := InstrumentName(con)
	q := url.Values{}
	q.Set("instruments", name)

	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v3/accounts/%s/instruments", c.accountID), q, nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return accountInstrument{}, &broker.ResolutionError{Msg: se.Message}
		}
		return accountInstrument{}, err
	}
	defer resp.Body.Close()

	var ir instrumentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return accountInstrument{}, fmt.Errorf("decode instruments: %w", err)
	}
	for _, in := range ir.Instruments {
		if in.Name != name {
			continue
		}
		if strings.EqualFold(con.SecType, "CASH") && in.Type != "CURRENCY" {
			return accountInstrument{}, &broker.ResolutionError{
				Msg: fmt.Sprintf("%s is a %s instrument, not CASH", name, in.Type),
			}
		}
		return in, nil
	}
	return accountInstrument{}, &broker.ResolutionError{Msg: fmt.Sprintf("instrument %s is not tradeable on this account", name)}
}

func (c *Client) ResolveContract(ctx context.Context, con market.Contract) (market.Contract, error) {
	if _, err := c.instrument(ctx, con); err != nil {
		return market.Contract{}, err
	}
	return con, nil
}

// RefreshContractDetails confirms the instrument is tradeable. The v20 API
// has no numeric instrument identifiers, so InstrumentID is left as is.
func (c *Client) RefreshContractDetails(ctx context.Context, con *market.Contract) error {
	_, err := c.instrument(ctx, *con)
	return err
}

func (c *Client) HistoricalBars(ctx context.Context, con market.Contract, req broker.HistoricalRequest) ([]market.Bar, error) {
	price, err := PriceComponentFor(req.WhatToShow)
	if err != nil {
		return nil, err
	}
	size, err := broker.ParseBarSize(req.BarSize)
	if err != nil {
		return nil, err
	}
	gran, err := GranularityFor(size)
	if err != nil {
		return nil, err
	}
	span, err := broker.ParseDuration(req.Duration)
	if err != nil {
		return nil, err
	}
	to, err := broker.ParseEndDateTime(req.EndDateTime, c.clock(), c.zoneMap())
	if err != nil {
		return nil, err
	}
	from := span.Before(to)
	if n := int(to.Sub(from) / size); n < 0 || n > MaxCandles {
		return nil, fmt.Errorf("oanda: %d candles requested, limit is %d", n, MaxCandles)
	}

	// FX trades around the clock, so UseRTH has nothing to filter.
	return c.GetCandles(ctx, CandlesRequest{
		Instrument:  InstrumentName(con),
		Price:       price,
		Granularity: gran,
		From:        &from,
		To:          &to,
	})
}

type orderSpec struct {
	Type         string `json:"type"`
	Instrument   string `json:"instrument"`
	Units        string `json:"units"`
	Price        string `json:"price,omitempty"`
	TimeInForce  string `json:"timeInForce"`
	PositionFill string `json:"positionFill"`
}

type orderRequest struct {
	Order orderSpec `json:"order"`
}

type transaction struct {
	ID      string `json:"id"`
	BatchID string `json:"batchID"`
	Reason  string `json:"reason"`
}

type orderResponse struct {
	OrderCreateTransaction *transaction `json:"orderCreateTransaction"`
	OrderCancelTransaction *transaction `json:"orderCancelTransaction"`
	OrderRejectTransaction *transaction `json:"orderRejectTransaction"`
}

func (c *Client) PlaceOrder(ctx context.Context, con market.Contract, o market.Order) (broker.OrderIDs, error) {
	spec := orderSpec{
		Instrument:   InstrumentName(con),
		Units:        o.Units().String(),
		PositionFill: "DEFAULT",
	}
	switch o.Type {
	case market.MarketOrder:
		spec.Type = "MARKET"
		spec.TimeInForce = "FOK"
	case market.LimitOrder:
		if o.LimitPrice == nil {
			return broker.OrderIDs{}, market.ErrLimitPriceRequired
		}
		precision := int32(5)
		if meta, ok := market.LookupInstrument(con); ok {
			precision = int32(meta.DisplayPrecision)
		}
		spec.Type = "LIMIT"
		spec.TimeInForce = "GTC"
		spec.Price = o.LimitPrice.StringFixed(precision)
	default:
		return broker.OrderIDs{}, fmt.Errorf("oanda: unsupported order type %q", o.Type)
	}

	resp, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/v3/accounts/%s/orders", c.accountID), nil, orderRequest{Order: spec})
	if err != nil {
		return broker.OrderIDs{}, fmt.Errorf("place order: %w", err)
	}
	defer resp.Body.Close()

	var or orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return broker.OrderIDs{}, fmt.Errorf("decode order response: %w", err)
	}
	if or.OrderRejectTransaction != nil {
		return broker.OrderIDs{}, fmt.Errorf("order rejected: %s", or.OrderRejectTransaction.Reason)
	}
	if or.OrderCreateTransaction == nil {
		return broker.OrderIDs{}, errors.New("oanda: order response has no create transaction")
	}
	if or.OrderCancelTransaction != nil {
		return broker.OrderIDs{}, fmt.Errorf("order cancelled: %s", or.OrderCancelTransaction.Reason)
	}

	orderID, err := strconv.ParseInt(or.OrderCreateTransaction.ID, 10, 64)
	if err != nil {
		return broker.OrderIDs{}, fmt.Errorf("parse order id %q: %w", or.OrderCreateTransaction.ID, err)
	}
	permID, err := strconv.ParseInt(or.OrderCreateTransaction.BatchID, 10, 64)
	if err != nil {
		permID = orderID
	}
	return broker.OrderIDs{
		OrderID:  orderID,
		ClientID: c.clientID,
		PermID:   permID,
	}, nil
}

// CurrentTime reads the server clock from the Date header of an account
// summary request.
func (c *Client) CurrentTime(ctx context.Context) (time.Time, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v3/accounts/%s/summary", c.accountID), nil, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("current time: %w", err)
	}
	defer resp.Body.Close()

	t, err := http.ParseTime(resp.Header.Get("Date"))
	if err != nil {
		return time.Time{}, fmt.Errorf("current time: bad Date header: %w", err)
	}
	return t.UTC(), nil
}
