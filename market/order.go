package market

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrLimitPriceRequired is returned for a LMT order without a price.
	ErrLimitPriceRequired = errors.New("limit price required for LMT order")

	// ErrInvalidOrder covers unknown actions, unknown order types and
	// non-positive quantities.
	ErrInvalidOrder = errors.New("invalid order")
)

type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

// ParseAction accepts BUY or SELL in any case.
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrInvalidOrder, s)
}

type OrderType string

const (
	MarketOrder OrderType = "MKT"
	LimitOrder  OrderType = "LMT"
)

// ParseOrderType accepts MKT/MARKET and LMT/LIMIT.
func ParseOrderType(s string) (OrderType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MKT", "MARKET":
		return MarketOrder, nil
	case "LMT", "LIMIT":
		return LimitOrder, nil
	}
	return "", fmt.Errorf("%w: unknown order type %q", ErrInvalidOrder, s)
}

// Order is the operator's trade intent before submission.
type Order struct {
	Action     Action           `json:"action"`
	Type       OrderType        `json:"order_type"`
	Quantity   decimal.Decimal  `json:"quantity"`
	LimitPrice *decimal.Decimal `json:"limit_price,omitempty"`
}

// NewOrder validates and builds an order. A LMT order must carry a limit
// price; a MKT order drops whatever price was passed.
func NewOrder(action, orderType string, qty decimal.Decimal, limit *decimal.Decimal) (Order, error) {
	a, err := ParseAction(action)
	if err != nil {
		return Order{}, err
	}
	t, err := ParseOrderType(orderType)
	if err != nil {
		return Order{}, err
	}
	if t == LimitOrder && limit == nil {
		return Order{}, ErrLimitPriceRequired
	}
	if !qty.IsPositive() {
		return Order{}, fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidOrder, qty)
	}

	o := Order{Action: a, Type: t, Quantity: qty}
	if t == LimitOrder {
		lp := *limit
		o.LimitPrice = &lp
	}
	return o, nil
}

// Units returns the signed quantity: positive for BUY, negative for SELL.
func (o Order) Units() decimal.Decimal {
	if o.Action == Sell {
		return o.Quantity.Neg()
	}
	return o.Quantity
}
