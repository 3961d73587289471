package market

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	t.Parallel()

	price := decimal.RequireFromString("0.6612")
	qty := decimal.NewFromInt(200)

	tests := []struct {
		name      string
		action    string
		orderType string
		qty       decimal.Decimal
		limit     *decimal.Decimal
		wantErr   error
	}{
		{"market buy", "BUY", "MKT", qty, nil, nil},
		{"market sell alias", "sell", "MARKET", qty, nil, nil},
		{"limit with price", "BUY", "LMT", qty, &price, nil},
		{"limit alias", "SELL", "LIMIT", qty, &price, nil},
		{"limit without price", "SELL", "LMT", qty, nil, ErrLimitPriceRequired},
		{"unknown action", "HOLD", "MKT", qty, nil, ErrInvalidOrder},
		{"unknown type", "BUY", "STP", qty, nil, ErrInvalidOrder},
		{"zero quantity", "BUY", "MKT", decimal.Zero, nil, ErrInvalidOrder},
		{"negative quantity", "BUY", "MKT", decimal.NewFromInt(-5), nil, ErrInvalidOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := NewOrder(tt.action, tt.orderType, tt.qty, tt.limit)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.qty.Equal(o.Quantity))
		})
	}
}

func TestNewOrderMarketDropsLimitPrice(t *testing.T) {
	t.Parallel()

	price := decimal.RequireFromString("1.1")
	o, err := NewOrder("BUY", "MKT", decimal.NewFromInt(1), &price)
	require.NoError(t, err)
	assert.Equal(t, MarketOrder, o.Type)
	assert.Nil(t, o.LimitPrice)
}

func TestNewOrderLimitCopiesPrice(t *testing.T) {
	t.Parallel()

	price := decimal.RequireFromString("1.1")
	o, err := NewOrder("buy", "lmt", decimal.NewFromInt(1), &price)
	require.NoError(t, err)
	require.NotNil(t, o.LimitPrice)

	price = decimal.RequireFromString("9.9")
	assert.Equal(t, "1.1", o.LimitPrice.String())
	assert.Equal(t, Buy, o.Action)
	assert.Equal(t, LimitOrder, o.Type)
}

func TestOrderUnits(t *testing.T) {
	t.Parallel()

	buy := Order{Action: Buy, Quantity: decimal.NewFromInt(200)}
	sell := Order{Action: Sell, Quantity: decimal.NewFromInt(200)}
	assert.Equal(t, "200", buy.Units().String())
	assert.Equal(t, "-200", sell.Units().String())
}
