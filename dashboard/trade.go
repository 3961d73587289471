package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rustyeddy/fxdesk/internal/id"
	"github.com/rustyeddy/fxdesk/ledger"
	"github.com/rustyeddy/fxdesk/market"
)

// LimitPriceMessage is shown when a LMT order is submitted without a price.
const LimitPriceMessage = "Limit price must have a value!"

// TradeForm holds the fields of the order entry form.
type TradeForm struct {
	Action          string           `json:"action"`
	OrderType       string           `json:"order_type"`
	Quantity        decimal.Decimal  `json:"quantity"`
	LimitPrice      *decimal.Decimal `json:"limit_price"`
	Symbol          string           `json:"symbol"`
	SecType         string           `json:"sec_type"`
	Currency        string           `json:"currency"`
	Exchange        string           `json:"exchange"`
	PrimaryExchange *string          `json:"primary_exchange"`
}

// TradeResult is the outcome of a trade. Table is nil when no order was
// placed.
type TradeResult struct {
	ActionID string          `json:"action_id"`
	Message  string          `json:"message"`
	Table    []ledger.Record `json:"table,omitempty"`
}

// SubmitTrade places one order and records it. Only a missing limit price is
// reported through the result; every other failure is returned and leaves
// the ledger as it was, unless the append itself succeeded.
func (d *Desk) SubmitTrade(ctx context.Context, f TradeForm) (TradeResult, error) {
	release, err := acquire(&d.tradeBusy)
	if err != nil {
		return TradeResult{}, err
	}
	defer release()

	res := TradeResult{ActionID: id.New(d.now())}
	log := d.log.With(
		zap.String("action_id", res.ActionID),
		zap.String("action", f.Action),
		zap.String("symbol", f.Symbol),
	)

	var pe string
	if f.PrimaryExchange != nil {
		pe = *f.PrimaryExchange
	}
	contract := market.NewContract(market.ContractFields{
		Symbol:          f.Symbol,
		SecType:         f.SecType,
		Currency:        f.Currency,
		Exchange:        f.Exchange,
		PrimaryExchange: pe,
	})

	order, err := market.NewOrder(f.Action, f.OrderType, f.Quantity, f.LimitPrice)
	if errors.Is(err, market.ErrLimitPriceRequired) {
		log.Warn("trade rejected", zap.Error(err))
		res.Message = LimitPriceMessage
		return res, nil
	}
	if err != nil {
		log.Warn("trade rejected", zap.Error(err))
		return TradeResult{}, err
	}

	if err := d.gw.RefreshContractDetails(ctx, &contract); err != nil {
		log.Error("contract details failed", zap.Error(err))
		return TradeResult{}, fmt.Errorf("contract details: %w", err)
	}
	ids, err := d.gw.PlaceOrder(ctx, contract, order)
	if err != nil {
		log.Error("place order failed", zap.Error(err))
		return TradeResult{}, fmt.Errorf("place order: %w", err)
	}
	ts, err := d.gw.CurrentTime(ctx)
	if err != nil {
		log.Error("current time failed", zap.Int64("order_id", ids.OrderID), zap.Error(err))
		return TradeResult{}, fmt.Errorf("current time: %w", err)
	}

	rec := ledger.Record{
		Timestamp:    ts,
		OrderID:      ids.OrderID,
		ClientID:     ids.ClientID,
		PermID:       ids.PermID,
		InstrumentID: contract.InstrumentID,
		Symbol:       contract.Symbol,
		Action:       string(order.Action),
		Size:         order.Quantity,
		OrderType:    string(order.Type),
		LimitPrice:   order.LimitPrice,
	}
	if err := d.ledger.Append(ctx, rec); err != nil {
		log.Error("ledger append failed", zap.Int64("order_id", ids.OrderID), zap.Error(err))
		return TradeResult{}, fmt.Errorf("record order: %w", err)
	}
	rows, err := d.ledger.ReadAll(ctx)
	if err != nil {
		log.Error("ledger read failed", zap.Error(err))
		return TradeResult{}, fmt.Errorf("read ledger: %w", err)
	}
	d.setTable(rows)

	res.Message = fmt.Sprintf("%s %s %s", order.Action, order.Quantity, contract.Currency)
	res.Table = rows
	log.Info("order recorded",
		zap.Int64("order_id", ids.OrderID),
		zap.Int64("perm_id", ids.PermID),
		zap.Int("ledger_rows", len(rows)),
	)
	return res, nil
}
