package dashboard

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/rustyeddy/fxdesk/broker"
	"github.com/rustyeddy/fxdesk/internal/id"
	"github.com/rustyeddy/fxdesk/market"
)

// QueryForm holds the fields of the market data form. Nil time parts are
// unset.
type QueryForm struct {
	Pair          string `json:"pair"`
	WhatToShow    string `json:"what_to_show"`
	BarSize       string `json:"bar_size"`
	UseRTH        bool   `json:"use_rth"`
	EndDate       string `json:"end_date"`
	EndHour       *int   `json:"end_hour"`
	EndMinute     *int   `json:"end_minute"`
	EndSecond     *int   `json:"end_second"`
	DurationValue int    `json:"duration_value"`
	DurationUnit  string `json:"duration_unit"`
}

type Chart struct {
	Title string       `json:"title"`
	Bars  []market.Bar `json:"bars"`
}

type Alert struct {
	Displayed bool   `json:"displayed"`
	Message   string `json:"message"`
}

type QueryResult struct {
	ActionID     string `json:"action_id"`
	Confirmation string `json:"confirmation"`
	Chart        Chart  `json:"chart"`
	Alert        Alert  `json:"alert"`
}

// SubmitQuery runs one market data query. Problems with the form or the
// contract come back in the result's alert; an error is returned only when
// the action could not run at all.
func (d *Desk) SubmitQuery(ctx context.Context, f QueryForm) (QueryResult, error) {
	release, err := acquire(&d.queryBusy)
	if err != nil {
		return QueryResult{}, err
	}
	defer release()

	res := QueryResult{
		ActionID:     id.New(d.now()),
		Confirmation: "Submitted query for " + f.Pair,
		Chart:        Chart{Title: "Exchange Rate: " + f.Pair, Bars: []market.Bar{}},
	}
	log := d.log.With(zap.String("action_id", res.ActionID), zap.String("pair", f.Pair))

	fail := func(err error) (QueryResult, error) {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			log.Warn("query abandoned", zap.Error(err))
			return QueryResult{}, err
		}
		log.Error("query failed", zap.Error(err))
		res.Alert = Alert{Displayed: true, Message: "Error: " + err.Error()}
		return res, nil
	}

	contract, err := market.ParsePair(f.Pair, d.secType, d.exchange)
	if err != nil {
		return fail(err)
	}
	end, err := EndDateTime(f.EndDate, f.EndHour, f.EndMinute, f.EndSecond, d.zone)
	if err != nil {
		return fail(err)
	}
	duration, err := DurationString(f.DurationValue, f.DurationUnit)
	if err != nil {
		return fail(err)
	}

	resolved, err := d.gw.ResolveContract(ctx, contract)
	if err != nil {
		return fail(err)
	}

	req := broker.HistoricalRequest{
		EndDateTime: end,
		Duration:    duration,
		BarSize:     f.BarSize,
		WhatToShow:  f.WhatToShow,
		UseRTH:      f.UseRTH,
	}
	log.Debug("requesting bars",
		zap.String("end", req.EndDateTime),
		zap.String("duration", req.Duration),
		zap.String("bar_size", req.BarSize),
		zap.String("what_to_show", req.WhatToShow),
	)
	bars, err := d.gw.HistoricalBars(ctx, resolved, req)
	if err != nil {
		return fail(err)
	}
	if bars != nil {
		res.Chart.Bars = bars
	}
	log.Info("query complete", zap.Int("bars", len(res.Chart.Bars)))
	return res, nil
}
