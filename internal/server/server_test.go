package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxdesk/broker/sim"
	"github.com/rustyeddy/fxdesk/dashboard"
	"github.com/rustyeddy/fxdesk/ledger"
	"github.com/rustyeddy/fxdesk/market"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, denied map[string]string) *Server {
	t.Helper()
	l, err := ledger.NewCSV(filepath.Join(t.TempDir(), "submitted_orders.csv"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	gw := sim.New(sim.Config{
		ClientID: 9,
		Seed:     3,
		Clock:    func() time.Time { return fixedNow },
		Denied:   denied,
	})
	d, err := dashboard.New(context.Background(), dashboard.Config{Gateway: gw, Ledger: l})
	require.NoError(t, err)
	return New(d, nil)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.R.ServeHTTP(w, req)
	return w
}

func TestHealthAndOptions(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/api/options", "")
	require.Equal(t, http.StatusOK, w.Code)
	var opts dashboard.Options
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opts))
	assert.Equal(t, []string{"BUY", "SELL"}, opts.Actions)
	assert.Contains(t, opts.BarSizes, "1 hour")
}

func TestPostQuery(t *testing.T) {
	s := newTestServer(t, map[string]string{"EUR.GBP": "no permissions"})

	w := do(t, s, http.MethodPost, "/api/query",
		`{"pair":"AUD.CAD","what_to_show":"MIDPOINT","bar_size":"1 day","use_rth":true,"duration_value":20,"duration_unit":"D"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res dashboard.QueryResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Submitted query for AUD.CAD", res.Confirmation)
	assert.Equal(t, "Exchange Rate: AUD.CAD", res.Chart.Title)
	assert.Len(t, res.Chart.Bars, 20)
	assert.False(t, res.Alert.Displayed)

	w = do(t, s, http.MethodPost, "/api/query",
		`{"pair":"EUR.GBP","what_to_show":"MIDPOINT","bar_size":"1 day","duration_value":1,"duration_unit":"D"}`)
	require.Equal(t, http.StatusOK, w.Code)
	res = dashboard.QueryResult{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, dashboard.Alert{Displayed: true, Message: "Error: no permissions"}, res.Alert)
	assert.Empty(t, res.Chart.Bars)

	w = do(t, s, http.MethodPost, "/api/query",
		`{"pair":"AUD.CAD","what_to_show":"MIDPOINT","bar_size":"1 day","duration_value":10000000000,"duration_unit":"S"}`)
	require.Equal(t, http.StatusOK, w.Code)
	res = dashboard.QueryResult{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Alert.Displayed)
	assert.Contains(t, res.Alert.Message, "invalid duration")

	w = do(t, s, http.MethodPost, "/api/query", `{"pair":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostTradeAndLedger(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodPost, "/api/trade",
		`{"action":"SELL","order_type":"LMT","quantity":"100","symbol":"EUR","sec_type":"CASH","currency":"USD","exchange":"IDEALPRO"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var res dashboard.TradeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Limit price must have a value!", res.Message)
	assert.Empty(t, res.Table)

	w = do(t, s, http.MethodPost, "/api/trade",
		`{"action":"BUY","order_type":"MKT","quantity":200,"symbol":"AUD","sec_type":"CASH","currency":"USD","exchange":"IDEALPRO"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res = dashboard.TradeResult{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "BUY 200 USD", res.Message)
	require.Len(t, res.Table, 1)
	assert.Equal(t, int64(1), res.Table[0].OrderID)
	assert.Equal(t, int64(9), res.Table[0].ClientID)
	assert.NotZero(t, res.Table[0].InstrumentID)

	w = do(t, s, http.MethodGet, "/api/ledger", "")
	require.Equal(t, http.StatusOK, w.Code)
	var lr ledgerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lr))
	require.Len(t, lr.Rows, 1)
	assert.Equal(t, "AUD", lr.Rows[0].Symbol)

	w = do(t, s, http.MethodPost, "/api/trade",
		`{"action":"HOLD","order_type":"MKT","quantity":1,"symbol":"AUD","sec_type":"CASH","currency":"USD"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubDesk struct {
	err error
}

func (d stubDesk) SubmitQuery(context.Context, dashboard.QueryForm) (dashboard.QueryResult, error) {
	return dashboard.QueryResult{}, d.err
}

func (d stubDesk) SubmitTrade(context.Context, dashboard.TradeForm) (dashboard.TradeResult, error) {
	return dashboard.TradeResult{}, d.err
}

func (stubDesk) Table() []ledger.Record { return nil }

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"in flight", dashboard.ErrActionInFlight, http.StatusConflict},
		{"invalid order", market.ErrInvalidOrder, http.StatusBadRequest},
		{"broker down", errors.New("place order: connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(stubDesk{err: tt.err}, nil)
			for _, path := range []string{"/api/query", "/api/trade"} {
				w := do(t, s, http.MethodPost, path, `{}`)
				assert.Equal(t, tt.want, w.Code, path)
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}

	w := do(t, New(stubDesk{}, nil), http.MethodGet, "/api/ledger", "")
	assert.JSONEq(t, `{"rows":[]}`, w.Body.String())
}
