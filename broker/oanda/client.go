package oanda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/fxdesk/market"
)

const (
	// PracticeURL is the URL for OANDA's practice/demo environment
	PracticeURL = "https://api-fxpractice.oanda.com"
	// LiveURL is the URL for OANDA's live trading environment
	LiveURL = "https://api-fxtrade.oanda.com"

	// MaxCandles is the per-request candle limit of the v20 API.
	MaxCandles = 5000
)

// Granularity represents the time frame for candles
type Granularity string

const (
	S5  Granularity = "S5"  // 5 seconds
	S10 Granularity = "S10" // 10 seconds
	S15 Granularity = "S15" // 15 seconds
	S30 Granularity = "S30" // 30 seconds
	M1  Granularity = "M1"  // 1 minute
	M2  Granularity = "M2"  // 2 minutes
	M4  Granularity = "M4"  // 4 minutes
	M5  Granularity = "M5"  // 5 minutes
	M10 Granularity = "M10" // 10 minutes
	M15 Granularity = "M15" // 15 minutes
	M30 Granularity = "M30" // 30 minutes
	H1  Granularity = "H1"  // 1 hour
	H2  Granularity = "H2"  // 2 hours
	H3  Granularity = "H3"  // 3 hours
	H4  Granularity = "H4"  // 4 hours
	H6  Granularity = "H6"  // 6 hours
	H8  Granularity = "H8"  // 8 hours
	H12 Granularity = "H12" // 12 hours
	D   Granularity = "D"   // 1 day
	W   Granularity = "W"   // 1 week
)

var granularities = map[time.Duration]Granularity{
	5 * time.Second:    S5,
	10 * time.Second:   S10,
	15 * time.Second:   S15,
	30 * time.Second:   S30,
	time.Minute:        M1,
	2 * time.Minute:    M2,
	4 * time.Minute:    M4,
	5 * time.Minute:    M5,
	10 * time.Minute:   M10,
	15 * time.Minute:   M15,
	30 * time.Minute:   M30,
	time.Hour:          H1,
	2 * time.Hour:      H2,
	3 * time.Hour:      H3,
	4 * time.Hour:      H4,
	6 * time.Hour:      H6,
	8 * time.Hour:      H8,
	12 * time.Hour:     H12,
	24 * time.Hour:     D,
	7 * 24 * time.Hour: W,
}

// GranularityFor maps a bar length to the matching OANDA granularity.
func GranularityFor(d time.Duration) (Granularity, error) {
	g, ok := granularities[d]
	if !ok {
		return "", fmt.Errorf("oanda: no granularity for bar size %s", d)
	}
	return g, nil
}

// PriceComponent represents the price component for candles
type PriceComponent string

const (
	MidPrice PriceComponent = "M" // Midpoint candles
	BidPrice PriceComponent = "B" // Bid candles
	AskPrice PriceComponent = "A" // Ask candles
)

// PriceComponentFor maps a what-to-show kind to a candle price component.
func PriceComponentFor(whatToShow string) (PriceComponent, error) {
	switch strings.ToUpper(whatToShow) {
	case "MIDPOINT":
		return MidPrice, nil
	case "BID":
		return BidPrice, nil
	case "ASK":
		return AskPrice, nil
	}
	return "", fmt.Errorf("oanda: %s data is not available", whatToShow)
}

// Config holds what is needed to talk to one OANDA account.
type Config struct {
	Env       string // practice or live
	Token     string
	AccountID string
	ClientID  int64
	Timeout   time.Duration
}

// Client represents an OANDA API client
type Client struct {
	baseURL    string
	token      string
	accountID  string
	clientID   int64
	httpClient *http.Client
	zones      map[string]*time.Location
	now        func() time.Time
}

// BaseURL returns the REST endpoint for env. Live trading is refused.
func BaseURL(env string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "practice", "demo", "":
		return PracticeURL, nil
	case "live":
		return "", errors.New("oanda: live trading is not allowed")
	default:
		return "", fmt.Errorf("unknown OANDA env %q (want practice|live)", env)
	}
}

// NewClient creates a new OANDA API client
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("oanda: missing token")
	}
	if cfg.AccountID == "" {
		return nil, errors.New("oanda: missing account id")
	}
	baseURL, err := BaseURL(cfg.Env)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:   baseURL,
		token:     cfg.Token,
		accountID: cfg.AccountID,
		clientID:  cfg.ClientID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// apiError is the error body returned by the v20 API.
type apiError struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
}

// do sends a request and returns the response when the status is 2xx.
// The caller closes the body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Datetime-Format", "RFC3339")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		msg := strings.TrimSpace(string(b))
		var ae apiError
		if json.Unmarshal(b, &ae) == nil && ae.ErrorMessage != "" {
			msg = ae.ErrorMessage
		}
		return nil, &StatusError{Status: resp.StatusCode, Message: msg}
	}
	return resp, nil
}

// CandlesRequest represents parameters for fetching historical candles
type CandlesRequest struct {
	Instrument  string         // Required: The instrument to fetch candles for (e.g., "EUR_USD")
	Price       PriceComponent // Price component (default: MidPrice)
	Granularity Granularity    // Candle granularity (default: S5)
	Count       int            // Number of candles (max 5000, mutually exclusive with From/To)
	From        *time.Time
	To          *time.Time
}

// candleData represents the OHLC data in the API response
type candleData struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

// apiCandle represents a single candle in the API response
type apiCandle struct {
	Complete bool       `json:"complete"`
	Volume   int        `json:"volume"`
	Time     string     `json:"time"`
	Mid      candleData `json:"mid,omitempty"`
	Bid      candleData `json:"bid,omitempty"`
	Ask      candleData `json:"ask,omitempty"`
}

// candlesResponse represents the API response for candles
type candlesResponse struct {
	Instrument  string      `json:"instrument"`
	Granularity string      `json:"granularity"`
	Candles     []apiCandle `json:"candles"`
}

// GetCandles fetches historical candles from OANDA
func (c *Client) GetCandles(ctx context.Context, req CandlesRequest) ([]market.Bar, error) {
	if req.Instrument == "" {
		return nil, fmt.Errorf("instrument is required")
	}

	params := url.Values{}
	if req.Price == "" {
		req.Price = MidPrice
	}
	params.Set("price", string(req.Price))

	if req.Granularity == "" {
		req.Granularity = S5
	}
	params.Set("granularity", string(req.Granularity))

	if req.Count > 0 {
		if req.Count > MaxCandles {
			return nil, fmt.Errorf("count cannot exceed %d", MaxCandles)
		}
		params.Set("count", strconv.Itoa(req.Count))
	} else {
		if req.From != nil {
			params.Set("from", req.From.UTC().Format(time.RFC3339))
		}
		if req.To != nil {
			params.Set("to", req.To.UTC().Format(time.RFC3339))
		}
	}

	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v3/instruments/%s/candles", req.Instrument), params, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var apiResp candlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	bars := make([]market.Bar, 0, len(apiResp.Candles))
	for _, ac := range apiResp.Candles {
		// Skip incomplete candles
		if !ac.Complete {
			continue
		}

		t, err := time.Parse(time.RFC3339, ac.Time)
		if err != nil {
			return nil, fmt.Errorf("parse time %s: %w", ac.Time, err)
		}

		var pd candleData
		switch req.Price {
		case BidPrice:
			pd = ac.Bid
		case AskPrice:
			pd = ac.Ask
		default:
			pd = ac.Mid
		}

		var ohlc [4]float64
		for i, s := range []string{pd.O, pd.H, pd.L, pd.C} {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("parse price %q: %w", s, err)
			}
			ohlc[i] = v
		}

		bars = append(bars, market.Bar{
			Time:   t.UTC(),
			Open:   ohlc[0],
			High:   ohlc[1],
			Low:    ohlc[2],
			Close:  ohlc[3],
			Volume: float64(ac.Volume),
		})
	}

	return bars, nil
}
