package market

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedPair is returned when a currency pair does not split into
// exactly two non-empty tokens.
var ErrMalformedPair = errors.New("malformed currency pair")

// PairSeparator separates base and quote in a pair such as "AUD.CAD".
const PairSeparator = "."

// Contract describes a tradable instrument as the broker sees it.
type Contract struct {
	Symbol   string `json:"symbol"`
	SecType  string `json:"sec_type"`
	Currency string `json:"currency"`
	Exchange string `json:"exchange"`

	// PrimaryExchange is nil unless the operator supplied one.
	PrimaryExchange *string `json:"primary_exchange,omitempty"`

	// InstrumentID is assigned by the broker; zero means unresolved.
	InstrumentID int64 `json:"instrument_id,omitempty"`
}

// Pair renders the contract as BASE.QUOTE.
func (c Contract) Pair() string {
	return c.Symbol + PairSeparator + c.Currency
}

// Resolved reports whether the broker has assigned an instrument ID.
func (c Contract) Resolved() bool {
	return c.InstrumentID != 0
}

// ParsePair builds a contract from a "BASE.QUOTE" string. secType and
// exchange are copied onto the result.
func ParsePair(pair, secType, exchange string) (Contract, error) {
	parts := strings.Split(pair, PairSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Contract{}, fmt.Errorf("%w: %q", ErrMalformedPair, pair)
	}
	return Contract{
		Symbol:   parts[0],
		SecType:  secType,
		Currency: parts[1],
		Exchange: exchange,
	}, nil
}

// ContractFields are the discrete contract inputs of the trade form.
type ContractFields struct {
	Symbol          string
	SecType         string
	Currency        string
	Exchange        string
	PrimaryExchange string
}

// NewContract copies the fields verbatim. PrimaryExchange stays nil when
// the operator left it empty.
func NewContract(f ContractFields) Contract {
	c := Contract{
		Symbol:   f.Symbol,
		SecType:  f.SecType,
		Currency: f.Currency,
		Exchange: f.Exchange,
	}
	if f.PrimaryExchange != "" {
		pe := f.PrimaryExchange
		c.PrimaryExchange = &pe
	}
	return c
}
