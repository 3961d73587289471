package market

// InstrumentMeta is static metadata for an FX pair.
type InstrumentMeta struct {
	Name                string
	BaseCurrency        string
	QuoteCurrency       string
	PipLocation         int
	DisplayPrecision    int
	TradeUnitsPrecision int
	MinimumTradeSize    float64
}

// Instruments is keyed by BASE.QUOTE.
var Instruments = map[string]InstrumentMeta{
	"EUR.USD": fx("EUR", "USD", -4, 5),
	"GBP.USD": fx("GBP", "USD", -4, 5),
	"AUD.USD": fx("AUD", "USD", -4, 5),
	"NZD.USD": fx("NZD", "USD", -4, 5),
	"USD.CAD": fx("USD", "CAD", -4, 5),
	"USD.CHF": fx("USD", "CHF", -4, 5),
	"USD.JPY": fx("USD", "JPY", -2, 3),
	"EUR.GBP": fx("EUR", "GBP", -4, 5),
	"EUR.JPY": fx("EUR", "JPY", -2, 3),
	"AUD.CAD": fx("AUD", "CAD", -4, 5),
	"AUD.JPY": fx("AUD", "JPY", -2, 3),
	"GBP.JPY": fx("GBP", "JPY", -2, 3),
}

func fx(base, quote string, pipLocation, precision int) InstrumentMeta {
	return InstrumentMeta{
		Name:                base + PairSeparator + quote,
		BaseCurrency:        base,
		QuoteCurrency:       quote,
		PipLocation:         pipLocation,
		DisplayPrecision:    precision,
		TradeUnitsPrecision: 0,
		MinimumTradeSize:    1,
	}
}

// LookupInstrument finds metadata for the contract's symbol and currency.
func LookupInstrument(c Contract) (InstrumentMeta, bool) {
	m, ok := Instruments[c.Pair()]
	return m, ok
}
