// Package domain defines the core value types shared across bankroll: the
// instruments held in brokerage accounts, positions, historical activity,
// cash balances, and market data.
package domain

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AssetKind classifies a tradable instrument.
type AssetKind string

const (
	KindStock  AssetKind = "stock"
	KindBond   AssetKind = "bond"
	KindOption AssetKind = "option"
	KindFuture AssetKind = "future"
	KindForex  AssetKind = "forex"
	KindFund   AssetKind = "fund"
	KindCrypto AssetKind = "crypto"
	KindCash   AssetKind = "cash"
)

var assetKinds = []AssetKind{
	KindStock, KindBond, KindOption, KindFuture, KindForex, KindFund, KindCrypto, KindCash,
}

// ParseAssetKind maps a case-insensitive name to an AssetKind. Broker
// spellings such as "us_equity" and "equity" are accepted for stocks.
func ParseAssetKind(s string) (AssetKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "us_equity", "equity", "etf":
		return KindStock, nil
	case "mutual_fund":
		return KindFund, nil
	}
	for _, k := range assetKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown asset kind %q", s)
}

// ---------------------------------------------------------------------------
// Instrument
// ---------------------------------------------------------------------------

// Instrument identifies a tradable asset. Two sources reporting the same
// asset must produce equal Instruments; the struct is comparable and can be
// used as a map key.
type Instrument struct {
	Kind     AssetKind
	Symbol   string
	Currency string
}

// NewInstrument returns an Instrument with a normalized symbol and currency.
func NewInstrument(kind AssetKind, symbol, currency string) (Instrument, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Instrument{}, fmt.Errorf("instrument symbol is empty")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !ValidCurrency(currency) {
		return Instrument{}, fmt.Errorf("instrument %s: %w %q", symbol, ErrUnknownCurrency, currency)
	}
	return Instrument{Kind: kind, Symbol: symbol, Currency: currency}, nil
}

// Compare orders instruments by kind, then symbol, then currency. It returns
// -1, 0 or +1 and is zero exactly when the instruments are equal.
func (i Instrument) Compare(o Instrument) int {
	if c := cmp.Compare(i.Kind, o.Kind); c != 0 {
		return c
	}
	if c := cmp.Compare(i.Symbol, o.Symbol); c != 0 {
		return c
	}
	return cmp.Compare(i.Currency, o.Currency)
}

func (i Instrument) String() string {
	return fmt.Sprintf("%s (%s, %s)", i.Symbol, i.Kind, i.Currency)
}

// ---------------------------------------------------------------------------
// Position
// ---------------------------------------------------------------------------

// Position is a holding of some quantity of one instrument.
type Position struct {
	Instrument Instrument
	Quantity   decimal.Decimal
	CostBasis  Money
}

// Add combines two holdings of the same instrument. It panics if the
// instruments differ.
func (p Position) Add(o Position) Position {
	if p.Instrument != o.Instrument {
		panic(fmt.Sprintf("domain: cannot add positions in %v and %v", p.Instrument, o.Instrument))
	}
	return Position{
		Instrument: p.Instrument,
		Quantity:   p.Quantity.Add(o.Quantity),
		CostBasis:  p.CostBasis.Add(o.CostBasis),
	}
}

// Equal reports whether both positions hold the same quantity of the same
// instrument at the same cost basis.
func (p Position) Equal(o Position) bool {
	return p.Instrument == o.Instrument &&
		p.Quantity.Equal(o.Quantity) &&
		p.CostBasis.Equal(o.CostBasis)
}

func (p Position) String() string {
	return fmt.Sprintf("%s x %s @ %s", p.Instrument.Symbol, p.Quantity, p.CostBasis)
}

// ---------------------------------------------------------------------------
// Activity
// ---------------------------------------------------------------------------

// ActivityKind classifies a historical account event.
type ActivityKind string

const (
	ActivityTrade    ActivityKind = "trade"
	ActivityDividend ActivityKind = "dividend"
	ActivityInterest ActivityKind = "interest"
	ActivityFee      ActivityKind = "fee"
	ActivityTransfer ActivityKind = "transfer"
	ActivityTax      ActivityKind = "tax"
	ActivityOther    ActivityKind = "other"
)

var activityKinds = []ActivityKind{
	ActivityTrade, ActivityDividend, ActivityInterest, ActivityFee,
	ActivityTransfer, ActivityTax, ActivityOther,
}

// ParseActivityKind maps a case-insensitive name to an ActivityKind.
func ParseActivityKind(s string) (ActivityKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range activityKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown activity kind %q", s)
}

// Activity is one historical account event. Activity values are never
// merged; Equal exists for membership checks only.
type Activity struct {
	ID          string
	Date        time.Time
	Kind        ActivityKind
	Instrument  *Instrument // nil for cash-only events
	Quantity    decimal.Decimal
	Price       Money
	Amount      Money
	Description string
}

// Equal reports whether a and b describe the same event.
func (a Activity) Equal(b Activity) bool {
	if (a.Instrument == nil) != (b.Instrument == nil) {
		return false
	}
	if a.Instrument != nil && *a.Instrument != *b.Instrument {
		return false
	}
	return a.ID == b.ID &&
		a.Date.Equal(b.Date) &&
		a.Kind == b.Kind &&
		a.Quantity.Equal(b.Quantity) &&
		a.Price.Equal(b.Price) &&
		a.Amount.Equal(b.Amount) &&
		a.Description == b.Description
}

func (a Activity) String() string {
	sym := "-"
	if a.Instrument != nil {
		sym = a.Instrument.Symbol
	}
	return fmt.Sprintf("%s %s %s %s", a.Date.Format("2006-01-02"), a.Kind, sym, a.Amount)
}

// ---------------------------------------------------------------------------
// Market data
// ---------------------------------------------------------------------------

// Quote is a top-of-book snapshot for one instrument.
type Quote struct {
	Bid       float64
	Ask       float64
	BidSize   int64
	AskSize   int64
	Timestamp time.Time
}

// Mid returns the midpoint between bid and ask, or whichever side is
// non-zero when the other is missing.
func (q Quote) Mid() float64 {
	switch {
	case q.Bid == 0:
		return q.Ask
	case q.Ask == 0:
		return q.Bid
	default:
		return (q.Bid + q.Ask) / 2
	}
}

// Bar represents one OHLCV candle.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}
