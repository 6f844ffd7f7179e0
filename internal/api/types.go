package api

import (
	"time"

	"github.com/shopspring/decimal"

	"bankroll/internal/broker"
	"bankroll/internal/domain"
)

// envelope wraps every response body.
type envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// InstrumentJSON is the JSON form of domain.Instrument.
type InstrumentJSON struct {
	Kind     string `json:"kind"`
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
}

// MoneyJSON is the JSON form of domain.Money. Amounts are decimal strings.
type MoneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
}

type PositionJSON struct {
	Instrument InstrumentJSON  `json:"instrument"`
	Quantity   decimal.Decimal `json:"quantity"`
	CostBasis  MoneyJSON       `json:"cost_basis"`
}

type ActivityJSON struct {
	ID          string          `json:"id,omitempty"`
	Date        time.Time       `json:"date"`
	Kind        string          `json:"kind"`
	Instrument  *InstrumentJSON `json:"instrument,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       MoneyJSON       `json:"price"`
	Amount      MoneyJSON       `json:"amount"`
	Description string          `json:"description,omitempty"`
}

type AccountJSON struct {
	Index      int    `json:"index"`
	Source     string `json:"source"`
	MarketData bool   `json:"market_data"`
}

type QuoteJSON struct {
	Instrument InstrumentJSON `json:"instrument"`
	Bid        float64        `json:"bid"`
	Ask        float64        `json:"ask"`
	Mid        float64        `json:"mid"`
	BidSize    int64          `json:"bid_size"`
	AskSize    int64          `json:"ask_size"`
	Timestamp  time.Time      `json:"timestamp"`
}

func convertInstrument(i domain.Instrument) InstrumentJSON {
	return InstrumentJSON{Kind: string(i.Kind), Symbol: i.Symbol, Currency: i.Currency}
}

func convertMoney(m domain.Money) MoneyJSON {
	return MoneyJSON{Amount: m.Amount, Currency: m.Currency}
}

func convertPosition(p domain.Position) PositionJSON {
	return PositionJSON{
		Instrument: convertInstrument(p.Instrument),
		Quantity:   p.Quantity,
		CostBasis:  convertMoney(p.CostBasis),
	}
}

func convertActivity(a domain.Activity) ActivityJSON {
	out := ActivityJSON{
		ID:          a.ID,
		Date:        a.Date,
		Kind:        string(a.Kind),
		Quantity:    a.Quantity,
		Price:       convertMoney(a.Price),
		Amount:      convertMoney(a.Amount),
		Description: a.Description,
	}
	if a.Instrument != nil {
		inst := convertInstrument(*a.Instrument)
		out.Instrument = &inst
	}
	return out
}

// convertBalance renders a balance as currency code to decimal string, with
// zero amounts omitted.
func convertBalance(b domain.AccountBalance) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, code := range b.Currencies() {
		out[code] = b.Amount(code)
	}
	return out
}

func convertQuote(q broker.InstrumentQuote) QuoteJSON {
	return QuoteJSON{
		Instrument: convertInstrument(q.Instrument),
		Bid:        q.Quote.Bid,
		Ask:        q.Quote.Ask,
		Mid:        q.Quote.Mid(),
		BidSize:    q.Quote.BidSize,
		AskSize:    q.Quote.AskSize,
		Timestamp:  q.Quote.Timestamp,
	}
}
