// Package broker defines the AccountData interface implemented by every
// brokerage-account data source, a registry that discovers and constructs
// the sources configured in a settings map, and the Aggregator that merges
// them into one view.
package broker

import (
	"context"
	"fmt"
	"time"

	"bankroll/internal/domain"
)

// AccountData offers data about one or more brokerage accounts, either from
// data handed to it (exported files, a ledger) or from a live connection.
//
// Implementations may fetch on the first call and are encouraged to memoize
// the result (see Memo).
type AccountData interface {
	// Positions returns the positions currently held. Order is unspecified.
	Positions(ctx context.Context) ([]domain.Position, error)

	// Activity returns historical account activity.
	Activity(ctx context.Context) ([]domain.Activity, error)

	// Balance returns the cash balances in the account.
	Balance(ctx context.Context) (domain.AccountBalance, error)
}

// Composite is implemented by AccountData values that are built from other
// AccountData values. Discovery never treats a Composite as a leaf source.
type Composite interface {
	AccountData
	Accounts() []AccountData
}

// InstrumentQuote pairs an instrument with its latest quote.
type InstrumentQuote struct {
	Instrument domain.Instrument
	Quote      domain.Quote
}

// MarketDataProvider looks up market data for instruments.
type MarketDataProvider interface {
	// FetchQuotes returns up-to-date quotes for the given instruments, in
	// any order. Instruments the provider does not know are omitted.
	FetchQuotes(ctx context.Context, instruments []domain.Instrument) ([]InstrumentQuote, error)

	// FetchHistory returns daily bars for one instrument since the given
	// time. Providers without history return an empty slice.
	FetchHistory(ctx context.Context, instrument domain.Instrument, since time.Time) ([]domain.Bar, error)
}

// MarketDataSource is implemented by AccountData sources that can also serve
// market data. MarketData may return nil when the source has none.
type MarketDataSource interface {
	MarketData() MarketDataProvider
}

// MarketDataOf returns the market data provider exposed by a, or nil.
func MarketDataOf(a AccountData) MarketDataProvider {
	if src, ok := a.(MarketDataSource); ok {
		return src.MarketData()
	}
	return nil
}

// Named is implemented by sources that report the registry name they were
// built under.
type Named interface {
	SourceName() string
}

// SourceName returns the registry name of a, or its Go type when a does not
// implement Named.
func SourceName(a AccountData) string {
	if n, ok := a.(Named); ok {
		return n.SourceName()
	}
	return fmt.Sprintf("%T", a)
}
