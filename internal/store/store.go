// Package store reads raw account records from the places brokerage data is
// kept on disk: Parquet and CSV statement exports and a SQLite ledger.
// Records are kept as text so that malformed values surface when they are
// converted, one record at a time.
package store

import (
	"context"
)

// PositionRecord is one holding as stored.
type PositionRecord struct {
	Symbol    string `parquet:"symbol"`
	Kind      string `parquet:"kind"`
	Currency  string `parquet:"currency"`
	Quantity  string `parquet:"quantity"`
	CostBasis string `parquet:"cost_basis"`
}

// ActivityRecord is one historical event as stored. Date is either
// YYYY-MM-DD or RFC 3339. Symbol is empty for cash-only events.
type ActivityRecord struct {
	ID          string `parquet:"id"`
	Date        string `parquet:"date"`
	Kind        string `parquet:"kind"`
	Symbol      string `parquet:"symbol"`
	AssetKind   string `parquet:"asset_kind"`
	Currency    string `parquet:"currency"`
	Quantity    string `parquet:"quantity"`
	Price       string `parquet:"price"`
	Amount      string `parquet:"amount"`
	Description string `parquet:"description"`
}

// BalanceRecord is the cash held in one currency.
type BalanceRecord struct {
	Currency string `parquet:"currency"`
	Amount   string `parquet:"amount"`
}

// StatementReader reads the raw records of one account statement. A reader
// with nothing to report for a record type returns an empty slice.
type StatementReader interface {
	ReadPositions(ctx context.Context) ([]PositionRecord, error)
	ReadActivity(ctx context.Context) ([]ActivityRecord, error)
	ReadBalances(ctx context.Context) ([]BalanceRecord, error)
}
