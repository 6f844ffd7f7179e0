package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Compile-time interface check.
var _ StatementReader = (*CSVStore)(nil)

// CSVStore reads a statement exported as CSV files with a header row. Column
// names match the parquet field names (symbol, kind, currency, ...) and are
// matched case-insensitively; unknown columns are ignored.
type CSVStore struct {
	PositionsPath string
	ActivityPath  string
	BalancesPath  string
}

// NewCSVStore creates a CSVStore over the given files.
func NewCSVStore(positions, activity, balances string) *CSVStore {
	return &CSVStore{
		PositionsPath: positions,
		ActivityPath:  activity,
		BalancesPath:  balances,
	}
}

// ReadPositions reads the positions CSV.
func (s *CSVStore) ReadPositions(_ context.Context) ([]PositionRecord, error) {
	rows, err := readCSVRows(s.PositionsPath, "symbol", "quantity")
	if err != nil {
		return nil, err
	}
	out := make([]PositionRecord, len(rows))
	for i, r := range rows {
		out[i] = PositionRecord{
			Symbol:    r["symbol"],
			Kind:      r["kind"],
			Currency:  r["currency"],
			Quantity:  r["quantity"],
			CostBasis: r["cost_basis"],
		}
	}
	return out, nil
}

// ReadActivity reads the activity CSV.
func (s *CSVStore) ReadActivity(_ context.Context) ([]ActivityRecord, error) {
	rows, err := readCSVRows(s.ActivityPath, "date", "kind")
	if err != nil {
		return nil, err
	}
	out := make([]ActivityRecord, len(rows))
	for i, r := range rows {
		out[i] = ActivityRecord{
			ID:          r["id"],
			Date:        r["date"],
			Kind:        r["kind"],
			Symbol:      r["symbol"],
			AssetKind:   r["asset_kind"],
			Currency:    r["currency"],
			Quantity:    r["quantity"],
			Price:       r["price"],
			Amount:      r["amount"],
			Description: r["description"],
		}
	}
	return out, nil
}

// ReadBalances reads the balances CSV.
func (s *CSVStore) ReadBalances(_ context.Context) ([]BalanceRecord, error) {
	rows, err := readCSVRows(s.BalancesPath, "currency", "amount")
	if err != nil {
		return nil, err
	}
	out := make([]BalanceRecord, len(rows))
	for i, r := range rows {
		out[i] = BalanceRecord{Currency: r["currency"], Amount: r["amount"]}
	}
	return out, nil
}

// readCSVRows reads path into one map per data row, keyed by lower-cased
// header name. Rows may be short; missing cells read as "". The header must
// contain every required column.
func readCSVRows(path string, required ...string) ([]map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := make([]string, len(records[0]))
	present := make(map[string]bool, len(header))
	for i, h := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
		present[header[i]] = true
	}
	for _, col := range required {
		if !present[col] {
			return nil, fmt.Errorf("CSV %s: missing column %q", path, col)
		}
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
