// Package statement provides AccountData sources backed by exported account
// statements. Account holds the shared behaviour; the registered leaves read
// Parquet and CSV exports.
package statement

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bankroll/internal/broker"
	"bankroll/internal/domain"
	"bankroll/internal/store"
	"bankroll/internal/util"
)

// Compile-time interface check.
var _ broker.AccountData = (*Account)(nil)

// Account converts the raw records of a store.StatementReader into domain
// values. It is not registered itself; leaves embed it and supply the reader.
// Each record type is loaded once and memoized.
type Account struct {
	reader  store.StatementReader
	lenient bool
	log     *slog.Logger

	positions broker.Memo[[]domain.Position]
	activity  broker.Memo[[]domain.Activity]
	balance   broker.Memo[domain.AccountBalance]
}

// NewAccount creates an Account over r. A nil log means slog.Default().
func NewAccount(r store.StatementReader, lenient bool, log *slog.Logger) *Account {
	if log == nil {
		log = slog.Default()
	}
	return &Account{reader: r, lenient: lenient, log: log}
}

// Positions converts the statement's position records.
func (a *Account) Positions(ctx context.Context) ([]domain.Position, error) {
	out, err := a.positions.Get(ctx, func(ctx context.Context) ([]domain.Position, error) {
		recs, err := a.reader.ReadPositions(ctx)
		if err != nil {
			return nil, err
		}
		return util.CollectLenient(slices.Values(recs), PositionFromRecord, a.lenient, a.log)
	})
	return slices.Clone(out), err
}

// Activity converts the statement's activity records.
func (a *Account) Activity(ctx context.Context) ([]domain.Activity, error) {
	out, err := a.activity.Get(ctx, func(ctx context.Context) ([]domain.Activity, error) {
		recs, err := a.reader.ReadActivity(ctx)
		if err != nil {
			return nil, err
		}
		return util.CollectLenient(slices.Values(recs), ActivityFromRecord, a.lenient, a.log)
	})
	return slices.Clone(out), err
}

// Balance sums the statement's balance records. Several records in the same
// currency add up.
func (a *Account) Balance(ctx context.Context) (domain.AccountBalance, error) {
	b, err := a.balance.Get(ctx, func(ctx context.Context) (domain.AccountBalance, error) {
		recs, err := a.reader.ReadBalances(ctx)
		if err != nil {
			return domain.AccountBalance{}, err
		}
		parts, err := util.CollectLenient(slices.Values(recs), BalanceFromRecord, a.lenient, a.log)
		if err != nil {
			return domain.AccountBalance{}, err
		}
		total := domain.AccountBalance{}
		for _, p := range parts {
			total = total.Add(p)
		}
		return total, nil
	})
	return b.Add(domain.AccountBalance{}), err
}

// ---------------------------------------------------------------------------
// Record conversion
// ---------------------------------------------------------------------------

// PositionFromRecord converts one stored position. The asset kind defaults
// to stock and the currency to USD; an empty cost basis is zero.
func PositionFromRecord(r store.PositionRecord) (domain.Position, error) {
	inst, err := instrument(r.Kind, r.Symbol, r.Currency)
	if err != nil {
		return domain.Position{}, err
	}
	qty, err := parseDecimal("quantity", r.Quantity)
	if err != nil {
		return domain.Position{}, err
	}
	cost, err := optionalMoney("cost basis", r.CostBasis, inst.Currency)
	if err != nil {
		return domain.Position{}, err
	}
	return domain.Position{Instrument: inst, Quantity: qty, CostBasis: cost}, nil
}

// ActivityFromRecord converts one stored activity event.
func ActivityFromRecord(r store.ActivityRecord) (domain.Activity, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return domain.Activity{}, err
	}
	kind, err := domain.ParseActivityKind(r.Kind)
	if err != nil {
		return domain.Activity{}, err
	}
	currency := defaultCurrency(r.Currency)

	act := domain.Activity{ID: r.ID, Date: date, Kind: kind, Description: r.Description}
	if strings.TrimSpace(r.Symbol) != "" {
		inst, err := instrument(r.AssetKind, r.Symbol, currency)
		if err != nil {
			return domain.Activity{}, err
		}
		act.Instrument = &inst
	}
	if strings.TrimSpace(r.Quantity) != "" {
		if act.Quantity, err = parseDecimal("quantity", r.Quantity); err != nil {
			return domain.Activity{}, err
		}
	}
	if act.Price, err = optionalMoney("price", r.Price, currency); err != nil {
		return domain.Activity{}, err
	}
	if act.Amount, err = optionalMoney("amount", r.Amount, currency); err != nil {
		return domain.Activity{}, err
	}
	return act, nil
}

// BalanceFromRecord converts one stored cash balance.
func BalanceFromRecord(r store.BalanceRecord) (domain.AccountBalance, error) {
	amount, err := parseDecimal("amount", r.Amount)
	if err != nil {
		return domain.AccountBalance{}, err
	}
	return domain.NewAccountBalance(map[string]decimal.Decimal{r.Currency: amount})
}

// ParseDate accepts YYYY-MM-DD or RFC 3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func instrument(kind, symbol, currency string) (domain.Instrument, error) {
	k := domain.KindStock
	if strings.TrimSpace(kind) != "" {
		var err error
		if k, err = domain.ParseAssetKind(kind); err != nil {
			return domain.Instrument{}, err
		}
	}
	return domain.NewInstrument(k, symbol, defaultCurrency(currency))
}

func defaultCurrency(c string) string {
	if strings.TrimSpace(c) == "" {
		return "USD"
	}
	return c
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s %q", field, s)
	}
	return d, nil
}

func optionalMoney(field, s, currency string) (domain.Money, error) {
	if strings.TrimSpace(s) == "" {
		return domain.NewMoney(decimal.Zero, currency)
	}
	d, err := parseDecimal(field, s)
	if err != nil {
		return domain.Money{}, err
	}
	return domain.NewMoney(d, currency)
}

// RecordFromPosition is the inverse of PositionFromRecord.
func RecordFromPosition(p domain.Position) store.PositionRecord {
	return store.PositionRecord{
		Symbol:    p.Instrument.Symbol,
		Kind:      string(p.Instrument.Kind),
		Currency:  p.Instrument.Currency,
		Quantity:  p.Quantity.String(),
		CostBasis: p.CostBasis.Amount.String(),
	}
}

// RecordFromActivity is the inverse of ActivityFromRecord. Dates are written
// as RFC 3339.
func RecordFromActivity(a domain.Activity) store.ActivityRecord {
	r := store.ActivityRecord{
		ID:          a.ID,
		Date:        a.Date.Format(time.RFC3339),
		Kind:        string(a.Kind),
		Currency:    a.Amount.Currency,
		Quantity:    a.Quantity.String(),
		Price:       a.Price.Amount.String(),
		Amount:      a.Amount.Amount.String(),
		Description: a.Description,
	}
	if a.Instrument != nil {
		r.Symbol = a.Instrument.Symbol
		r.AssetKind = string(a.Instrument.Kind)
		r.Currency = a.Instrument.Currency
	}
	if r.Currency == "" {
		r.Currency = a.Price.Currency
	}
	return r
}

// RecordsFromBalance returns one record per non-zero currency, sorted by code.
func RecordsFromBalance(b domain.AccountBalance) []store.BalanceRecord {
	codes := b.Currencies()
	out := make([]store.BalanceRecord, len(codes))
	for i, code := range codes {
		out[i] = store.BalanceRecord{Currency: code, Amount: b.Amount(code).String()}
	}
	return out
}
