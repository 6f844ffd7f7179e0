package broker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"bankroll/internal/domain"
)

// Compile-time interface checks.
var _ Composite = (*Aggregator)(nil)
var _ MarketDataSource = (*Aggregator)(nil)

// Aggregator combines several AccountData sources into one. Every query is
// recomputed from the underlying sources; the Aggregator caches nothing
// itself.
type Aggregator struct {
	accounts []AccountData
	lenient  bool
}

// NewAggregator creates an Aggregator over a copy of accounts. lenient
// records the policy the sources were built with.
func NewAggregator(accounts []AccountData, lenient bool) *Aggregator {
	return &Aggregator{
		accounts: slices.Clone(accounts),
		lenient:  lenient,
	}
}

// Accounts returns the contained sources in order.
func (a *Aggregator) Accounts() []AccountData {
	return slices.Clone(a.accounts)
}

// Lenient reports the leniency the Aggregator was built with.
func (a *Aggregator) Lenient() bool {
	return a.lenient
}

// Positions gathers every source's positions and merges those in equal
// instruments into one Position each. The result is sorted by instrument.
func (a *Aggregator) Positions(ctx context.Context) ([]domain.Position, error) {
	var all []domain.Position
	for i, acct := range a.accounts {
		ps, err := acct.Positions(ctx)
		if err != nil {
			return nil, fmt.Errorf("account %d (%T) positions: %w", i, acct, err)
		}
		all = append(all, ps...)
	}
	return mergePositions(all), nil
}

// mergePositions sorts positions by instrument and folds each run of equal
// instruments with Position.Add.
func mergePositions(positions []domain.Position) []domain.Position {
	sorted := slices.Clone(positions)
	slices.SortStableFunc(sorted, func(x, y domain.Position) int {
		return x.Instrument.Compare(y.Instrument)
	})

	var merged []domain.Position
	for _, p := range sorted {
		if n := len(merged); n > 0 && merged[n-1].Instrument == p.Instrument {
			merged[n-1] = merged[n-1].Add(p)
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

// Activity concatenates the activity of every source in source order.
func (a *Aggregator) Activity(ctx context.Context) ([]domain.Activity, error) {
	var all []domain.Activity
	for i, acct := range a.accounts {
		as, err := acct.Activity(ctx)
		if err != nil {
			return nil, fmt.Errorf("account %d (%T) activity: %w", i, acct, err)
		}
		all = append(all, as...)
	}
	return all, nil
}

// Balance sums the balances of every source.
func (a *Aggregator) Balance(ctx context.Context) (domain.AccountBalance, error) {
	total := domain.AccountBalance{}
	for i, acct := range a.accounts {
		b, err := acct.Balance(ctx)
		if err != nil {
			return domain.AccountBalance{}, fmt.Errorf("account %d (%T) balance: %w", i, acct, err)
		}
		total = total.Add(b)
	}
	return total, nil
}

// MarketData returns the first market data provider offered by a contained
// source, or nil if none offers one.
func (a *Aggregator) MarketData() MarketDataProvider {
	for _, acct := range a.accounts {
		if p := MarketDataOf(acct); p != nil {
			return p
		}
	}
	return nil
}

// Close closes every contained source that holds resources, such as an open
// database, and returns the joined errors.
func (a *Aggregator) Close() error {
	var errs []error
	for i, acct := range a.accounts {
		if c, ok := acct.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("account %d (%T) close: %w", i, acct, err))
			}
		}
	}
	return errors.Join(errs...)
}
