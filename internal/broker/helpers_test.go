package broker

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"bankroll/internal/domain"
)

func instrument(symbol string) domain.Instrument {
	return domain.Instrument{Kind: domain.KindStock, Symbol: symbol, Currency: "USD"}
}

func position(symbol string, qty int64) domain.Position {
	return domain.Position{
		Instrument: instrument(symbol),
		Quantity:   decimal.NewFromInt(qty),
		CostBasis:  domain.Money{Amount: decimal.NewFromInt(qty * 10), Currency: "USD"},
	}
}

func balance(t *testing.T, cash map[string]int64) domain.AccountBalance {
	t.Helper()
	m := make(map[string]decimal.Decimal, len(cash))
	for k, v := range cash {
		m[k] = decimal.NewFromInt(v)
	}
	b, err := domain.NewAccountBalance(m)
	if err != nil {
		t.Fatalf("NewAccountBalance: %v", err)
	}
	return b
}

func activity(id string) domain.Activity {
	return domain.Activity{ID: id, Kind: domain.ActivityOther, Description: "activity " + id}
}

// randomAccounts builds n StaticAccounts with overlapping instruments,
// repeated activity and multi-currency balances.
func randomAccounts(t *testing.T, rng *rand.Rand, n int) []AccountData {
	t.Helper()
	symbols := []string{"AAPL", "MSFT", "VTI", "BND"}
	currencies := []string{"USD", "EUR", "GBP"}

	accounts := make([]AccountData, n)
	for i := range accounts {
		var ps []domain.Position
		for j := rng.Intn(5); j > 0; j-- {
			ps = append(ps, position(symbols[rng.Intn(len(symbols))], int64(rng.Intn(100)-20)))
		}
		var as []domain.Activity
		for j := rng.Intn(4); j > 0; j-- {
			as = append(as, activity(fmt.Sprintf("%d", rng.Intn(3))))
		}
		cash := make(map[string]int64)
		for j := rng.Intn(3); j > 0; j-- {
			cash[currencies[rng.Intn(len(currencies))]] += int64(rng.Intn(1000))
		}
		accounts[i] = NewStaticAccount(ps, as, balance(t, cash))
	}
	return accounts
}

// failingAccount returns err from every query.
type failingAccount struct{ err error }

func (f failingAccount) Positions(context.Context) ([]domain.Position, error) { return nil, f.err }
func (f failingAccount) Activity(context.Context) ([]domain.Activity, error)  { return nil, f.err }
func (f failingAccount) Balance(context.Context) (domain.AccountBalance, error) {
	return domain.AccountBalance{}, f.err
}
