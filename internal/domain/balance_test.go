package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func mustBalance(t *testing.T, cash map[string]int64) AccountBalance {
	t.Helper()
	m := make(map[string]decimal.Decimal, len(cash))
	for k, v := range cash {
		m[k] = decimal.NewFromInt(v)
	}
	b, err := NewAccountBalance(m)
	if err != nil {
		t.Fatalf("NewAccountBalance(%v): %v", cash, err)
	}
	return b
}

func TestAccountBalanceAdd(t *testing.T) {
	a := mustBalance(t, map[string]int64{"USD": 100})
	b := mustBalance(t, map[string]int64{"USD": 50, "EUR": 20})

	got := a.Add(b)
	want := mustBalance(t, map[string]int64{"USD": 150, "EUR": 20})
	if !got.Equal(want) {
		t.Errorf("a + b = %v, want %v", got, want)
	}
	if !b.Add(a).Equal(want) {
		t.Errorf("b + a = %v, want %v", b.Add(a), want)
	}
	if !a.Amount("USD").Equal(decimal.NewFromInt(100)) {
		t.Error("Add mutated its receiver")
	}
}

func TestAccountBalanceIdentity(t *testing.T) {
	a := mustBalance(t, map[string]int64{"JPY": 1000})
	if got := (AccountBalance{}).Add(a); !got.Equal(a) {
		t.Errorf("empty + a = %v, want %v", got, a)
	}
	if got := a.Add(AccountBalance{}); !got.Equal(a) {
		t.Errorf("a + empty = %v, want %v", got, a)
	}
}

func TestAccountBalanceEqualTreatsAbsentAsZero(t *testing.T) {
	zero := mustBalance(t, map[string]int64{"USD": 0})
	if !zero.Equal(AccountBalance{}) {
		t.Error("{USD: 0} should equal the empty balance")
	}
	if len(zero.Currencies()) != 0 {
		t.Errorf("Currencies() = %v, want none", zero.Currencies())
	}
}

func TestNewAccountBalanceNormalizes(t *testing.T) {
	b, err := NewAccountBalance(map[string]decimal.Decimal{
		"usd": decimal.NewFromInt(1),
		"USD": decimal.NewFromInt(2),
	})
	if err != nil {
		t.Fatalf("NewAccountBalance: %v", err)
	}
	if !b.Amount("USD").Equal(decimal.NewFromInt(3)) {
		t.Errorf("Amount(USD) = %s, want 3", b.Amount("USD"))
	}

	_, err = NewAccountBalance(map[string]decimal.Decimal{"DOGE": decimal.NewFromInt(1)})
	if !errors.Is(err, ErrUnknownCurrency) {
		t.Errorf("error = %v, want ErrUnknownCurrency", err)
	}
}

func TestAccountBalanceAddMalformedPanics(t *testing.T) {
	bad := AccountBalance{Cash: map[string]decimal.Decimal{"not-a-currency": decimal.NewFromInt(1)}}
	defer func() {
		if recover() == nil {
			t.Error("adding a malformed balance did not panic")
		}
	}()
	bad.Add(AccountBalance{})
}

func TestAccountBalanceString(t *testing.T) {
	b := mustBalance(t, map[string]int64{"USD": 150, "EUR": 20})
	got := b.String()
	// EUR sorts before USD.
	if !strings.HasPrefix(got, "{") || !strings.HasSuffix(got, ", $150.00}") || !strings.Contains(got, "20.00") {
		t.Errorf("String() = %q, want EUR 20.00 then $150.00", got)
	}
}
