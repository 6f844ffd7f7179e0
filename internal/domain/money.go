package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency is returned when a currency code is not an ISO 4217
// code known to go-money.
var ErrUnknownCurrency = errors.New("unknown currency")

// ValidCurrency reports whether code is a known ISO 4217 currency code.
func ValidCurrency(code string) bool {
	return code != "" && money.GetCurrency(code) != nil
}

// Money is an exact amount in one currency. The zero Money has no currency
// and adds to anything.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// NewMoney validates the currency and returns the amount as Money.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !ValidCurrency(currency) {
		return Money{}, fmt.Errorf("%w %q", ErrUnknownCurrency, currency)
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// Add sums two amounts. An empty currency on either side is weak and takes
// the other side's currency; two different currencies panic.
func (m Money) Add(n Money) Money {
	return Money{Amount: m.Amount.Add(n.Amount), Currency: weakCurrency(m, n)}
}

func (m Money) IsZero() bool { return m.Amount.IsZero() }

func (m Money) Equal(n Money) bool {
	return m.Amount.Equal(n.Amount) && m.Currency == n.Currency
}

// String formats the amount with the currency's symbol and fraction digits.
func (m Money) String() string {
	return formatAmount(m.Amount, m.Currency)
}

func weakCurrency(a, b Money) string {
	if a.Currency == "" {
		return b.Currency
	}
	if b.Currency == "" {
		return a.Currency
	}
	if a.Currency != b.Currency {
		panic("domain: currency mismatch " + a.Currency + " != " + b.Currency)
	}
	return a.Currency
}

func formatAmount(amount decimal.Decimal, code string) string {
	if code == "" {
		return amount.String()
	}
	// money.New never returns a nil currency, even for unknown codes.
	cur := money.New(0, code).Currency()
	minor := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}
