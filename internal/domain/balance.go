package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountBalance maps ISO currency codes to cash amounts. Absent currencies
// count as zero, so the zero AccountBalance is the additive identity.
type AccountBalance struct {
	Cash map[string]decimal.Decimal
}

// NewAccountBalance copies cash into a new balance, normalizing currency
// codes to upper case and rejecting unknown ones. Amounts for codes that
// normalize to the same currency are summed.
func NewAccountBalance(cash map[string]decimal.Decimal) (AccountBalance, error) {
	out := make(map[string]decimal.Decimal, len(cash))
	for code, amount := range cash {
		norm := strings.ToUpper(strings.TrimSpace(code))
		if !ValidCurrency(norm) {
			return AccountBalance{}, fmt.Errorf("balance: %w %q", ErrUnknownCurrency, code)
		}
		out[norm] = out[norm].Add(amount)
	}
	return AccountBalance{Cash: out}, nil
}

// Add returns the per-currency sum of b and o. Neither operand is modified.
// It panics if either side holds a code that is not a known currency, which
// can only happen when a balance was built without NewAccountBalance.
func (b AccountBalance) Add(o AccountBalance) AccountBalance {
	out := make(map[string]decimal.Decimal, len(b.Cash)+len(o.Cash))
	for _, side := range []map[string]decimal.Decimal{b.Cash, o.Cash} {
		for code, amount := range side {
			if !ValidCurrency(code) {
				panic(fmt.Sprintf("domain: malformed balance currency %q", code))
			}
			out[code] = out[code].Add(amount)
		}
	}
	return AccountBalance{Cash: out}
}

// Amount returns the cash held in currency, zero if absent.
func (b AccountBalance) Amount(currency string) decimal.Decimal {
	return b.Cash[currency]
}

// Currencies returns the currency codes with a non-zero amount, sorted.
func (b AccountBalance) Currencies() []string {
	codes := make([]string, 0, len(b.Cash))
	for code, amount := range b.Cash {
		if !amount.IsZero() {
			codes = append(codes, code)
		}
	}
	slices.Sort(codes)
	return codes
}

// Equal compares balances currency by currency, treating absent as zero.
func (b AccountBalance) Equal(o AccountBalance) bool {
	keys := slices.Collect(maps.Keys(b.Cash))
	keys = slices.AppendSeq(keys, maps.Keys(o.Cash))
	for _, code := range keys {
		if !b.Cash[code].Equal(o.Cash[code]) {
			return false
		}
	}
	return true
}

func (b AccountBalance) String() string {
	codes := b.Currencies()
	if len(codes) == 0 {
		return "{}"
	}
	parts := make([]string, len(codes))
	for i, code := range codes {
		parts[i] = formatAmount(b.Cash[code], code)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
