package domain

import (
	"errors"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
)

func mustInstrument(t *testing.T, kind AssetKind, symbol, currency string) Instrument {
	t.Helper()
	inst, err := NewInstrument(kind, symbol, currency)
	if err != nil {
		t.Fatalf("NewInstrument(%q, %q, %q): %v", kind, symbol, currency, err)
	}
	return inst
}

func TestNewInstrumentNormalizes(t *testing.T) {
	inst := mustInstrument(t, KindStock, " aapl ", "usd")
	if inst.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want %q", inst.Symbol, "AAPL")
	}
	if inst.Currency != "USD" {
		t.Errorf("Currency = %q, want %q", inst.Currency, "USD")
	}
	if inst != (Instrument{Kind: KindStock, Symbol: "AAPL", Currency: "USD"}) {
		t.Errorf("normalized instrument %v is not equal to its literal form", inst)
	}
}

func TestNewInstrumentRejects(t *testing.T) {
	if _, err := NewInstrument(KindStock, "", "USD"); err == nil {
		t.Error("NewInstrument with empty symbol returned nil error")
	}
	_, err := NewInstrument(KindStock, "AAPL", "XXZ")
	if !errors.Is(err, ErrUnknownCurrency) {
		t.Errorf("NewInstrument with bad currency error = %v, want ErrUnknownCurrency", err)
	}
}

func TestInstrumentCompareIsTotalOrder(t *testing.T) {
	insts := []Instrument{
		{Kind: KindStock, Symbol: "MSFT", Currency: "USD"},
		{Kind: KindBond, Symbol: "US10Y", Currency: "USD"},
		{Kind: KindStock, Symbol: "AAPL", Currency: "USD"},
		{Kind: KindStock, Symbol: "AAPL", Currency: "EUR"},
	}
	slices.SortFunc(insts, Instrument.Compare)

	want := []Instrument{
		{Kind: KindBond, Symbol: "US10Y", Currency: "USD"},
		{Kind: KindStock, Symbol: "AAPL", Currency: "EUR"},
		{Kind: KindStock, Symbol: "AAPL", Currency: "USD"},
		{Kind: KindStock, Symbol: "MSFT", Currency: "USD"},
	}
	if !slices.Equal(insts, want) {
		t.Errorf("sorted = %v, want %v", insts, want)
	}

	for _, a := range insts {
		for _, b := range insts {
			if (a.Compare(b) == 0) != (a == b) {
				t.Errorf("Compare(%v, %v) = %d disagrees with ==", a, b, a.Compare(b))
			}
			if a.Compare(b) != -b.Compare(a) {
				t.Errorf("Compare(%v, %v) is not antisymmetric", a, b)
			}
		}
	}
}

func TestParseAssetKind(t *testing.T) {
	tests := []struct {
		in   string
		want AssetKind
	}{
		{"stock", KindStock},
		{"US_EQUITY", KindStock},
		{" Crypto ", KindCrypto},
		{"mutual_fund", KindFund},
	}
	for _, tt := range tests {
		got, err := ParseAssetKind(tt.in)
		if err != nil {
			t.Errorf("ParseAssetKind(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAssetKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if _, err := ParseAssetKind("tulips"); err == nil {
		t.Error("ParseAssetKind(tulips) returned nil error")
	}
}

func TestPositionAdd(t *testing.T) {
	x := mustInstrument(t, KindStock, "X", "USD")
	a := Position{Instrument: x, Quantity: decimal.NewFromInt(10), CostBasis: Money{Amount: decimal.NewFromInt(1000), Currency: "USD"}}
	b := Position{Instrument: x, Quantity: decimal.NewFromInt(5), CostBasis: Money{Amount: decimal.NewFromInt(600), Currency: "USD"}}

	sum := a.Add(b)
	if !sum.Quantity.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Quantity = %s, want 15", sum.Quantity)
	}
	if !sum.CostBasis.Equal(Money{Amount: decimal.NewFromInt(1600), Currency: "USD"}) {
		t.Errorf("CostBasis = %v, want $1,600.00", sum.CostBasis)
	}
	if !sum.Equal(b.Add(a)) {
		t.Error("Position.Add is not commutative")
	}
	if !a.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Error("Position.Add mutated its receiver")
	}
}

func TestPositionAddMismatchPanics(t *testing.T) {
	a := Position{Instrument: mustInstrument(t, KindStock, "X", "USD"), Quantity: decimal.NewFromInt(1)}
	b := Position{Instrument: mustInstrument(t, KindStock, "Y", "USD"), Quantity: decimal.NewFromInt(1)}

	defer func() {
		if recover() == nil {
			t.Error("adding positions in different instruments did not panic")
		}
	}()
	a.Add(b)
}

func TestMoneyAddWeakCurrency(t *testing.T) {
	usd := Money{Amount: decimal.NewFromInt(3), Currency: "USD"}
	got := Money{}.Add(usd)
	if !got.Equal(usd) {
		t.Errorf("zero + %v = %v, want %v", usd, got, usd)
	}

	defer func() {
		if recover() == nil {
			t.Error("adding USD to EUR did not panic")
		}
	}()
	usd.Add(Money{Amount: decimal.NewFromInt(1), Currency: "EUR"})
}

func TestMoneyString(t *testing.T) {
	m := Money{Amount: decimal.RequireFromString("1234.567"), Currency: "USD"}
	if got := m.String(); got != "$1,234.57" {
		t.Errorf("String() = %q, want %q", got, "$1,234.57")
	}
	if got := (Money{Amount: decimal.NewFromInt(7)}).String(); got != "7" {
		t.Errorf("String() without currency = %q, want %q", got, "7")
	}
}

func TestActivityEqual(t *testing.T) {
	x := mustInstrument(t, KindStock, "X", "USD")
	y := x
	a := Activity{ID: "1", Kind: ActivityTrade, Instrument: &x, Quantity: decimal.NewFromInt(2)}
	b := Activity{ID: "1", Kind: ActivityTrade, Instrument: &y, Quantity: decimal.RequireFromString("2.0")}
	if !a.Equal(b) {
		t.Errorf("%v should equal %v", a, b)
	}

	c := b
	c.Instrument = nil
	if a.Equal(c) {
		t.Error("activity with instrument equals activity without one")
	}
}
