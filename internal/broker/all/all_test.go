package all

import (
	"slices"
	"testing"

	"bankroll/internal/broker"
	"bankroll/internal/settings"
)

func TestConnectorsRegistered(t *testing.T) {
	names := broker.DefaultRegistry.Names()
	for _, want := range []string{"alpaca", "ledger", "statement-csv", "statement-parquet"} {
		if !slices.Contains(names, want) {
			t.Errorf("%q not registered; have %v", want, names)
		}
	}
}

func TestNothingConfigured(t *testing.T) {
	agg, err := broker.FromSettings(settings.Map{}, false)
	if err != nil {
		t.Fatalf("FromSettings: %v", err)
	}
	if n := len(agg.Accounts()); n != 0 {
		t.Errorf("Accounts = %d, want 0", n)
	}
}
