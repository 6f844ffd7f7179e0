package statement

import (
	"log/slog"

	"bankroll/internal/broker"
	"bankroll/internal/settings"
	"bankroll/internal/store"
)

// CSVSettings locates a statement exported as CSV files with a header row.
type CSVSettings struct {
	Positions string `setting:"Positions CSV" validate:"omitempty,file"`
	Activity  string `setting:"Activity CSV" validate:"omitempty,file"`
	Balances  string `setting:"Balances CSV" validate:"omitempty,file"`
}

func (*CSVSettings) SectionName() string { return "CSV statement" }

// CSVAccount is a statement read from CSV files.
type CSVAccount struct {
	*Account
	Store *store.CSVStore
}

// SourceName returns "statement-csv".
func (*CSVAccount) SourceName() string { return "statement-csv" }

func init() {
	broker.Register("statement-csv", &CSVSettings{}, NewCSVFromSettings)
}

// NewCSVFromSettings builds a CSVAccount from the CSV statement section.
func NewCSVFromSettings(s settings.Map, lenient bool) (broker.AccountData, bool, error) {
	var cfg CSVSettings
	configured, err := settings.Decode(s, &cfg)
	if err != nil || !configured {
		return nil, configured, err
	}
	cs := store.NewCSVStore(cfg.Positions, cfg.Activity, cfg.Balances)
	log := slog.Default().With("source", "statement-csv")
	return &CSVAccount{Account: NewAccount(cs, lenient, log), Store: cs}, true, nil
}
