package statement

import (
	"log/slog"

	"bankroll/internal/broker"
	"bankroll/internal/settings"
	"bankroll/internal/store"
)

// ParquetSettings locates a statement exported as Parquet files.
type ParquetSettings struct {
	Positions string `setting:"Positions parquet" validate:"omitempty,file"`
	Activity  string `setting:"Activity parquet" validate:"omitempty,file"`
	Balances  string `setting:"Balances parquet" validate:"omitempty,file"`
}

func (*ParquetSettings) SectionName() string { return "Statement" }

// ParquetAccount is a statement read from Parquet files.
type ParquetAccount struct {
	*Account
	Store *store.ParquetStore
}

// SourceName returns "statement-parquet".
func (*ParquetAccount) SourceName() string { return "statement-parquet" }

func init() {
	broker.Register("statement-parquet", &ParquetSettings{}, NewParquetFromSettings)
}

// NewParquetFromSettings builds a ParquetAccount from the Statement section.
func NewParquetFromSettings(s settings.Map, lenient bool) (broker.AccountData, bool, error) {
	var cfg ParquetSettings
	configured, err := settings.Decode(s, &cfg)
	if err != nil || !configured {
		return nil, configured, err
	}
	ps := store.NewParquetStore(cfg.Positions, cfg.Activity, cfg.Balances)
	log := slog.Default().With("source", "statement-parquet")
	return &ParquetAccount{Account: NewAccount(ps, lenient, log), Store: ps}, true, nil
}
