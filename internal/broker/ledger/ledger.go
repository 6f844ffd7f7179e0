// Package ledger serves account data kept in a local SQLite ledger.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"bankroll/internal/broker"
	"bankroll/internal/broker/statement"
	"bankroll/internal/settings"
	"bankroll/internal/store"
)

// Settings configures the ledger source.
type Settings struct {
	Database string `setting:"Database" validate:"required,file"`
	Account  string `setting:"Account"`
}

func (*Settings) SectionName() string { return "Ledger" }

// Account reads one ledger database, optionally restricted to a single
// account name.
type Account struct {
	*statement.Account
	Store *store.LedgerStore
	Name  string
}

// SourceName returns "ledger".
func (*Account) SourceName() string { return "ledger" }

func init() {
	broker.Register("ledger", &Settings{}, NewFromSettings)
}

// NewFromSettings opens the ledger named in the Ledger section. The database
// must already exist.
func NewFromSettings(s settings.Map, lenient bool) (broker.AccountData, bool, error) {
	var cfg Settings
	configured, err := settings.Decode(s, &cfg)
	if err != nil || !configured {
		return nil, configured, err
	}
	ls, err := store.NewLedgerStore(cfg.Database)
	if err != nil {
		return nil, true, fmt.Errorf("opening ledger: %w", err)
	}
	return New(ls, cfg.Account, lenient), true, nil
}

// New wraps an open ledger store. An empty account reads every account.
func New(ls *store.LedgerStore, account string, lenient bool) *Account {
	log := slog.Default().With("source", "ledger", "database_account", account)
	return &Account{
		Account: statement.NewAccount(ls.Reader(account), lenient, log),
		Store:   ls,
		Name:    account,
	}
}

// Close closes the underlying database.
func (a *Account) Close() error {
	return a.Store.Close()
}

// ImportCounts reports how many records Import wrote.
type ImportCounts struct {
	Positions int
	Activity  int
	Balances  int
}

// Import reads everything src reports and appends it to ls under account.
// All records are read before any is written.
func Import(ctx context.Context, ls *store.LedgerStore, account string, src broker.AccountData) (ImportCounts, error) {
	var n ImportCounts
	positions, err := src.Positions(ctx)
	if err != nil {
		return n, fmt.Errorf("reading positions: %w", err)
	}
	activity, err := src.Activity(ctx)
	if err != nil {
		return n, fmt.Errorf("reading activity: %w", err)
	}
	balance, err := src.Balance(ctx)
	if err != nil {
		return n, fmt.Errorf("reading balance: %w", err)
	}

	for _, p := range positions {
		if err := ls.SavePosition(ctx, account, statement.RecordFromPosition(p)); err != nil {
			return n, fmt.Errorf("saving position %s: %w", p.Instrument.Symbol, err)
		}
		n.Positions++
	}
	for _, a := range activity {
		if err := ls.SaveActivity(ctx, account, statement.RecordFromActivity(a)); err != nil {
			return n, fmt.Errorf("saving activity %s: %w", a.ID, err)
		}
		n.Activity++
	}
	for _, b := range statement.RecordsFromBalance(balance) {
		if err := ls.SaveBalance(ctx, account, b); err != nil {
			return n, fmt.Errorf("saving %s balance: %w", b.Currency, err)
		}
		n.Balances++
	}
	return n, nil
}
