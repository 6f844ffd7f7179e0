package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS positions (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	account    TEXT NOT NULL DEFAULT '',
	symbol     TEXT NOT NULL,
	kind       TEXT NOT NULL DEFAULT '',
	currency   TEXT NOT NULL DEFAULT '',
	quantity   TEXT NOT NULL,
	cost_basis TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS activity (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	account     TEXT NOT NULL DEFAULT '',
	id          TEXT NOT NULL DEFAULT '',
	date        TEXT NOT NULL,
	kind        TEXT NOT NULL,
	symbol      TEXT NOT NULL DEFAULT '',
	asset_kind  TEXT NOT NULL DEFAULT '',
	currency    TEXT NOT NULL DEFAULT '',
	quantity    TEXT NOT NULL DEFAULT '',
	price       TEXT NOT NULL DEFAULT '',
	amount      TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS balances (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	account  TEXT NOT NULL DEFAULT '',
	currency TEXT NOT NULL,
	amount   TEXT NOT NULL
);
`

// LedgerStore keeps positions, activity and balances for any number of
// accounts in a SQLite database.
type LedgerStore struct {
	db *sql.DB
}

// NewLedgerStore opens (or creates) a SQLite database at dbPath, creates the
// ledger tables if missing, and returns a ready-to-use LedgerStore.
func NewLedgerStore(dbPath string) (*LedgerStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(ledgerSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema in %s: %w", dbPath, err)
	}
	return &LedgerStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *LedgerStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// SavePosition inserts a position for account.
func (s *LedgerStore) SavePosition(ctx context.Context, account string, r PositionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO positions (account, symbol, kind, currency, quantity, cost_basis) VALUES (?, ?, ?, ?, ?, ?)`,
		account, r.Symbol, r.Kind, r.Currency, r.Quantity, r.CostBasis)
	return err
}

// SaveActivity appends an activity record for account.
func (s *LedgerStore) SaveActivity(ctx context.Context, account string, r ActivityRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity (account, id, date, kind, symbol, asset_kind, currency, quantity, price, amount, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account, r.ID, r.Date, r.Kind, r.Symbol, r.AssetKind, r.Currency, r.Quantity, r.Price, r.Amount, r.Description)
	return err
}

// SaveBalance inserts a cash balance for account.
func (s *LedgerStore) SaveBalance(ctx context.Context, account string, r BalanceRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO balances (account, currency, amount) VALUES (?, ?, ?)`,
		account, r.Currency, r.Amount)
	return err
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// Accounts returns the distinct account names present in the ledger, sorted.
func (s *LedgerStore) Accounts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account FROM positions
		UNION SELECT account FROM activity
		UNION SELECT account FROM balances
		ORDER BY account`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Reader returns a StatementReader over one account's records, or over all
// accounts when account is empty. Records come back in insertion order.
func (s *LedgerStore) Reader(account string) StatementReader {
	return &ledgerReader{db: s.db, account: account}
}

type ledgerReader struct {
	db      *sql.DB
	account string
}

// accountFilter restricts a query to one account when one is set, keeping a
// single statement per table.
const accountFilter = ` WHERE (? = '' OR account = ?) ORDER BY seq`

func (r *ledgerReader) ReadPositions(ctx context.Context) ([]PositionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT symbol, kind, currency, quantity, cost_basis FROM positions`+accountFilter,
		r.account, r.account)
	if err != nil {
		return nil, fmt.Errorf("querying positions: %w", err)
	}
	defer rows.Close()

	var out []PositionRecord
	for rows.Next() {
		var p PositionRecord
		if err := rows.Scan(&p.Symbol, &p.Kind, &p.Currency, &p.Quantity, &p.CostBasis); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ledgerReader) ReadActivity(ctx context.Context) ([]ActivityRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, kind, symbol, asset_kind, currency, quantity, price, amount, description FROM activity`+accountFilter,
		r.account, r.account)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer rows.Close()

	var out []ActivityRecord
	for rows.Next() {
		var a ActivityRecord
		if err := rows.Scan(&a.ID, &a.Date, &a.Kind, &a.Symbol, &a.AssetKind, &a.Currency,
			&a.Quantity, &a.Price, &a.Amount, &a.Description); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *ledgerReader) ReadBalances(ctx context.Context) ([]BalanceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT currency, amount FROM balances`+accountFilter,
		r.account, r.account)
	if err != nil {
		return nil, fmt.Errorf("querying balances: %w", err)
	}
	defer rows.Close()

	var out []BalanceRecord
	for rows.Next() {
		var b BalanceRecord
		if err := rows.Scan(&b.Currency, &b.Amount); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
