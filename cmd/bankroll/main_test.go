package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// fixture writes two CSV statements and a config that points at the first.
// The second is reachable through a command-line override.
func fixture(t *testing.T) (configPath, otherPositions string) {
	t.Helper()
	dir := t.TempDir()
	positions := writeFile(t, dir, "positions.csv", "symbol,quantity,cost_basis\nAAPL,10,1500\nMSFT,1,300\nbroken,x,1\n")
	balances := writeFile(t, dir, "balances.csv", "currency,amount\nUSD,250\n")
	otherPositions = writeFile(t, dir, "other.csv", "symbol,quantity\nVTI,4\n")
	configPath = writeFile(t, dir, "bankroll.yaml", `
logging:
  level: warn
  format: text
accounts:
  CSV statement:
    Positions CSV: `+positions+`
    Balances CSV: `+balances+`
`)
	return configPath, otherPositions
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("BANKROLL_CONFIG", "")
	t.Setenv("BANKROLL_LENIENT", "")
	t.Setenv("APCA_API_KEY_ID", "")
	t.Setenv("APCA_API_SECRET_KEY", "")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	if code != 0 || !strings.Contains(out, version) {
		t.Errorf("version = %d %q", code, out)
	}
}

func TestUnknownCommand(t *testing.T) {
	code, _, errOut := runCLI(t, "frobnicate")
	if code != 2 || !strings.Contains(errOut, "unknown command") {
		t.Errorf("unknown command = %d %q", code, errOut)
	}
}

func TestPositionsStrictFails(t *testing.T) {
	cfg, _ := fixture(t)
	code, _, errOut := runCLI(t, "-config", cfg, "positions")
	if code != 1 {
		t.Errorf("exit code = %d, want 1; stderr:\n%s", code, errOut)
	}
}

func TestPositionsLenient(t *testing.T) {
	cfg, _ := fixture(t)
	code, out, errOut := runCLI(t, "-config", cfg, "-lenient", "positions")
	if code != 0 {
		t.Fatalf("exit code = %d; stderr:\n%s", code, errOut)
	}
	if !strings.Contains(out, "AAPL") || !strings.Contains(out, "MSFT") || strings.Contains(out, "BROKEN") {
		t.Errorf("output:\n%s", out)
	}
	if !strings.Contains(errOut, "skipping record") {
		t.Errorf("stderr has no warning for the malformed row:\n%s", errOut)
	}
}

func TestFlagOverridesConfig(t *testing.T) {
	cfg, other := fixture(t)
	code, out, errOut := runCLI(t, "-config", cfg, "-csv-statement-positions-csv", other, "positions")
	if code != 0 {
		t.Fatalf("exit code = %d; stderr:\n%s", code, errOut)
	}
	if !strings.Contains(out, "VTI") || strings.Contains(out, "AAPL") {
		t.Errorf("output:\n%s", out)
	}
}

func TestBalanceAndAccounts(t *testing.T) {
	cfg, _ := fixture(t)
	code, out, errOut := runCLI(t, "-config", cfg, "balance")
	if code != 0 {
		t.Fatalf("balance exit code = %d; stderr:\n%s", code, errOut)
	}
	if !strings.Contains(out, "USD") || !strings.Contains(out, "250") {
		t.Errorf("balance output:\n%s", out)
	}

	code, out, _ = runCLI(t, "-config", cfg, "accounts")
	if code != 0 || !strings.Contains(out, "statement-csv") {
		t.Errorf("accounts = %d:\n%s", code, out)
	}
}

func TestQuotesWithoutMarketData(t *testing.T) {
	cfg, _ := fixture(t)
	code, _, _ := runCLI(t, "-config", cfg, "quotes")
	if code != 1 {
		t.Errorf("quotes exit code = %d, want 1", code)
	}
}

func TestInvalidSourceConfig(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "bankroll.yaml", "accounts:\n  Ledger:\n    Database: /does/not/exist.db\n")
	code, _, errOut := runCLI(t, "-config", cfg, "positions")
	if code != 1 || !strings.Contains(errOut, "ledger") {
		t.Errorf("exit code = %d; stderr:\n%s", code, errOut)
	}
}

func TestImportThenReadLedger(t *testing.T) {
	cfg, _ := fixture(t)
	db := filepath.Join(t.TempDir(), "ledger.db")

	code, out, errOut := runCLI(t, "-config", cfg, "-lenient", "import", db, "brokerage")
	if code != 0 {
		t.Fatalf("import exit code = %d; stderr:\n%s", code, errOut)
	}
	if !strings.Contains(out, "imported 2 positions") || !strings.Contains(out, "brokerage") {
		t.Errorf("import output:\n%s", out)
	}

	ledgerCfg := writeFile(t, t.TempDir(), "ledger.yaml", "accounts:\n  Ledger:\n    Database: "+db+"\n    Account: brokerage\n")
	code, out, errOut = runCLI(t, "-config", ledgerCfg, "positions")
	if code != 0 {
		t.Fatalf("positions exit code = %d; stderr:\n%s", code, errOut)
	}
	if !strings.Contains(out, "AAPL") || !strings.Contains(out, "MSFT") {
		t.Errorf("positions from ledger:\n%s", out)
	}
}
