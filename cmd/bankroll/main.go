package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"bankroll/internal/api"
	"bankroll/internal/broker"
	_ "bankroll/internal/broker/all"
	"bankroll/internal/broker/ledger"
	"bankroll/internal/config"
	"bankroll/internal/domain"
	"bankroll/internal/settings"
	"bankroll/internal/store"
	"bankroll/internal/util"
)

const version = "0.1.0"

const defaultConfigPath = "config/bankroll.yaml"

// pathList collects a repeatable -config flag.
type pathList []string

func (p *pathList) String() string     { return strings.Join(*p, ",") }
func (p *pathList) Set(v string) error { *p = append(*p, v); return nil }

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("bankroll", flag.ContinueOnError)
	fset.SetOutput(stderr)

	var configs pathList
	fset.Var(&configs, "config", "YAML config file; repeat to layer files (default $BANKROLL_CONFIG or "+defaultConfigPath+")")
	lenient := fset.Bool("lenient", false, "skip malformed records with a warning instead of failing")
	since := fset.Duration("since", 30*24*time.Hour, "history window for the history command")
	overrides := settings.BindFlags(fset, broker.DefaultRegistry.Sections()...)

	fset.Usage = func() {
		fmt.Fprintf(stderr, "Usage: bankroll [flags] <command> [args]\n\n")
		fmt.Fprintf(stderr, "Commands:\n")
		fmt.Fprintf(stderr, "  positions         Show merged positions across all accounts\n")
		fmt.Fprintf(stderr, "  activity          Show account activity, oldest first\n")
		fmt.Fprintf(stderr, "  balance           Show cash balances per currency\n")
		fmt.Fprintf(stderr, "  accounts          List the configured account sources\n")
		fmt.Fprintf(stderr, "  quotes            Show latest quotes for held instruments\n")
		fmt.Fprintf(stderr, "  history <symbol>  Show daily bars for a stock\n")
		fmt.Fprintf(stderr, "  import <db> [name] Copy every configured source into a SQLite ledger\n")
		fmt.Fprintf(stderr, "  serve             Serve the HTTP API and gRPC health service\n")
		fmt.Fprintf(stderr, "  version           Print the version\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fset.PrintDefaults()
	}

	if err := fset.Parse(args); err != nil {
		return 2
	}
	if fset.NArg() < 1 {
		fset.Usage()
		return 2
	}
	cmd := fset.Arg(0)
	if cmd == "version" {
		fmt.Fprintf(stdout, "bankroll %s\n", version)
		return 0
	}

	cfg, err := loadConfig(configs)
	if err != nil {
		fmt.Fprintf(stderr, "loading config: %v\n", err)
		return 1
	}
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, stderr)
	util.SetDefault(logger)

	agg, err := broker.FromSettings(cfg.Settings(overrides()), cfg.Lenient || *lenient)
	if err != nil {
		logger.Error("building account sources", "error", err)
		return 1
	}
	defer func() {
		if err := agg.Close(); err != nil {
			logger.Warn("closing account sources", "error", err)
		}
	}()

	switch cmd {
	case "positions":
		err = printPositions(ctx, stdout, agg)
	case "activity":
		err = printActivity(ctx, stdout, agg)
	case "balance":
		err = printBalance(ctx, stdout, agg)
	case "accounts":
		err = printAccounts(stdout, agg)
	case "quotes":
		err = printQuotes(ctx, stdout, agg)
	case "history":
		if fset.NArg() < 2 {
			fmt.Fprintf(stderr, "history needs a symbol\n")
			return 2
		}
		err = printHistory(ctx, stdout, agg, fset.Arg(1), time.Now().Add(-*since))
	case "import":
		if fset.NArg() < 2 {
			fmt.Fprintf(stderr, "import needs a ledger database path\n")
			return 2
		}
		err = importLedger(ctx, stdout, agg, fset.Arg(1), fset.Arg(2))
	case "serve":
		err = api.NewServer(cfg.Server, agg, logger).ListenAndServe(ctx)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", cmd)
		fset.Usage()
		return 2
	}
	if err != nil {
		logger.Error(cmd+" failed", "error", err)
		return 1
	}
	return 0
}

// loadConfig loads the given files, or the default file when none is given.
// A missing default file is not an error.
func loadConfig(paths []string) (*config.Config, error) {
	if len(paths) > 0 {
		return config.Load(paths...)
	}
	if p := os.Getenv("BANKROLL_CONFIG"); p != "" {
		return config.Load(p)
	}
	if _, err := os.Stat(defaultConfigPath); errors.Is(err, fs.ErrNotExist) {
		slog.Debug("no config file, using defaults", "path", defaultConfigPath)
		return config.Load()
	}
	return config.Load(defaultConfigPath)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printPositions(ctx context.Context, w io.Writer, agg *broker.Aggregator) error {
	ps, err := agg.Positions(ctx)
	if err != nil {
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "SYMBOL\tKIND\tQUANTITY\tCOST BASIS")
	for _, p := range ps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Instrument.Symbol, p.Instrument.Kind, p.Quantity, p.CostBasis)
	}
	return tw.Flush()
}

func printActivity(ctx context.Context, w io.Writer, agg *broker.Aggregator) error {
	acts, err := agg.Activity(ctx)
	if err != nil {
		return err
	}
	slices.SortStableFunc(acts, func(a, b domain.Activity) int { return a.Date.Compare(b.Date) })

	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tKIND\tSYMBOL\tQUANTITY\tAMOUNT\tDESCRIPTION")
	for _, a := range acts {
		sym := "-"
		if a.Instrument != nil {
			sym = a.Instrument.Symbol
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.Date.Format(time.DateOnly), a.Kind, sym, a.Quantity, a.Amount, a.Description)
	}
	return tw.Flush()
}

func printBalance(ctx context.Context, w io.Writer, agg *broker.Aggregator) error {
	b, err := agg.Balance(ctx)
	if err != nil {
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "CURRENCY\tAMOUNT")
	for _, code := range b.Currencies() {
		fmt.Fprintf(tw, "%s\t%s\n", code, domain.Money{Amount: b.Amount(code), Currency: code})
	}
	return tw.Flush()
}

func printAccounts(w io.Writer, agg *broker.Aggregator) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "#\tSOURCE\tMARKET DATA")
	for i, a := range agg.Accounts() {
		fmt.Fprintf(tw, "%d\t%s\t%t\n", i, broker.SourceName(a), broker.MarketDataOf(a) != nil)
	}
	return tw.Flush()
}

func printQuotes(ctx context.Context, w io.Writer, agg *broker.Aggregator) error {
	md := agg.MarketData()
	if md == nil {
		return errors.New("no configured source provides market data")
	}
	ps, err := agg.Positions(ctx)
	if err != nil {
		return err
	}
	instruments := make([]domain.Instrument, len(ps))
	for i, p := range ps {
		instruments[i] = p.Instrument
	}
	quotes, err := md.FetchQuotes(ctx, instruments)
	if err != nil {
		return err
	}
	slices.SortFunc(quotes, func(a, b broker.InstrumentQuote) int { return a.Instrument.Compare(b.Instrument) })

	tw := newTable(w)
	fmt.Fprintln(tw, "SYMBOL\tBID\tASK\tMID\tTIME")
	for _, q := range quotes {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%s\n",
			q.Instrument.Symbol, q.Quote.Bid, q.Quote.Ask, q.Quote.Mid(), q.Quote.Timestamp.Format(time.RFC3339))
	}
	return tw.Flush()
}

func printHistory(ctx context.Context, w io.Writer, agg *broker.Aggregator, symbol string, since time.Time) error {
	md := agg.MarketData()
	if md == nil {
		return errors.New("no configured source provides market data")
	}
	inst, err := domain.NewInstrument(domain.KindStock, symbol, "USD")
	if err != nil {
		return err
	}
	bars, err := md.FetchHistory(ctx, inst, since)
	if err != nil {
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tOPEN\tHIGH\tLOW\tCLOSE\tVOLUME")
	for _, b := range bars {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%d\n",
			b.Timestamp.Format(time.DateOnly), b.Open, b.High, b.Low, b.Close, b.Volume)
	}
	return tw.Flush()
}

// importLedger appends the aggregated view to the ledger at path, creating
// it when missing, under the given account name.
func importLedger(ctx context.Context, w io.Writer, agg *broker.Aggregator, path, account string) error {
	ls, err := store.NewLedgerStore(path)
	if err != nil {
		return err
	}
	defer ls.Close()

	n, err := ledger.Import(ctx, ls, account, agg)
	if err != nil {
		return err
	}
	names, err := ls.Accounts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "imported %d positions, %d activities, %d balances into %s\n",
		n.Positions, n.Activity, n.Balances, path)
	fmt.Fprintf(w, "ledger accounts: %s\n", strings.Join(names, ", "))
	return nil
}
