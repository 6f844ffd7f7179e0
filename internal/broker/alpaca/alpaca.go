// Package alpaca serves live account data and market data from the Alpaca
// brokerage API.
package alpaca

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"bankroll/internal/broker"
	"bankroll/internal/domain"
	"bankroll/internal/settings"
	"bankroll/internal/util"
)

// ---------------------------------------------------------------------------
// Compile-time interface checks
// ---------------------------------------------------------------------------

var (
	_ broker.AccountData        = (*Account)(nil)
	_ broker.MarketDataSource   = (*Account)(nil)
	_ broker.MarketDataProvider = (*MarketData)(nil)
)

// Settings configures the Alpaca source. Credentials fall back to the
// APCA_API_KEY_ID and APCA_API_SECRET_KEY environment variables through the
// application config.
type Settings struct {
	APIKey     string        `setting:"API key" validate:"required"`
	APISecret  string        `setting:"API secret" validate:"required"`
	BaseURL    string        `setting:"Base URL" default:"https://api.alpaca.markets" validate:"url"`
	DataURL    string        `setting:"Data URL" validate:"omitempty,url"`
	Retries    int           `setting:"Retries" default:"3" validate:"gte=1"`
	RetryDelay time.Duration `setting:"Retry delay" default:"1s"`
	RateLimit  int           `setting:"Rate limit" default:"200" validate:"gte=0"` // requests per minute, 0 disables
}

func (*Settings) SectionName() string { return "Alpaca" }

func init() {
	broker.Register("alpaca", &Settings{}, NewFromSettings)
}

// tradingClient is the subset of *alpaca.Client the source calls.
type tradingClient interface {
	GetPositions() ([]alpaca.Position, error)
	GetAccount() (*alpaca.Account, error)
	GetAccountActivities(req alpaca.GetAccountActivitiesRequest) ([]alpaca.AccountActivity, error)
}

// dataClient is the subset of *marketdata.Client the source calls.
type dataClient interface {
	GetLatestQuotes(symbols []string, req marketdata.GetLatestQuoteRequest) (map[string]marketdata.Quote, error)
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// newLimiter allows perMinute requests per minute; zero or less is unlimited.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// caller throttles and retries API calls.
type caller struct {
	limiter    *rate.Limiter
	retries    int
	retryDelay time.Duration
}

func call[T any](ctx context.Context, c caller, fn func() (T, error)) (T, error) {
	return util.RetryValue(ctx, c.retries, c.retryDelay, func() (T, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			var zero T
			return zero, util.Permanent(err)
		}
		v, err := fn()
		if err != nil && !retryable(err) {
			return v, util.Permanent(err)
		}
		return v, err
	})
}

// retryable reports whether err may succeed on a later attempt. Client
// errors other than rate limiting will not.
func retryable(err error) bool {
	var apiErr *alpaca.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}

// Account is a live Alpaca trading account.
type Account struct {
	client  tradingClient
	data    *MarketData
	call    caller
	lenient bool
	log     *slog.Logger

	positions broker.Memo[[]domain.Position]
	activity  broker.Memo[[]domain.Activity]
	balance   broker.Memo[domain.AccountBalance]
}

// NewFromSettings builds an Account from the Alpaca section.
func NewFromSettings(s settings.Map, lenient bool) (broker.AccountData, bool, error) {
	var cfg Settings
	configured, err := settings.Decode(s, &cfg)
	if err != nil || !configured {
		return nil, configured, err
	}
	return New(cfg, lenient), true, nil
}

// New creates an Account connected with cfg.
func New(cfg Settings, lenient bool) *Account {
	trading := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		BaseURL:   cfg.BaseURL,
	})
	opts := marketdata.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	}
	if cfg.DataURL != "" {
		opts.BaseURL = cfg.DataURL
	}
	return newAccount(trading, marketdata.NewClient(opts), cfg, lenient)
}

func newAccount(trading tradingClient, data dataClient, cfg Settings, lenient bool) *Account {
	c := caller{
		limiter:    newLimiter(cfg.RateLimit),
		retries:    cfg.Retries,
		retryDelay: cfg.RetryDelay,
	}
	return &Account{
		client:  trading,
		data:    &MarketData{client: data, call: c},
		call:    c,
		lenient: lenient,
		log:     slog.Default().With("source", "alpaca"),
	}
}

// SourceName returns "alpaca".
func (*Account) SourceName() string { return "alpaca" }

// MarketData returns the Alpaca market data provider.
func (a *Account) MarketData() broker.MarketDataProvider { return a.data }

// Positions fetches open positions.
func (a *Account) Positions(ctx context.Context) ([]domain.Position, error) {
	out, err := a.positions.Get(ctx, func(ctx context.Context) ([]domain.Position, error) {
		raw, err := call(ctx, a.call, a.client.GetPositions)
		if err != nil {
			return nil, fmt.Errorf("alpaca positions: %w", err)
		}
		return util.CollectLenient(slices.Values(raw), convertPosition, a.lenient, a.log)
	})
	return slices.Clone(out), err
}

// activityPageSize is the largest page Alpaca serves.
const activityPageSize = 100

// Activity fetches the whole account activity history, most recent first as
// Alpaca returns it. Pages are requested until one comes back short.
func (a *Account) Activity(ctx context.Context) ([]domain.Activity, error) {
	out, err := a.activity.Get(ctx, func(ctx context.Context) ([]domain.Activity, error) {
		raw, err := a.fetchActivities(ctx)
		if err != nil {
			return nil, fmt.Errorf("alpaca activity: %w", err)
		}
		return util.CollectLenient(slices.Values(raw), convertActivity, a.lenient, a.log)
	})
	return slices.Clone(out), err
}

func (a *Account) fetchActivities(ctx context.Context) ([]alpaca.AccountActivity, error) {
	var all []alpaca.AccountActivity
	token := ""
	for {
		page, err := call(ctx, a.call, func() ([]alpaca.AccountActivity, error) {
			return a.client.GetAccountActivities(alpaca.GetAccountActivitiesRequest{
				PageSize:  activityPageSize,
				PageToken: token,
			})
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < activityPageSize {
			return all, nil
		}
		token = page[len(page)-1].ID
	}
}

// Balance fetches the account's cash.
func (a *Account) Balance(ctx context.Context) (domain.AccountBalance, error) {
	b, err := a.balance.Get(ctx, func(ctx context.Context) (domain.AccountBalance, error) {
		acct, err := call(ctx, a.call, a.client.GetAccount)
		if err != nil {
			return domain.AccountBalance{}, fmt.Errorf("alpaca account: %w", err)
		}
		currency := acct.Currency
		if currency == "" {
			currency = "USD"
		}
		return domain.NewAccountBalance(map[string]decimal.Decimal{currency: acct.Cash})
	})
	// Callers get their own copy of the cached map.
	return b.Add(domain.AccountBalance{}), err
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

func assetKind(class string) (domain.AssetKind, error) {
	if class == "us_option" {
		return domain.KindOption, nil
	}
	return domain.ParseAssetKind(class)
}

func convertPosition(p alpaca.Position) (domain.Position, error) {
	kind, err := assetKind(string(p.AssetClass))
	if err != nil {
		return domain.Position{}, fmt.Errorf("position %s: %w", p.Symbol, err)
	}
	inst, err := domain.NewInstrument(kind, p.Symbol, "USD")
	if err != nil {
		return domain.Position{}, err
	}
	cost, err := domain.NewMoney(p.CostBasis, inst.Currency)
	if err != nil {
		return domain.Position{}, err
	}
	return domain.Position{Instrument: inst, Quantity: p.Qty, CostBasis: cost}, nil
}

// activityKind maps Alpaca activity type codes onto ActivityKind.
func activityKind(code string) domain.ActivityKind {
	code = strings.ToUpper(code)
	switch {
	case code == "FILL":
		return domain.ActivityTrade
	case code == "DIVNRA" || code == "DIVFT" || code == "DIVTW":
		return domain.ActivityTax
	case strings.HasPrefix(code, "DIV"):
		return domain.ActivityDividend
	case strings.HasPrefix(code, "INT"):
		return domain.ActivityInterest
	case code == "FEE" || code == "CFEE" || code == "PTC":
		return domain.ActivityFee
	case code == "TRANS" || code == "CSD" || code == "CSW" ||
		strings.HasPrefix(code, "JNL") || strings.HasPrefix(code, "ACAT"):
		return domain.ActivityTransfer
	default:
		return domain.ActivityOther
	}
}

func convertActivity(a alpaca.AccountActivity) (domain.Activity, error) {
	kind := activityKind(a.ActivityType)
	act := domain.Activity{
		ID:          a.ID,
		Date:        a.TransactionTime,
		Kind:        kind,
		Description: a.Description,
	}
	if act.Date.IsZero() && a.Date.IsValid() {
		// Non-trade activities carry a date only.
		act.Date = a.Date.In(time.UTC)
	}
	if act.Date.IsZero() {
		return domain.Activity{}, fmt.Errorf("activity %s has no date", a.ID)
	}
	if a.Symbol != "" {
		inst, err := domain.NewInstrument(domain.KindStock, a.Symbol, "USD")
		if err != nil {
			return domain.Activity{}, err
		}
		act.Instrument = &inst
	}

	act.Quantity = a.Qty
	act.Price = domain.Money{Amount: a.Price, Currency: "USD"}
	amount := a.NetAmount
	if kind == domain.ActivityTrade {
		amount = a.Price.Mul(a.Qty)
		if strings.EqualFold(a.Side, "buy") {
			amount = amount.Neg()
		} else {
			act.Quantity = a.Qty.Neg()
		}
	}
	act.Amount = domain.Money{Amount: amount, Currency: "USD"}
	return act, nil
}

// ---------------------------------------------------------------------------
// MarketData
// ---------------------------------------------------------------------------

// MarketData looks up US equity quotes and daily bars.
type MarketData struct {
	client dataClient
	call   caller
}

// FetchQuotes returns the latest quote of every instrument Alpaca knows.
func (m *MarketData) FetchQuotes(ctx context.Context, instruments []domain.Instrument) ([]broker.InstrumentQuote, error) {
	bySymbol := make(map[string]domain.Instrument, len(instruments))
	symbols := make([]string, 0, len(instruments))
	for _, inst := range instruments {
		if _, dup := bySymbol[inst.Symbol]; dup {
			continue
		}
		bySymbol[inst.Symbol] = inst
		symbols = append(symbols, inst.Symbol)
	}
	if len(symbols) == 0 {
		return nil, nil
	}

	quotes, err := call(ctx, m.call, func() (map[string]marketdata.Quote, error) {
		return m.client.GetLatestQuotes(symbols, marketdata.GetLatestQuoteRequest{})
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca quotes: %w", err)
	}

	out := make([]broker.InstrumentQuote, 0, len(quotes))
	for _, sym := range symbols {
		q, ok := quotes[sym]
		if !ok {
			continue
		}
		out = append(out, broker.InstrumentQuote{
			Instrument: bySymbol[sym],
			Quote: domain.Quote{
				Bid:       q.BidPrice,
				Ask:       q.AskPrice,
				BidSize:   int64(q.BidSize),
				AskSize:   int64(q.AskSize),
				Timestamp: q.Timestamp,
			},
		})
	}
	return out, nil
}

// FetchHistory returns daily bars for instrument since the given time.
func (m *MarketData) FetchHistory(ctx context.Context, instrument domain.Instrument, since time.Time) ([]domain.Bar, error) {
	raw, err := call(ctx, m.call, func() ([]marketdata.Bar, error) {
		return m.client.GetBars(instrument.Symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     since,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars %s: %w", instrument.Symbol, err)
	}

	bars := make([]domain.Bar, len(raw))
	for i, ab := range raw {
		bars[i] = domain.Bar{
			Symbol:     instrument.Symbol,
			Timestamp:  ab.Timestamp,
			Open:       ab.Open,
			High:       ab.High,
			Low:        ab.Low,
			Close:      ab.Close,
			Volume:     int64(ab.Volume),
			TradeCount: int64(ab.TradeCount),
			VWAP:       ab.VWAP,
		}
	}
	return bars, nil
}
