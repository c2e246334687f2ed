package finchat

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const defaultMarketBaseURL = "https://www.alphavantage.co"

// avDateLayout is the date key format of the Alpha Vantage daily series.
const avDateLayout = "2006-01-02"

var oneHundred = decimal.NewFromInt(100)

// DailyBar is one day's OHLCV record.
type DailyBar struct {
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// Quote is a derived per-request snapshot comparing the latest trading day
// against the previous one. It is never cached or stored.
type Quote struct {
	Symbol        string
	Date          time.Time
	Today         DailyBar
	PrevClose     decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
}

type marketClientOptions struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

// MarketClient fetches daily time-series data from the Alpha Vantage API.
type MarketClient struct {
	client *resty.Client
	apiKey string
	logger *slog.Logger
}

func newMarketClient(opts marketClientOptions) *MarketClient {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultMarketBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)

	return &MarketClient{
		client: client,
		apiKey: opts.APIKey,
		logger: logger,
	}
}

// timeSeriesDailyResponse mirrors the fixed Alpha Vantage JSON shape. OHLCV
// fields arrive as stringified numbers keyed by "1. open" etc.
type timeSeriesDailyResponse struct {
	TimeSeries   map[string]map[string]string `json:"Time Series (Daily)"`
	ErrorMessage string                       `json:"Error Message"`
	Note         string                       `json:"Note"`
}

// GetQuote fetches the daily series for symbol and derives a Quote from the
// two most recent trading days. The symbol is uppercased before the request.
func (m *MarketClient) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, NewError(ErrCodeInvalidInput, "symbol is required")
	}

	m.logger.Info("fetching daily series", "symbol", symbol)

	var payload timeSeriesDailyResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": "TIME_SERIES_DAILY",
			"symbol":   symbol,
			"apikey":   m.apiKey,
		}).
		SetResult(&payload).
		Get("/query")
	if err != nil {
		return nil, WrapError(ErrCodeUpstream, "market data request failed", err)
	}
	if resp.IsError() {
		return nil, NewError(ErrCodeUpstream, fmt.Sprintf("market data http status %d", resp.StatusCode()))
	}
	if len(payload.TimeSeries) == 0 {
		// Unknown symbols, rate-limit notes and error payloads all arrive
		// without the series key.
		m.logger.Warn("daily series missing", "symbol", symbol, "note", payload.Note, "error_message", payload.ErrorMessage)
		return nil, NewError(ErrCodeNotFound, fmt.Sprintf("no daily series for %s", symbol))
	}

	dates := make([]string, 0, len(payload.TimeSeries))
	for date := range payload.TimeSeries {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if len(dates) < 2 {
		return nil, NewError(ErrCodeInsufficientData, fmt.Sprintf("%s has fewer than two trading days of data", symbol))
	}

	today, err := parseDailyBar(payload.TimeSeries[dates[0]])
	if err != nil {
		return nil, WrapError(ErrCodeUpstream, "malformed daily record", err)
	}
	prev, err := parseDailyBar(payload.TimeSeries[dates[1]])
	if err != nil {
		return nil, WrapError(ErrCodeUpstream, "malformed previous daily record", err)
	}
	date, err := time.Parse(avDateLayout, dates[0])
	if err != nil {
		return nil, WrapError(ErrCodeUpstream, "malformed series date", err)
	}

	change := today.Close.Sub(prev.Close)
	percent := decimal.Zero
	if !prev.Close.IsZero() {
		percent = change.DivRound(prev.Close, 8).Mul(oneHundred)
	}

	return &Quote{
		Symbol:        symbol,
		Date:          date,
		Today:         today,
		PrevClose:     prev.Close,
		Change:        change,
		ChangePercent: percent,
	}, nil
}

func parseDailyBar(fields map[string]string) (DailyBar, error) {
	var bar DailyBar
	var err error
	if bar.Open, err = decimal.NewFromString(fields["1. open"]); err != nil {
		return DailyBar{}, fmt.Errorf("open: %w", err)
	}
	if bar.High, err = decimal.NewFromString(fields["2. high"]); err != nil {
		return DailyBar{}, fmt.Errorf("high: %w", err)
	}
	if bar.Low, err = decimal.NewFromString(fields["3. low"]); err != nil {
		return DailyBar{}, fmt.Errorf("low: %w", err)
	}
	if bar.Close, err = decimal.NewFromString(fields["4. close"]); err != nil {
		return DailyBar{}, fmt.Errorf("close: %w", err)
	}
	// Volume occasionally arrives with a fractional part.
	volume, err := strconv.ParseFloat(fields["5. volume"], 64)
	if err != nil {
		return DailyBar{}, fmt.Errorf("volume: %w", err)
	}
	bar.Volume = int64(volume)
	return bar, nil
}

// FormatQuoteReport renders the fixed-structure performance report shown in
// the chat transcript. held controls the portfolio annotation line.
func FormatQuoteReport(q *Quote, held bool) string {
	holding := "⚠️ You do not currently hold shares of this stock."
	if held {
		holding = "✅ You have invested in this stock."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**📈 %s Stock Performance on %s:**\n\n", q.Symbol, q.Date.Format("January 02, 2006"))
	fmt.Fprintf(&sb, "- **Opening Price**: $%s\n", q.Today.Open.StringFixed(2))
	fmt.Fprintf(&sb, "- **Daily High / Low**: $%s / $%s\n", q.Today.High.StringFixed(2), q.Today.Low.StringFixed(2))
	fmt.Fprintf(&sb, "- **Closing Price**: $%s\n", q.Today.Close.StringFixed(2))
	fmt.Fprintf(&sb, "- **Previous Close**: $%s\n", q.PrevClose.StringFixed(2))
	fmt.Fprintf(&sb, "- **Change**: $%s (%s%%)\n", signedFixed(q.Change), signedFixed(q.ChangePercent))
	fmt.Fprintf(&sb, "- **Volume**: %s shares traded\n\n", humanize.Comma(q.Today.Volume))
	sb.WriteString(holding)
	sb.WriteString("\n\n_Always do your research or consult a financial advisor before making decisions._")
	return sb.String()
}

// signedFixed formats a decimal to two places with an explicit leading sign.
func signedFixed(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if !strings.HasPrefix(s, "-") {
		return "+" + s
	}
	return s
}
