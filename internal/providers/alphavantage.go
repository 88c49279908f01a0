package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/pkg/config"
	"github.com/swingscan/swingscan/pkg/httputil"
	"github.com/swingscan/swingscan/pkg/logger"
)

// AlphaVantage adapts the Alpha Vantage TIME_SERIES_DAILY endpoint.
// The strictest free tier of the four vendors (25 requests/day), kept
// as the last fallback. Errors and throttling both arrive as HTTP 200
// with distinguishing JSON keys.
type AlphaVantage struct {
	config config.AlphaVantageConfig
	client *httputil.Client
	logger *logger.Logger
}

// NewAlphaVantage creates an Alpha Vantage adapter.
func NewAlphaVantage(cfg config.AlphaVantageConfig, log *logger.Logger) *AlphaVantage {
	return &AlphaVantage{
		config: cfg,
		client: httputil.New(log).WithRateLimit(0.2, 1),
		logger: log,
	}
}

// Name implements Provider.
func (a *AlphaVantage) Name() string { return "alphavantage" }

type alphaVantageDaily struct {
	ErrorMessage string                       `json:"Error Message"`
	Note         string                       `json:"Note"`
	Information  string                       `json:"Information"`
	TimeSeries   map[string]map[string]string `json:"Time Series (Daily)"`
}

// DailyBars implements Provider.
func (a *AlphaVantage) DailyBars(ctx context.Context, symbol string, limit int) ([]contracts.Bar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("symbol", symbol)
	q.Set("outputsize", outputSize(limit))
	q.Set("apikey", a.config.APIKey)

	resp, err := a.client.Get(ctx, fmt.Sprintf("%s?%s", a.config.BaseURL, q.Encode()))
	if err != nil {
		return nil, fmt.Errorf("alphavantage: request failed: %w", err)
	}

	if resp.StatusCode != 200 {
		return nil, statusError("alphavantage", resp)
	}
	defer resp.Body.Close()

	var payload alphaVantageDaily
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("alphavantage: decode failed: %w", err)
	}

	switch {
	case payload.Note != "" || payload.Information != "":
		return nil, fmt.Errorf("alphavantage: quota note: %w", ErrRateLimited)
	case payload.ErrorMessage != "":
		return nil, fmt.Errorf("alphavantage: %s: %w", symbol, ErrSymbolNotFound)
	case len(payload.TimeSeries) == 0:
		return nil, fmt.Errorf("alphavantage: empty series: %w", ErrUnavailable)
	}

	bars := make([]contracts.Bar, 0, len(payload.TimeSeries))
	for date, fields := range payload.TimeSeries {
		bar, err := alphaVantageBar(date, fields)
		if err != nil {
			return nil, fmt.Errorf("alphavantage: bad row %s: %w", date, err)
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

type alphaVantageOverview struct {
	Note        string `json:"Note"`
	Information string `json:"Information"`

	Symbol    string `json:"Symbol"`
	Name      string `json:"Name"`
	Exchange  string `json:"Exchange"`
	Currency  string `json:"Currency"`
	MarketCap string `json:"MarketCapitalization"`
	Sector    string `json:"Sector"`
	Industry  string `json:"Industry"`
}

// Meta implements MetaProvider via the OVERVIEW function. Counts toward
// the same daily quota as bar requests.
func (a *AlphaVantage) Meta(ctx context.Context, symbol string) (*contracts.TickerMeta, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	q := url.Values{}
	q.Set("function", "OVERVIEW")
	q.Set("symbol", symbol)
	q.Set("apikey", a.config.APIKey)

	resp, err := a.client.Get(ctx, fmt.Sprintf("%s?%s", a.config.BaseURL, q.Encode()))
	if err != nil {
		return nil, fmt.Errorf("alphavantage: overview request failed: %w", err)
	}

	if resp.StatusCode != 200 {
		return nil, statusError("alphavantage", resp)
	}
	defer resp.Body.Close()

	var overview alphaVantageOverview
	if err := json.NewDecoder(resp.Body).Decode(&overview); err != nil {
		return nil, fmt.Errorf("alphavantage: overview decode failed: %w", err)
	}

	if overview.Note != "" || overview.Information != "" {
		return nil, fmt.Errorf("alphavantage: quota note: %w", ErrRateLimited)
	}
	if overview.Symbol == "" {
		return &contracts.TickerMeta{Symbol: symbol}, nil
	}

	meta := &contracts.TickerMeta{
		Symbol:   symbol,
		Name:     overview.Name,
		Exchange: overview.Exchange,
		Currency: overview.Currency,
		Sector:   overview.Sector,
		Industry: overview.Industry,
	}
	if mc, err := strconv.ParseFloat(overview.MarketCap, 64); err == nil && mc > 0 {
		meta.MarketCap = &mc
	}
	return meta, nil
}

func outputSize(limit int) string {
	// "compact" caps at 100 rows
	if limit > 100 {
		return "full"
	}
	return "compact"
}

func alphaVantageBar(date string, fields map[string]string) (contracts.Bar, error) {
	ts, err := time.Parse("2006-01-02", date)
	if err != nil {
		return contracts.Bar{}, err
	}

	get := func(key string) (float64, error) {
		s, ok := fields[key]
		if !ok {
			return 0, fmt.Errorf("missing field %q", key)
		}
		return strconv.ParseFloat(s, 64)
	}

	bar := contracts.Bar{Timestamp: ts.UTC()}
	for _, f := range []struct {
		key  string
		dest *float64
	}{
		{"1. open", &bar.Open},
		{"2. high", &bar.High},
		{"3. low", &bar.Low},
		{"4. close", &bar.Close},
		{"5. volume", &bar.Volume},
	} {
		v, err := get(f.key)
		if err != nil {
			return contracts.Bar{}, err
		}
		*f.dest = v
	}
	return bar, nil
}
