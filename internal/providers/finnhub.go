package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/pkg/config"
	"github.com/swingscan/swingscan/pkg/httputil"
	"github.com/swingscan/swingscan/pkg/logger"
)

// Finnhub adapts the Finnhub candle API. Single-symbol only; the free
// tier allows 60 calls/min so the client is throttled below that.
type Finnhub struct {
	config config.FinnhubConfig
	client *httputil.Client
	logger *logger.Logger
}

// NewFinnhub creates a Finnhub adapter.
func NewFinnhub(cfg config.FinnhubConfig, log *logger.Logger) *Finnhub {
	return &Finnhub{
		config: cfg,
		client: httputil.New(log).WithRateLimit(0.9, 1),
		logger: log,
	}
}

// Name implements Provider.
func (f *Finnhub) Name() string { return "finnhub" }

// Candle payload uses parallel arrays keyed by single letters, with a
// status field instead of HTTP errors for unknown symbols.
type finnhubCandles struct {
	Status     string    `json:"s"` // "ok" or "no_data"
	Timestamps []int64   `json:"t"`
	Opens      []float64 `json:"o"`
	Highs      []float64 `json:"h"`
	Lows       []float64 `json:"l"`
	Closes     []float64 `json:"c"`
	Volumes    []float64 `json:"v"`
}

// DailyBars implements Provider.
func (f *Finnhub) DailyBars(ctx context.Context, symbol string, limit int) ([]contracts.Bar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -(limit*7/5 + 20))

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("resolution", "D")
	q.Set("from", fmt.Sprintf("%d", from.Unix()))
	q.Set("to", fmt.Sprintf("%d", now.Unix()))
	q.Set("token", f.config.APIKey)

	resp, err := f.client.Get(ctx, fmt.Sprintf("%s/stock/candle?%s", f.config.BaseURL, q.Encode()))
	if err != nil {
		return nil, fmt.Errorf("finnhub: request failed: %w", err)
	}

	if resp.StatusCode != 200 {
		return nil, statusError("finnhub", resp)
	}
	defer resp.Body.Close()

	var payload finnhubCandles
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("finnhub: decode failed: %w", err)
	}

	if payload.Status == "no_data" {
		return nil, fmt.Errorf("finnhub: %s: %w", symbol, ErrSymbolNotFound)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("finnhub: status %q: %w", payload.Status, ErrUnavailable)
	}

	n := len(payload.Timestamps)
	if len(payload.Closes) != n || len(payload.Opens) != n ||
		len(payload.Highs) != n || len(payload.Lows) != n || len(payload.Volumes) != n {
		return nil, fmt.Errorf("finnhub: ragged candle arrays: %w", ErrUnavailable)
	}

	bars := make([]contracts.Bar, n)
	for i := 0; i < n; i++ {
		bars[i] = contracts.Bar{
			Timestamp: time.Unix(payload.Timestamps[i], 0).UTC(),
			Open:      payload.Opens[i],
			High:      payload.Highs[i],
			Low:       payload.Lows[i],
			Close:     payload.Closes[i],
			Volume:    payload.Volumes[i],
		}
	}
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

type finnhubProfile struct {
	Name      string  `json:"name"`
	Exchange  string  `json:"exchange"`
	Currency  string  `json:"currency"`
	MarketCap float64 `json:"marketCapitalization"`
	Industry  string  `json:"finnhubIndustry"`
}

// Meta implements MetaProvider via the company profile endpoint.
// Unknown symbols come back as an empty object, not an error.
func (f *Finnhub) Meta(ctx context.Context, symbol string) (*contracts.TickerMeta, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("token", f.config.APIKey)

	resp, err := f.client.Get(ctx, fmt.Sprintf("%s/stock/profile2?%s", f.config.BaseURL, q.Encode()))
	if err != nil {
		return nil, fmt.Errorf("finnhub: profile request failed: %w", err)
	}

	if resp.StatusCode != 200 {
		return nil, statusError("finnhub", resp)
	}
	defer resp.Body.Close()

	var profile finnhubProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("finnhub: profile decode failed: %w", err)
	}

	meta := &contracts.TickerMeta{
		Symbol:   symbol,
		Name:     profile.Name,
		Exchange: profile.Exchange,
		Currency: profile.Currency,
		Sector:   profile.Industry,
		Industry: profile.Industry,
	}
	if profile.MarketCap > 0 {
		mc := profile.MarketCap
		meta.MarketCap = &mc
	}
	return meta, nil
}
