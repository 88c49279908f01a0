package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/pkg/config"
	"github.com/swingscan/swingscan/pkg/httputil"
	"github.com/swingscan/swingscan/pkg/logger"
)

// Alpaca adapts the Alpaca Markets data API. The only vendor with a
// multi-symbol bars endpoint, so it also implements BatchProvider.
type Alpaca struct {
	config config.AlpacaConfig
	client *httputil.Client
	logger *logger.Logger
}

// NewAlpaca creates an Alpaca data adapter.
func NewAlpaca(cfg config.AlpacaConfig, log *logger.Logger) *Alpaca {
	return &Alpaca{
		config: cfg,
		client: httputil.New(log).WithRateLimit(3, 3),
		logger: log,
	}
}

// Name implements Provider.
func (a *Alpaca) Name() string { return "alpaca" }

type alpacaBar struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

type alpacaBarsResponse struct {
	Bars          map[string][]alpacaBar `json:"bars"`
	NextPageToken *string                `json:"next_page_token"`
}

// DailyBars implements Provider via the batch endpoint.
func (a *Alpaca) DailyBars(ctx context.Context, symbol string, limit int) ([]contracts.Bar, error) {
	batch, err := a.DailyBarsBatch(ctx, []string{symbol}, limit)
	if err != nil {
		return nil, err
	}
	bars, ok := batch[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("alpaca: %s: %w", symbol, ErrSymbolNotFound)
	}
	return bars, nil
}

// Meta implements MetaProvider. Alpaca's free tier has no company
// metadata endpoint, so this returns basics without an API call.
func (a *Alpaca) Meta(_ context.Context, symbol string) (*contracts.TickerMeta, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	return &contracts.TickerMeta{
		Symbol:   symbol,
		Name:     symbol,
		Exchange: "US",
		Currency: "USD",
	}, nil
}

// DailyBarsBatch implements BatchProvider.
func (a *Alpaca) DailyBarsBatch(ctx context.Context, symbols []string, limit int) (map[string][]contracts.Bar, error) {
	if len(symbols) == 0 {
		return map[string][]contracts.Bar{}, nil
	}

	upper := make([]string, len(symbols))
	for i, s := range symbols {
		upper[i] = strings.ToUpper(strings.TrimSpace(s))
	}

	// Daily bars: ask for a calendar window generously larger than the
	// requested bar count to cover weekends and holidays.
	start := time.Now().UTC().AddDate(0, 0, -(limit*7/5 + 20))

	q := url.Values{}
	q.Set("symbols", strings.Join(upper, ","))
	q.Set("timeframe", "1Day")
	q.Set("start", start.Format("2006-01-02"))
	q.Set("limit", fmt.Sprintf("%d", limit*len(upper)))
	q.Set("adjustment", "split")

	reqURL := fmt.Sprintf("%s/stocks/bars?%s", a.config.BaseURL, q.Encode())

	resp, err := a.client.GetWithHeaders(ctx, reqURL, map[string]string{
		"APCA-API-KEY-ID":     a.config.APIKey,
		"APCA-API-SECRET-KEY": a.config.APISecret,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca: request failed: %w", err)
	}

	if resp.StatusCode != 200 {
		return nil, statusError("alpaca", resp)
	}
	defer resp.Body.Close()

	var payload alpacaBarsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("alpaca: decode failed: %w", err)
	}

	out := make(map[string][]contracts.Bar, len(payload.Bars))
	for symbol, raw := range payload.Bars {
		bars := make([]contracts.Bar, len(raw))
		for i, b := range raw {
			bars[i] = contracts.Bar{
				Timestamp: b.Timestamp,
				Open:      b.Open,
				High:      b.High,
				Low:       b.Low,
				Close:     b.Close,
				Volume:    b.Volume,
			}
		}
		sort.Slice(bars, func(i, j int) bool {
			return bars[i].Timestamp.Before(bars[j].Timestamp)
		})
		if len(bars) > limit {
			bars = bars[len(bars)-limit:]
		}
		out[symbol] = bars
	}

	a.logger.WithFields(map[string]interface{}{
		"requested": len(upper),
		"returned":  len(out),
	}).Debug("Alpaca batch fetched")

	return out, nil
}
