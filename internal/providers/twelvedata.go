package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/pkg/config"
	"github.com/swingscan/swingscan/pkg/httputil"
	"github.com/swingscan/swingscan/pkg/logger"
)

// TwelveData adapts the Twelve Data time_series API. Returns newest
// first; the adapter reverses into ascending order. Errors arrive as
// HTTP 200 with a JSON status envelope.
type TwelveData struct {
	config config.TwelveDataConfig
	client *httputil.Client
	logger *logger.Logger
}

// NewTwelveData creates a Twelve Data adapter.
func NewTwelveData(cfg config.TwelveDataConfig, log *logger.Logger) *TwelveData {
	return &TwelveData{
		config: cfg,
		client: httputil.New(log).WithRateLimit(0.13, 1), // free tier: 8/min
		logger: log,
	}
}

// Name implements Provider.
func (t *TwelveData) Name() string { return "twelvedata" }

type twelveDataValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

type twelveDataResponse struct {
	Status  string            `json:"status"` // "ok" or "error"
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Values  []twelveDataValue `json:"values"`
}

// DailyBars implements Provider.
func (t *TwelveData) DailyBars(ctx context.Context, symbol string, limit int) ([]contracts.Bar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", "1day")
	q.Set("outputsize", strconv.Itoa(limit))
	q.Set("apikey", t.config.APIKey)

	resp, err := t.client.Get(ctx, fmt.Sprintf("%s/time_series?%s", t.config.BaseURL, q.Encode()))
	if err != nil {
		return nil, fmt.Errorf("twelvedata: request failed: %w", err)
	}

	if resp.StatusCode != 200 {
		return nil, statusError("twelvedata", resp)
	}
	defer resp.Body.Close()

	var payload twelveDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("twelvedata: decode failed: %w", err)
	}

	if payload.Status == "error" {
		switch payload.Code {
		case 429:
			return nil, fmt.Errorf("twelvedata: %s: %w", payload.Message, ErrRateLimited)
		case 400, 404:
			return nil, fmt.Errorf("twelvedata: %s: %w", symbol, ErrSymbolNotFound)
		default:
			return nil, fmt.Errorf("twelvedata: code %d (%s): %w",
				payload.Code, payload.Message, ErrUnavailable)
		}
	}

	// Values arrive newest first
	bars := make([]contracts.Bar, 0, len(payload.Values))
	for i := len(payload.Values) - 1; i >= 0; i-- {
		v := payload.Values[i]
		bar, err := v.toBar()
		if err != nil {
			return nil, fmt.Errorf("twelvedata: bad value row: %w", err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

type twelveDataProfile struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`

	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

// Meta implements MetaProvider via the profile endpoint. Same
// HTTP-200 error envelope convention as time_series.
func (t *TwelveData) Meta(ctx context.Context, symbol string) (*contracts.TickerMeta, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("apikey", t.config.APIKey)

	resp, err := t.client.Get(ctx, fmt.Sprintf("%s/profile?%s", t.config.BaseURL, q.Encode()))
	if err != nil {
		return nil, fmt.Errorf("twelvedata: profile request failed: %w", err)
	}

	if resp.StatusCode != 200 {
		return nil, statusError("twelvedata", resp)
	}
	defer resp.Body.Close()

	var profile twelveDataProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("twelvedata: profile decode failed: %w", err)
	}

	if profile.Status == "error" {
		switch profile.Code {
		case 429:
			return nil, fmt.Errorf("twelvedata: %s: %w", profile.Message, ErrRateLimited)
		case 400, 404:
			return nil, fmt.Errorf("twelvedata: %s: %w", symbol, ErrSymbolNotFound)
		default:
			return nil, fmt.Errorf("twelvedata: code %d (%s): %w",
				profile.Code, profile.Message, ErrUnavailable)
		}
	}

	return &contracts.TickerMeta{
		Symbol:   symbol,
		Name:     profile.Name,
		Exchange: profile.Exchange,
		Currency: profile.Currency,
		Sector:   profile.Sector,
		Industry: profile.Industry,
	}, nil
}

func (v twelveDataValue) toBar() (contracts.Bar, error) {
	ts, err := time.Parse("2006-01-02", v.Datetime)
	if err != nil {
		return contracts.Bar{}, fmt.Errorf("parse datetime %q: %w", v.Datetime, err)
	}

	fields := [5]string{v.Open, v.High, v.Low, v.Close, v.Volume}
	var nums [5]float64
	for i, s := range fields {
		if s == "" {
			continue // volume is sometimes omitted
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return contracts.Bar{}, fmt.Errorf("parse field %q: %w", s, err)
		}
		nums[i] = f
	}

	return contracts.Bar{
		Timestamp: ts.UTC(),
		Open:      nums[0],
		High:      nums[1],
		Low:       nums[2],
		Close:     nums[3],
		Volume:    nums[4],
	}, nil
}
