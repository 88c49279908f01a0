package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/pkg/cache"
	"github.com/swingscan/swingscan/pkg/config"
	"github.com/swingscan/swingscan/pkg/logger"
)

func TestFinnhubDailyBars(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "D", r.URL.Query().Get("resolution"))
		fmt.Fprint(w, `{"s":"ok","t":[1735776000,1735862400],"o":[100,101],"h":[102,103],"l":[99,100],"c":[101,102],"v":[1000,1100]}`)
	}))
	defer server.Close()

	f := NewFinnhub(config.FinnhubConfig{APIKey: "k", BaseURL: server.URL}, logger.Nop())
	bars, err := f.DailyBars(context.Background(), "aapl", 100)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.True(t, bars[0].Timestamp.Before(bars[1].Timestamp))
	assert.Equal(t, 101.0, bars[0].Close)
	assert.Equal(t, 1100.0, bars[1].Volume)
}

func TestFinnhubNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"s":"no_data"}`)
	}))
	defer server.Close()

	f := NewFinnhub(config.FinnhubConfig{BaseURL: server.URL}, logger.Nop())
	_, err := f.DailyBars(context.Background(), "NOPE", 100)
	assert.True(t, errors.Is(err, ErrSymbolNotFound), "got %v", err)
}

func TestFinnhubRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	f := NewFinnhub(config.FinnhubConfig{BaseURL: server.URL}, logger.Nop())
	_, err := f.DailyBars(context.Background(), "AAPL", 100)
	assert.True(t, errors.Is(err, ErrRateLimited), "got %v", err)
}

func TestFinnhubMeta(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/profile2", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		fmt.Fprint(w, `{"name":"Apple Inc","exchange":"NASDAQ","currency":"USD","marketCapitalization":2900000,"finnhubIndustry":"Technology"}`)
	}))
	defer server.Close()

	f := NewFinnhub(config.FinnhubConfig{APIKey: "k", BaseURL: server.URL}, logger.Nop())
	meta, err := f.Meta(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", meta.Symbol)
	assert.Equal(t, "Apple Inc", meta.Name)
	assert.Equal(t, "NASDAQ", meta.Exchange)
	require.NotNil(t, meta.MarketCap)
	assert.Equal(t, 2900000.0, *meta.MarketCap)
}

func TestTwelveDataReversesNewestFirst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ok","values":[
			{"datetime":"2025-01-03","open":"101","high":"103","low":"100","close":"102","volume":"1100"},
			{"datetime":"2025-01-02","open":"100","high":"102","low":"99","close":"101","volume":"1000"}
		]}`)
	}))
	defer server.Close()

	td := NewTwelveData(config.TwelveDataConfig{APIKey: "k", BaseURL: server.URL}, logger.Nop())
	bars, err := td.DailyBars(context.Background(), "AAPL", 100)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, 101.0, bars[0].Close)
	assert.Equal(t, 102.0, bars[1].Close)
	assert.NoError(t, contracts.ValidateBars(bars))
}

func TestTwelveDataErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","code":429,"message":"out of credits"}`)
	}))
	defer server.Close()

	td := NewTwelveData(config.TwelveDataConfig{BaseURL: server.URL}, logger.Nop())
	_, err := td.DailyBars(context.Background(), "AAPL", 100)
	assert.True(t, errors.Is(err, ErrRateLimited), "got %v", err)
}

func TestAlpacaBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("APCA-API-KEY-ID"))
		assert.Equal(t, "secret", r.Header.Get("APCA-API-SECRET-KEY"))
		assert.Equal(t, "AAPL,MSFT", r.URL.Query().Get("symbols"))
		fmt.Fprint(w, `{"bars":{
			"AAPL":[{"t":"2025-01-02T05:00:00Z","o":100,"h":102,"l":99,"c":101,"v":1000}],
			"MSFT":[{"t":"2025-01-02T05:00:00Z","o":400,"h":405,"l":399,"c":404,"v":2000}]
		},"next_page_token":null}`)
	}))
	defer server.Close()

	a := NewAlpaca(config.AlpacaConfig{APIKey: "key", APISecret: "secret", BaseURL: server.URL}, logger.Nop())
	batch, err := a.DailyBarsBatch(context.Background(), []string{"aapl", "msft"}, 100)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, 101.0, batch["AAPL"][0].Close)
	assert.Equal(t, 404.0, batch["MSFT"][0].Close)
}

func TestAlpacaSingleSymbolMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"bars":{},"next_page_token":null}`)
	}))
	defer server.Close()

	a := NewAlpaca(config.AlpacaConfig{BaseURL: server.URL}, logger.Nop())
	_, err := a.DailyBars(context.Background(), "NOPE", 100)
	assert.True(t, errors.Is(err, ErrSymbolNotFound), "got %v", err)
}

func TestAlphaVantageQuotaNote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Note":"API call frequency exceeded"}`)
	}))
	defer server.Close()

	av := NewAlphaVantage(config.AlphaVantageConfig{BaseURL: server.URL}, logger.Nop())
	_, err := av.DailyBars(context.Background(), "AAPL", 100)
	assert.True(t, errors.Is(err, ErrRateLimited), "got %v", err)
}

func TestAlphaVantageParsesAscending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Time Series (Daily)":{
			"2025-01-03":{"1. open":"101","2. high":"103","3. low":"100","4. close":"102","5. volume":"1100"},
			"2025-01-02":{"1. open":"100","2. high":"102","3. low":"99","4. close":"101","5. volume":"1000"}
		}}`)
	}))
	defer server.Close()

	av := NewAlphaVantage(config.AlphaVantageConfig{BaseURL: server.URL}, logger.Nop())
	bars, err := av.DailyBars(context.Background(), "AAPL", 100)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.NoError(t, contracts.ValidateBars(bars))
	assert.Equal(t, 102.0, bars[1].Close)
}

// countingProvider serves a fixed series and counts upstream calls.
type countingProvider struct {
	calls int
	bars  []contracts.Bar
}

func (p *countingProvider) Name() string { return "fake" }

func (p *countingProvider) DailyBars(_ context.Context, symbol string, limit int) ([]contracts.Bar, error) {
	p.calls++
	return p.bars, nil
}

func TestCachedProviderServesFromCache(t *testing.T) {
	inner := &countingProvider{bars: []contracts.Bar{{
		Timestamp: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Open:      100, High: 102, Low: 99, Close: 101, Volume: 1000,
	}}}

	c := WithCache(inner, cache.NewMemory(10), time.Hour, logger.Nop())

	first, err := c.DailyBars(context.Background(), "AAPL", 100)
	require.NoError(t, err)
	second, err := c.DailyBars(context.Background(), "AAPL", 100)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "second fetch must hit the cache")
	assert.Equal(t, first[0].Close, second[0].Close)

	// Different limit is a different key
	_, err = c.DailyBars(context.Background(), "AAPL", 50)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestWithCacheHidesBatchForSingleVendors(t *testing.T) {
	single := WithCache(&countingProvider{}, cache.NewMemory(10), time.Hour, logger.Nop())
	_, ok := single.(BatchProvider)
	assert.False(t, ok, "single-symbol vendor must not advertise batch fetch")

	batch := WithCache(NewAlpaca(config.AlpacaConfig{}, logger.Nop()), cache.NewMemory(10), time.Hour, logger.Nop())
	_, ok = batch.(BatchProvider)
	assert.True(t, ok)
}

// metaProvider extends countingProvider with a fixed profile.
type metaProvider struct {
	countingProvider
	metaCalls int
}

func (p *metaProvider) Meta(_ context.Context, symbol string) (*contracts.TickerMeta, error) {
	p.metaCalls++
	return &contracts.TickerMeta{Symbol: symbol, Name: "Fake Corp"}, nil
}

func TestCachedProviderCachesMeta(t *testing.T) {
	inner := &metaProvider{}
	c := WithCache(inner, cache.NewMemory(10), time.Hour, logger.Nop())

	mp, ok := c.(MetaProvider)
	require.True(t, ok)

	first, err := mp.Meta(context.Background(), "AAPL")
	require.NoError(t, err)
	second, err := mp.Meta(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.metaCalls, "second lookup must hit the cache")
	assert.Equal(t, first.Name, second.Name)
}
