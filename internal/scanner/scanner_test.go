package scanner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swingscan/swingscan/internal/actionable"
	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/internal/providers"
	"github.com/swingscan/swingscan/internal/ranking"
	"github.com/swingscan/swingscan/internal/strategy"
	"github.com/swingscan/swingscan/pkg/logger"
)

// permissiveConfig disables the band and threshold gates so any clean
// uptrend yields a signal. Orchestration is under test here, not the
// strategy itself.
func permissiveConfig() strategy.Config {
	cfg := strategy.DefaultConfig()
	cfg.RSIMin = 0
	cfg.RSIMax = 100
	cfg.ScoreThreshold = 0
	cfg.MinRiskReward = 0
	cfg.MinPrice = 1
	cfg.MinDollarVolume20D = 0
	return cfg
}

func uptrendBars(n int, slope float64) []contracts.Bar {
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.Bar, n)
	for i := range bars {
		c := 100 + slope*float64(i)
		bars[i] = contracts.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c, High: c + 1, Low: c - 1, Close: c,
			Volume: 200_000,
		}
	}
	return bars
}

func flatBars(n int) []contracts.Bar {
	return uptrendBars(n, 0)
}

// fakeBatch is a BatchProvider serving canned series.
type fakeBatch struct {
	name       string
	series     map[string][]contracts.Bar
	batchCalls int
}

func (f *fakeBatch) Name() string { return f.name }

func (f *fakeBatch) DailyBars(_ context.Context, symbol string, _ int) ([]contracts.Bar, error) {
	bars, ok := f.series[symbol]
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, providers.ErrSymbolNotFound)
	}
	return bars, nil
}

func (f *fakeBatch) DailyBarsBatch(_ context.Context, symbols []string, _ int) (map[string][]contracts.Bar, error) {
	f.batchCalls++
	out := make(map[string][]contracts.Bar)
	for _, s := range symbols {
		if bars, ok := f.series[s]; ok {
			out[s] = bars
		}
	}
	return out, nil
}

func (f *fakeBatch) Meta(_ context.Context, symbol string) (*contracts.TickerMeta, error) {
	return &contracts.TickerMeta{Symbol: symbol, Name: symbol + " Inc"}, nil
}

// fakeSingle is a plain Provider; err (when set) fails every call.
type fakeSingle struct {
	name   string
	series map[string][]contracts.Bar
	err    error
}

func (f *fakeSingle) Name() string { return f.name }

func (f *fakeSingle) DailyBars(_ context.Context, symbol string, _ int) ([]contracts.Bar, error) {
	if f.err != nil {
		return nil, f.err
	}
	bars, ok := f.series[symbol]
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, providers.ErrSymbolNotFound)
	}
	return bars, nil
}

func newScanner(t *testing.T, provs []providers.Provider) *Scanner {
	t.Helper()
	log := logger.Nop()
	s, err := New(
		provs,
		strategy.NewEvaluator(permissiveConfig(), log),
		ranking.NewRanker(log),
		actionable.NewFilter(actionable.DefaultConfig(), log),
		nil,
		Options{},
		log,
	)
	require.NoError(t, err)
	return s
}

func TestScanEndToEnd(t *testing.T) {
	prov := &fakeBatch{name: "fake", series: map[string][]contracts.Bar{
		"UP":   uptrendBars(80, 0.5),
		"FLAT": flatBars(80),
	}}
	s := newScanner(t, []providers.Provider{prov})

	result, err := s.Scan(context.Background(), []string{"UP", "FLAT"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.ScannedCount)
	assert.Equal(t, 1, result.PassedCount)
	require.Len(t, result.Signals, 1)
	assert.Equal(t, "UP", result.Signals[0].Symbol)
	assert.Equal(t, "fake", result.DataProvider)
	assert.Equal(t, 1, prov.batchCalls, "batch vendors get one round trip")

	require.NotNil(t, result.LastBarTimestamp)
	assert.Equal(t, 1, result.ActionableCount)
	assert.Greater(t, result.ActionableSignals[0].PositionSizeShares, 0)

	require.NotNil(t, result.Signals[0].Meta)
	assert.Equal(t, "UP Inc", result.Signals[0].Meta.Name)
}

func TestScanRanksDescending(t *testing.T) {
	prov := &fakeBatch{name: "fake", series: map[string][]contracts.Bar{
		// Steeper trend scores at least as high on breakout proximity
		"A": uptrendBars(80, 0.5),
		"B": uptrendBars(80, 0.1),
	}}
	s := newScanner(t, []providers.Provider{prov})

	result, err := s.Scan(context.Background(), []string{"A", "B"})
	require.NoError(t, err)
	require.Equal(t, 2, result.PassedCount)

	assert.GreaterOrEqual(t, result.Signals[0].Score, result.Signals[1].Score)
}

func TestScanFallsBackToSecondProvider(t *testing.T) {
	broken := &fakeSingle{name: "broken", err: providers.ErrUnavailable}
	working := &fakeSingle{name: "working", series: map[string][]contracts.Bar{
		"UP": uptrendBars(80, 0.5),
	}}
	s := newScanner(t, []providers.Provider{broken, working})

	result, err := s.Scan(context.Background(), []string{"UP"})
	require.NoError(t, err)
	assert.Equal(t, "working", result.DataProvider)
	assert.Equal(t, 1, result.PassedCount)
}

func TestScanSkipsUnknownSymbols(t *testing.T) {
	prov := &fakeSingle{name: "fake", series: map[string][]contracts.Bar{
		"UP": uptrendBars(80, 0.5),
	}}
	s := newScanner(t, []providers.Provider{prov})

	result, err := s.Scan(context.Background(), []string{"UP", "NOPE"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.ScannedCount)
	assert.Equal(t, 1, result.PassedCount)
}

func TestScanCancelledContext(t *testing.T) {
	prov := &fakeSingle{name: "fake", series: map[string][]contracts.Bar{
		"UP": uptrendBars(80, 0.5),
	}}
	s := newScanner(t, []providers.Provider{prov})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Scan(ctx, []string{"UP"})
	assert.Error(t, err)
}

func TestScanAllProvidersFail(t *testing.T) {
	s := newScanner(t, []providers.Provider{
		&fakeSingle{name: "a", err: providers.ErrUnavailable},
		&fakeSingle{name: "b", err: providers.ErrRateLimited},
	})

	_, err := s.Scan(context.Background(), []string{"UP"})
	assert.Error(t, err)
}
