package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swingscan/swingscan/internal/actionable"
	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/internal/providers"
	"github.com/swingscan/swingscan/internal/ranking"
	"github.com/swingscan/swingscan/internal/scanner"
	"github.com/swingscan/swingscan/internal/strategy"
	"github.com/swingscan/swingscan/pkg/config"
	"github.com/swingscan/swingscan/pkg/logger"
)

type fixedProvider struct {
	series map[string][]contracts.Bar
}

func (f *fixedProvider) Name() string { return "fixed" }

func (f *fixedProvider) DailyBars(_ context.Context, symbol string, _ int) ([]contracts.Bar, error) {
	bars, ok := f.series[symbol]
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, providers.ErrSymbolNotFound)
	}
	return bars, nil
}

func uptrendBars(n int) []contracts.Bar {
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.Bar, n)
	for i := range bars {
		c := 100 + 0.5*float64(i)
		bars[i] = contracts.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c, High: c + 1, Low: c - 1, Close: c,
			Volume: 200_000,
		}
	}
	return bars
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := logger.Nop()

	strat := strategy.DefaultConfig()
	strat.RSIMin = 0
	strat.RSIMax = 100
	strat.ScoreThreshold = 0
	strat.MinRiskReward = 0
	strat.MinDollarVolume20D = 0

	s, err := scanner.New(
		[]providers.Provider{&fixedProvider{series: map[string][]contracts.Bar{
			"UP": uptrendBars(80),
		}}},
		strategy.NewEvaluator(strat, log),
		ranking.NewRanker(log),
		actionable.NewFilter(actionable.DefaultConfig(), log),
		nil,
		scanner.Options{},
		log,
	)
	require.NoError(t, err)

	runner := scanner.NewRunner(s, []string{"UP"}, nil, scanner.ExportPaths{}, nil, log)
	return New(&config.Config{Port: "0", MetricsEnabled: true}, runner, log)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestLastScanBeforeAnyRun(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scan/last", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTriggerScanThenLast(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/scan", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var result contracts.ScanResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.PassedCount)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scan/last", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUniverses(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/universes", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Contains(t, out, "us_liquid_tech")
	assert.NotEmpty(t, out["us_liquid_tech"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebsocketReplaysLastResult(t *testing.T) {
	srv := newTestServer(t)

	// Complete one run so there is something to replay
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/scan", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got contracts.ScanResult
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, 1, got.PassedCount)
}
