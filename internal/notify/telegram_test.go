package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/pkg/config"
	"github.com/swingscan/swingscan/pkg/logger"
)

func result() *contracts.ScanResult {
	return &contracts.ScanResult{
		ScanTimestamp:   time.Date(2025, 6, 6, 21, 0, 0, 0, time.UTC),
		ScannedCount:    30,
		PassedCount:     2,
		ActionableCount: 1,
		Signals: []contracts.Signal{
			{Symbol: "AAPL", Score: 82, Price: 201.3, SuggestedEntry: 201.3, SuggestedStop: 197.1, SuggestedTarget: 215.39, RiskReward: 3.4},
			{Symbol: "MSFT", Score: 71, Price: 410, SuggestedEntry: 410, SuggestedStop: 402, SuggestedTarget: 438.7, RiskReward: 3.6},
		},
		ActionableSignals: []contracts.ActionableSignal{{
			Signal:             contracts.Signal{Symbol: "AAPL"},
			PositionSizeShares: 23,
			RiskDollars:        97,
			RewardDollars:      324,
		}},
	}
}

func TestFormatScanResult(t *testing.T) {
	msg := FormatScanResult(result())

	assert.Contains(t, msg, "Scanned 30, signals 2, actionable 1")
	assert.Contains(t, msg, "<b>AAPL</b> 82")
	assert.Contains(t, msg, "R/R 3.4")
	assert.Contains(t, msg, "23 shares")
}

func TestFormatEmptyScan(t *testing.T) {
	msg := FormatScanResult(&contracts.ScanResult{
		ScanTimestamp: time.Now().UTC(),
	})
	assert.Contains(t, msg, "No setups today")
}

func TestFormatTruncatesLongList(t *testing.T) {
	r := &contracts.ScanResult{ScanTimestamp: time.Now().UTC()}
	for i := 0; i < 15; i++ {
		r.Signals = append(r.Signals, contracts.Signal{Symbol: "SYM"})
	}

	msg := FormatScanResult(r)
	assert.Contains(t, msg, "and 5 more")
	assert.Equal(t, maxListed, strings.Count(msg, "<b>SYM</b>"))
}

func TestFormatFlagsNonReadyStatus(t *testing.T) {
	r := result()
	r.ReadinessStatus = "EARLY"
	r.ReadinessMessage = "Market still open"

	msg := FormatScanResult(r)
	assert.Contains(t, msg, "EARLY")
	assert.Contains(t, msg, "Market still open")
}

func TestSendScanResult(t *testing.T) {
	var gotPath, gotChatID, gotParseMode string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotChatID = r.PostForm.Get("chat_id")
		gotParseMode = r.PostForm.Get("parse_mode")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tg := NewTelegram(config.TelegramConfig{Enabled: true, BotToken: "token", ChatID: "42"}, logger.Nop())
	require.NotNil(t, tg)
	tg.baseURL = server.URL

	err := tg.SendScanResult(context.Background(), result())
	require.NoError(t, err)

	assert.Equal(t, "/bottoken/sendMessage", gotPath)
	assert.Equal(t, "42", gotChatID)
	assert.Equal(t, "HTML", gotParseMode)
}

func TestNewTelegramDisabled(t *testing.T) {
	assert.Nil(t, NewTelegram(config.TelegramConfig{Enabled: false}, logger.Nop()))
}
