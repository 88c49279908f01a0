// Package notify pushes scan summaries to Telegram. Messages use the
// bot API's HTML parse mode and cap the number of listed signals so a
// wide scan never exceeds Telegram's 4096 character limit.
package notify

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/pkg/config"
	"github.com/swingscan/swingscan/pkg/httputil"
	"github.com/swingscan/swingscan/pkg/logger"
)

const (
	telegramAPIBase = "https://api.telegram.org"
	maxListed       = 10
)

// Telegram sends scan notifications through a bot.
type Telegram struct {
	config  config.TelegramConfig
	client  *httputil.Client
	logger  *logger.Logger
	baseURL string
}

// NewTelegram creates a Telegram notifier. Returns nil when the channel
// is disabled; callers treat a nil notifier as "skip".
func NewTelegram(cfg config.TelegramConfig, log *logger.Logger) *Telegram {
	if !cfg.Enabled {
		return nil
	}
	return &Telegram{
		config:  cfg,
		client:  httputil.New(log),
		logger:  log,
		baseURL: telegramAPIBase,
	}
}

// SendScanResult formats and sends the scan summary.
func (t *Telegram) SendScanResult(ctx context.Context, result *contracts.ScanResult) error {
	return t.send(ctx, FormatScanResult(result))
}

func (t *Telegram) send(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.config.BotToken)

	form := url.Values{}
	form.Set("chat_id", t.config.ChatID)
	form.Set("text", text)
	form.Set("parse_mode", "HTML")
	form.Set("disable_web_page_preview", "true")

	resp, err := t.client.PostForm(ctx, endpoint, form)
	if err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	t.logger.WithField("chat_id", t.config.ChatID).Info("Telegram notification sent")
	return nil
}

// FormatScanResult renders the HTML message body.
func FormatScanResult(result *contracts.ScanResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 <b>Scan complete</b> · %s\n", result.ScanTimestamp.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Scanned %d, signals %d, actionable %d\n",
		result.ScannedCount, result.PassedCount, result.ActionableCount)

	if result.ReadinessStatus != "" && result.ReadinessStatus != "READY" {
		fmt.Fprintf(&b, "⚠️ %s: %s\n", result.ReadinessStatus, html.EscapeString(result.ReadinessMessage))
	}

	if len(result.Signals) == 0 {
		b.WriteString("\nNo setups today.")
		return b.String()
	}

	b.WriteString("\n")
	for i, s := range result.Signals {
		if i == maxListed {
			fmt.Fprintf(&b, "… and %d more\n", len(result.Signals)-maxListed)
			break
		}
		fmt.Fprintf(&b, "<b>%s</b> %.0f | $%.2f | entry %.2f stop %.2f target %.2f | R/R %.1f\n",
			html.EscapeString(s.Symbol), s.Score, s.Price,
			s.SuggestedEntry, s.SuggestedStop, s.SuggestedTarget, s.RiskReward)
	}

	for _, a := range result.ActionableSignals {
		if a.PositionSizeShares > 0 {
			fmt.Fprintf(&b, "\n💰 <b>%s</b>: %d shares, risk $%.0f, reward $%.0f",
				html.EscapeString(a.Signal.Symbol), a.PositionSizeShares,
				a.RiskDollars, a.RewardDollars)
		}
	}

	return b.String()
}
