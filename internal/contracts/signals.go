package contracts

import "time"

// RSI slope classifications. A discrete three-state signal, not a
// continuous derivative.
const (
	SlopeRising  = "rising"
	SlopeFalling = "falling"
	SlopeFlat    = "flat"
)

// Signal is a scored trade idea for one symbol, produced once per scan
// by the strategy evaluator. Immutable after creation; downstream stages
// only wrap it.
type Signal struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Score     float64   `json:"score"` // composite score 0-100

	// Human-readable labels for the rules that contributed
	SignalsHit []string `json:"signals_hit"`

	// Indicator snapshot at evaluation time
	RSI                 *float64 `json:"rsi,omitempty"`
	RSISlope            string   `json:"rsi_slope,omitempty"` // rising, falling, flat
	EMA9                *float64 `json:"ema_9,omitempty"`
	EMA21               *float64 `json:"ema_21,omitempty"`
	SMA50               *float64 `json:"sma_50,omitempty"`
	MACD                *float64 `json:"macd,omitempty"`
	MACDSignal          *float64 `json:"macd_signal,omitempty"`
	MACDHistogram       *float64 `json:"macd_histogram,omitempty"`
	HistogramRisingBars int      `json:"histogram_rising_bars"`
	VolumeAvg20         *float64 `json:"volume_avg_20,omitempty"`
	CurrentVolume       float64  `json:"current_volume"`
	VolumeRatio         *float64 `json:"volume_ratio,omitempty"`
	AvgDollarVolume20D  *float64 `json:"avg_dollar_volume_20d,omitempty"`
	ATR                 float64  `json:"atr"`
	ADX                 *float64 `json:"adx,omitempty"`

	// Per-component score contributions; Score is always their sum
	ScoreBreakdown map[string]float64 `json:"score_breakdown"`

	// Risk management
	SuggestedEntry  float64 `json:"suggested_entry"`
	SuggestedStop   float64 `json:"suggested_stop"`
	SuggestedTarget float64 `json:"suggested_target"`
	StopBasis       string  `json:"stop_basis"`   // e.g. "1.0×ATR", "swing-low"
	TargetBasis     string  `json:"target_basis"` // e.g. "+7%"
	RiskReward      float64 `json:"risk_reward"`

	// Breakout context
	PivotHigh          *float64 `json:"pivot_high,omitempty"`
	RecentLow          float64  `json:"recent_low"`
	DistanceToPivotPct *float64 `json:"distance_to_pivot_pct,omitempty"`

	Meta *TickerMeta `json:"meta,omitempty"`
}

// BreakdownSum returns the sum of the score breakdown components.
// Invariant: equals Score for every materialized Signal.
func (s *Signal) BreakdownSum() float64 {
	var sum float64
	for _, v := range s.ScoreBreakdown {
		sum += v
	}
	return sum
}

// ActionableSignal wraps a Signal that passed the safety gates with a
// concrete position size. A pure derived view; never re-enters the
// pipeline.
type ActionableSignal struct {
	Signal             Signal   `json:"signal"`
	PositionSizeShares int      `json:"position_size_shares"`
	RiskDollars        float64  `json:"risk_dollars"`
	RewardDollars      float64  `json:"reward_dollars"`
	Notes              []string `json:"notes"`
}

// RejectedSignal records why a signal failed the actionable gates.
type RejectedSignal struct {
	Symbol           string   `json:"symbol"`
	RejectionReasons []string `json:"rejection_reasons"`
}
